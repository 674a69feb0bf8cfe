package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seamdb/seam/pkg/engine"
	"github.com/seamdb/seam/pkg/observability"
	"github.com/seamdb/seam/pkg/query"
)

// fakeEngine serves a fixed dataset and interprets the trailing [limit,
// offset] parameters the default param function produces.
type fakeEngine struct {
	rows      []engine.Row
	selectErr error

	mu          sync.Mutex
	selectCalls int
}

func newFakeEngine(prefix string, n int) *fakeEngine {
	rows := make([]engine.Row, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, engine.Row{"id": fmt.Sprintf("%s-r%d", prefix, i)})
	}
	return &fakeEngine{rows: rows}
}

func (f *fakeEngine) Select(ctx context.Context, q string, params []any) ([]engine.Row, error) {
	f.mu.Lock()
	f.selectCalls++
	f.mu.Unlock()
	if f.selectErr != nil {
		return nil, f.selectErr
	}

	limit, offset := len(f.rows), 0
	if len(params) >= 2 {
		if n, ok := params[len(params)-2].(int); ok {
			limit = n
		}
		if n, ok := params[len(params)-1].(int); ok {
			offset = n
		}
	}
	if offset >= len(f.rows) {
		return []engine.Row{}, nil
	}
	end := offset + limit
	if end > len(f.rows) {
		end = len(f.rows)
	}
	out := make([]engine.Row, end-offset)
	copy(out, f.rows[offset:end])
	return out, nil
}

func (f *fakeEngine) Count(ctx context.Context, q string, params []any) (int64, error) {
	return int64(len(f.rows)), nil
}

func (f *fakeEngine) Close() error { return nil }

func fakeSource(name string, eng *fakeEngine) *query.Source {
	return &query.Source{
		Name:        name,
		Engine:      eng,
		SelectQuery: "SELECT id FROM rows LIMIT ? OFFSET ?",
		CountQuery:  "SELECT COUNT(*) FROM rows",
	}
}

type envelope struct {
	Data  []map[string]any `json:"data"`
	Total *int64           `json:"total"`
}

type errEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func quietServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = observability.NewLogger(observability.ErrorLevel, io.Discard)
	}
	return NewServer(opts)
}

func doJSON(t *testing.T, s *Server, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, reader)
	if body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, r)

	var env envelope
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errEnvelope {
	t.Helper()
	var env errEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func ids(rows []map[string]any) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row["id"].(string))
	}
	return out
}

func TestSingleEndpointGET(t *testing.T) {
	s := quietServer(t, Options{})
	require.NoError(t, s.RegisterSingle("/api/v1/rows", SingleOptions{
		Source: fakeSource("s1", newFakeEngine("s1", 5)),
	}))

	rec, env := doJSON(t, s, http.MethodGet, "/api/v1/rows?limit=2&offset=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"s1-r2", "s1-r3"}, ids(env.Data))
	require.NotNil(t, env.Total)
	assert.Equal(t, int64(5), *env.Total)
}

func TestSingleEndpointDefaultLimit(t *testing.T) {
	s := quietServer(t, Options{DefaultLimit: 3})
	require.NoError(t, s.RegisterSingle("/api/v1/rows", SingleOptions{
		Source: fakeSource("s1", newFakeEngine("s1", 5)),
	}))

	rec, env := doJSON(t, s, http.MethodGet, "/api/v1/rows", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, env.Data, 3)
}

func TestSingleEndpointPOSTBody(t *testing.T) {
	s := quietServer(t, Options{})
	require.NoError(t, s.RegisterSingle("/api/v1/rows", SingleOptions{
		Source: fakeSource("s1", newFakeEngine("s1", 5)),
	}))

	rec, env := doJSON(t, s, http.MethodPost, "/api/v1/rows", `{"limit": 2, "offset": 3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"s1-r4", "s1-r5"}, ids(env.Data))
}

func TestSingleEndpointFiltersReachQueryFunc(t *testing.T) {
	eng := newFakeEngine("s1", 2)
	var gotGenre string
	src := &query.Source{
		Name:   "s1",
		Engine: eng,
		SelectQueryFunc: func(filters any) (string, error) {
			if m, ok := filters.(map[string]any); ok {
				gotGenre, _ = m["genre"].(string)
			}
			return "SELECT id FROM rows LIMIT ? OFFSET ?", nil
		},
	}

	s := quietServer(t, Options{})
	require.NoError(t, s.RegisterSingle("/api/v1/rows", SingleOptions{Source: src}))

	rec, _ := doJSON(t, s, http.MethodGet, "/api/v1/rows?genre=fiction", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fiction", gotGenre)
}

func TestSingleEndpointEmptyResultIsArray(t *testing.T) {
	s := quietServer(t, Options{})
	require.NoError(t, s.RegisterSingle("/api/v1/rows", SingleOptions{
		Source: fakeSource("s1", newFakeEngine("s1", 2)),
	}))

	rec, _ := doJSON(t, s, http.MethodGet, "/api/v1/rows?offset=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestSingleEndpointInvalidLimit(t *testing.T) {
	s := quietServer(t, Options{})
	require.NoError(t, s.RegisterSingle("/api/v1/rows", SingleOptions{
		Source: fakeSource("s1", newFakeEngine("s1", 2)),
	}))

	rec, _ := doJSON(t, s, http.MethodGet, "/api/v1/rows?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSingleEndpointNegativeOffset(t *testing.T) {
	s := quietServer(t, Options{})
	require.NoError(t, s.RegisterSingle("/api/v1/rows", SingleOptions{
		Source: fakeSource("s1", newFakeEngine("s1", 2)),
	}))

	rec, _ := doJSON(t, s, http.MethodGet, "/api/v1/rows?offset=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_pagination", decodeError(t, rec).Code)
}

func TestSingleEndpointConnectivityFailure(t *testing.T) {
	eng := newFakeEngine("s1", 2)
	eng.selectErr = &engine.ConnectivityError{Err: fmt.Errorf("connection refused")}

	s := quietServer(t, Options{})
	require.NoError(t, s.RegisterSingle("/api/v1/rows", SingleOptions{
		Source: fakeSource("s1", eng),
	}))

	rec, _ := doJSON(t, s, http.MethodGet, "/api/v1/rows", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "engine_connectivity", decodeError(t, rec).Code)
}

func TestSingleEndpointInterceptorRejection(t *testing.T) {
	reject := func(ctx context.Context, qc *query.QueryContext, next query.Handler) (*query.Result, error) {
		return nil, query.Reject(http.StatusUnauthorized, "credentials required")
	}

	s := quietServer(t, Options{})
	require.NoError(t, s.RegisterSingle("/api/v1/rows", SingleOptions{
		Source:       fakeSource("s1", newFakeEngine("s1", 2)),
		Interceptors: []query.Interceptor{reject},
	}))

	rec, _ := doJSON(t, s, http.MethodGet, "/api/v1/rows", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeError(t, rec)
	assert.Equal(t, "interceptor_rejected", env.Code)
	assert.Equal(t, "credentials required", env.Error)
}

func TestProviderValueReachesChain(t *testing.T) {
	var seen any
	spy := func(ctx context.Context, qc *query.QueryContext, next query.Handler) (*query.Result, error) {
		seen, _ = qc.Value("caller")
		return next(ctx, qc)
	}

	s := quietServer(t, Options{})
	require.NoError(t, s.RegisterSingle("/api/v1/rows", SingleOptions{
		Source:       fakeSource("s1", newFakeEngine("s1", 2)),
		Interceptors: []query.Interceptor{spy},
		Providers: []Provider{{
			Name: "caller",
			Resolve: func(r *http.Request) (any, error) {
				return r.Header.Get("X-Caller"), nil
			},
		}},
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/rows", nil)
	r.Header.Set("X-Caller", "alice")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", seen)
}

func TestProviderFailure(t *testing.T) {
	s := quietServer(t, Options{})
	require.NoError(t, s.RegisterSingle("/api/v1/rows", SingleOptions{
		Source: fakeSource("s1", newFakeEngine("s1", 2)),
		Providers: []Provider{{
			Name: "caller",
			Resolve: func(r *http.Request) (any, error) {
				return nil, query.Reject(http.StatusUnauthorized, "missing credentials")
			},
		}},
	}))

	rec, _ := doJSON(t, s, http.MethodGet, "/api/v1/rows", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func newCatalog(t *testing.T, s *Server, opts UnionOptions) {
	t.Helper()
	opts.Sources = []*query.Source{
		fakeSource("s1", newFakeEngine("s1", 3)),
		fakeSource("s2", newFakeEngine("s2", 4)),
		fakeSource("s3", newFakeEngine("s3", 5)),
	}
	require.NoError(t, s.RegisterUnion("/api/v1/catalog", opts))
}

func TestUnionEndpointWindowing(t *testing.T) {
	s := quietServer(t, Options{})
	newCatalog(t, s, UnionOptions{})

	rec, env := doJSON(t, s, http.MethodGet, "/api/v1/catalog?limit=5&offset=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"s2-r1", "s2-r2", "s2-r3", "s2-r4", "s3-r1"}, ids(env.Data))
	require.NotNil(t, env.Total)
	assert.Equal(t, int64(12), *env.Total)
}

func TestUnionEndpointPriorityOverride(t *testing.T) {
	s := quietServer(t, Options{})
	newCatalog(t, s, UnionOptions{})

	rec, env := doJSON(t, s, http.MethodGet, "/api/v1/catalog?limit=5&sources=s3,s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"s3-r1", "s3-r2", "s3-r3", "s3-r4", "s3-r5"}, ids(env.Data))
}

func TestUnionEndpointPriorityOverrideInBody(t *testing.T) {
	s := quietServer(t, Options{})
	newCatalog(t, s, UnionOptions{})

	rec, env := doJSON(t, s, http.MethodPost, "/api/v1/catalog", `{"limit": 4, "sources": ["s2"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"s2-r1", "s2-r2", "s2-r3", "s2-r4"}, ids(env.Data))
}

func TestUnionEndpointUnknownSource(t *testing.T) {
	s := quietServer(t, Options{})
	newCatalog(t, s, UnionOptions{})

	rec, _ := doJSON(t, s, http.MethodGet, "/api/v1/catalog?sources=nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown_priority_source", decodeError(t, rec).Code)
}

func TestUnionEndpointMetrics(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	s := quietServer(t, Options{Metrics: metrics})
	newCatalog(t, s, UnionOptions{})

	rec, _ := doJSON(t, s, http.MethodGet, "/api/v1/catalog?limit=5&offset=3", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.UnionRequestsTotal.WithLabelValues("ok")))
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	health := observability.NewHealthChecker()
	s := quietServer(t, Options{Metrics: metrics, Health: health})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterSingleRejectsInvalidSource(t *testing.T) {
	s := quietServer(t, Options{})

	err := s.RegisterSingle("/api/v1/rows", SingleOptions{})
	assert.Error(t, err)

	// A source without a select query is a registration-time error, not a
	// request-time one.
	err = s.RegisterSingle("/api/v1/rows", SingleOptions{
		Source: &query.Source{Name: "s1", Engine: newFakeEngine("s1", 1)},
	})
	assert.ErrorContains(t, err, "s1")
}

func TestRegisterUnionRejectsDuplicateNames(t *testing.T) {
	s := quietServer(t, Options{})
	err := s.RegisterUnion("/api/v1/catalog", UnionOptions{
		Sources: []*query.Source{
			fakeSource("s1", newFakeEngine("s1", 1)),
			fakeSource("s1", newFakeEngine("s1", 1)),
		},
	})
	assert.Error(t, err)
}
