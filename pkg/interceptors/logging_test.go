package interceptors

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seamdb/seam/pkg/observability"
	"github.com/seamdb/seam/pkg/query"
)

func TestLoggingRecordsSuccess(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.DebugLevel, &buf)

	var calls int
	handler := query.Chain([]query.Interceptor{Logging(logger)}, terminalCounter(&calls))

	qc := &query.QueryContext{Source: "archive", Limit: 5, Offset: 3}
	_, err := handler(context.Background(), qc)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "query executed", entry["msg"])
	assert.Equal(t, "archive", entry["source"])
	assert.Equal(t, float64(5), entry["limit"])
	assert.Equal(t, float64(3), entry["offset"])
}

func TestLoggingRecordsFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.DebugLevel, &buf)

	failing := func(ctx context.Context, qc *query.QueryContext) (*query.Result, error) {
		return nil, &query.Error{Kind: query.KindQueryExecution, Message: "syntax error"}
	}
	handler := query.Chain([]query.Interceptor{Logging(logger)}, failing)

	_, err := handler(context.Background(), &query.QueryContext{Source: "archive"})
	require.Error(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "query failed", entry["msg"])
	assert.Contains(t, entry["error"], "syntax error")
}

func TestMetricsCountsQueries(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())

	var calls int
	handler := query.Chain([]query.Interceptor{Metrics(m)}, terminalCounter(&calls))

	qc := &query.QueryContext{Source: "archive"}
	_, err := handler(context.Background(), qc)
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.QueriesTotal.WithLabelValues("archive", "ok")))
}

func TestMetricsCountsErrorKinds(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())

	failing := func(ctx context.Context, qc *query.QueryContext) (*query.Result, error) {
		return nil, &query.Error{Kind: query.KindEngineConnectivity, Message: "down"}
	}
	handler := query.Chain([]query.Interceptor{Metrics(m)}, failing)

	_, err := handler(context.Background(), &query.QueryContext{Source: "archive"})
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.QueriesTotal.WithLabelValues("archive", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.QueryErrors.WithLabelValues("archive", "engine_connectivity")))
}
