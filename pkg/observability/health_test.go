package observability

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seamdb/seam/pkg/engine"
)

type fakePingEngine struct {
	err error
}

func (f *fakePingEngine) Select(ctx context.Context, query string, params []any) ([]engine.Row, error) {
	return nil, nil
}

func (f *fakePingEngine) Count(ctx context.Context, query string, params []any) (int64, error) {
	return 0, nil
}

func (f *fakePingEngine) Close() error { return nil }

func (f *fakePingEngine) Ping(ctx context.Context) error { return f.err }

func TestHealthCheckerAllHealthy(t *testing.T) {
	checker := NewHealthChecker()
	checker.AddEngine("archive", &fakePingEngine{})

	status := checker.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, "ok", status.Checks["engine:archive"])
}

func TestHealthCheckerUnhealthyEngine(t *testing.T) {
	checker := NewHealthChecker()
	checker.AddEngine("archive", &fakePingEngine{})
	checker.AddEngine("recent", &fakePingEngine{err: context.DeadlineExceeded})

	status := checker.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.Equal(t, "ok", status.Checks["engine:archive"])
	assert.NotEqual(t, "ok", status.Checks["engine:recent"])
}

func TestHealthCheckerRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	checker := NewHealthChecker()
	checker.SetRedis(client)

	status := checker.Check(context.Background())
	require.True(t, status.Healthy)
	assert.Equal(t, "ok", status.Checks["redis"])
}

func TestHealthHandlerStatusCodes(t *testing.T) {
	checker := NewHealthChecker()
	checker.AddEngine("archive", &fakePingEngine{})

	rec := httptest.NewRecorder()
	checker.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, 200, rec.Code)

	checker.AddEngine("down", &fakePingEngine{err: context.DeadlineExceeded})
	rec = httptest.NewRecorder()
	checker.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, 503, rec.Code)
}
