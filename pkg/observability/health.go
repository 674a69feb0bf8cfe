package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/seamdb/seam/pkg/engine"
)

// HealthChecker verifies connectivity to every registered engine and, when
// caching is enabled, to Redis.
type HealthChecker struct {
	mu      sync.RWMutex
	engines map[string]engine.Pinger
	redis   *redis.Client
	timeout time.Duration
}

// HealthStatus is the aggregate health report.
type HealthStatus struct {
	Healthy bool              `json:"healthy"`
	Checks  map[string]string `json:"checks"`
}

// NewHealthChecker creates an empty health checker.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		engines: make(map[string]engine.Pinger),
		timeout: 5 * time.Second,
	}
}

// AddEngine registers an engine for health checking under a name. Engines
// that do not implement engine.Pinger are ignored.
func (h *HealthChecker) AddEngine(name string, eng engine.Engine) {
	pinger, ok := eng.(engine.Pinger)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.engines[name] = pinger
}

// SetRedis registers a Redis client for health checking.
func (h *HealthChecker) SetRedis(client *redis.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.redis = client
}

// Check pings every registered dependency and reports per-check status.
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	h.mu.RLock()
	defer h.mu.RUnlock()

	status := HealthStatus{
		Healthy: true,
		Checks:  make(map[string]string),
	}

	for name, pinger := range h.engines {
		if err := pinger.Ping(ctx); err != nil {
			status.Healthy = false
			status.Checks["engine:"+name] = err.Error()
		} else {
			status.Checks["engine:"+name] = "ok"
		}
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			status.Healthy = false
			status.Checks["redis"] = err.Error()
		} else {
			status.Checks["redis"] = "ok"
		}
	}

	return status
}

// Handler returns an HTTP handler serving the health report as JSON. It
// responds 503 when any dependency is unhealthy.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := h.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if !status.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(status)
	})
}
