package interceptors

import (
	"context"
	"time"

	"github.com/seamdb/seam/pkg/observability"
	"github.com/seamdb/seam/pkg/query"
)

// Logging returns an interceptor that logs every execution with its source,
// window, duration, and row count.
func Logging(logger *observability.Logger) query.Interceptor {
	return func(ctx context.Context, qc *query.QueryContext, next query.Handler) (*query.Result, error) {
		start := time.Now()
		res, err := next(ctx, qc)

		entry := logger.WithFields(map[string]any{
			"source":      qc.Source,
			"limit":       qc.Limit,
			"offset":      qc.Offset,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if err != nil {
			entry.WithError(err).Error("query failed")
			return nil, err
		}

		entry.WithField("rows", len(res.Rows)).Debug("query executed")
		return res, nil
	}
}

// Metrics returns an interceptor recording per-source query counters and
// durations.
func Metrics(m *observability.Metrics) query.Interceptor {
	return func(ctx context.Context, qc *query.QueryContext, next query.Handler) (*query.Result, error) {
		start := time.Now()
		res, err := next(ctx, qc)
		m.ObserveQuery(qc.Source, err, time.Since(start))
		if err != nil {
			m.QueryErrors.WithLabelValues(qc.Source, string(query.AsError(err).Kind)).Inc()
		}
		return res, err
	}
}
