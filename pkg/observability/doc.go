// Package observability provides structured logging, Prometheus metrics, and
// health checks for seam services.
//
// # Structured Logging
//
// Create a logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("source", "archive").Info("source registered")
//
// # Prometheus Metrics
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	metrics.QueriesTotal.WithLabelValues("archive", "ok").Inc()
//	metrics.QueryDuration.WithLabelValues("archive").Observe(0.012)
//
// # Health Checks
//
//	checker := observability.NewHealthChecker()
//	checker.AddEngine("archive", archiveEngine)
//	status := checker.Check(ctx)
//
// # Related Packages
//
//   - pkg/interceptors: query logging interceptor
//   - pkg/api: /health and /metrics endpoints
package observability
