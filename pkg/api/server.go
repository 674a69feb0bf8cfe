package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/seamdb/seam/pkg/httputil"
	"github.com/seamdb/seam/pkg/observability"
	"github.com/seamdb/seam/pkg/query"
)

const defaultRequestLimit = 100

// Options configures a Server. Zero values get sensible defaults; Metrics
// and Health are optional and their endpoints are only mounted when set.
type Options struct {
	Logger  *observability.Logger
	Metrics *observability.Metrics
	Health  *observability.HealthChecker

	// DefaultLimit applies when a request carries no limit. Defaults to 100.
	DefaultLimit int

	// Interceptors run on every registered endpoint, outside per-endpoint and
	// per-source interceptors.
	Interceptors []query.Interceptor

	// Middleware is mounted after the built-in request ID, logging, metrics
	// and recovery middleware, e.g. authentication.
	Middleware []func(http.Handler) http.Handler
}

// Server is the HTTP API server
type Server struct {
	router       *mux.Router
	logger       *observability.Logger
	metrics      *observability.Metrics
	defaultLimit int
	interceptors []query.Interceptor
}

// NewServer creates a new API server and mounts the operational endpoints.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	defaultLimit := opts.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = defaultRequestLimit
	}

	s := &Server{
		router:       mux.NewRouter(),
		logger:       logger,
		metrics:      opts.Metrics,
		defaultLimit: defaultLimit,
		interceptors: opts.Interceptors,
	}

	s.router.Use(httputil.RequestIDMiddleware)
	s.router.Use(httputil.LoggingMiddleware(logger))
	if opts.Metrics != nil {
		s.router.Use(httputil.MetricsMiddleware(opts.Metrics))
	}
	s.router.Use(httputil.RecoveryMiddleware(logger))
	for _, mw := range opts.Middleware {
		s.router.Use(mux.MiddlewareFunc(mw))
	}

	if opts.Health != nil {
		s.router.Handle("/health", opts.Health.Handler()).Methods(http.MethodGet)
	}
	if opts.Metrics != nil {
		s.router.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)
	}

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the underlying router for additional mounts.
func (s *Server) Router() *mux.Router {
	return s.router
}
