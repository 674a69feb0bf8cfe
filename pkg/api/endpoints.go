package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/seamdb/seam/pkg/engine"
	"github.com/seamdb/seam/pkg/httputil"
	"github.com/seamdb/seam/pkg/query"
)

// fanoutValueKey carries the per-request select-leg counter through the
// union's contextual values.
const fanoutValueKey = "__union_fanout"

// Provider resolves a contextual value from the incoming request, e.g. the
// authenticated identity, before the interceptor chain runs.
type Provider struct {
	Name    string
	Resolve func(r *http.Request) (any, error)
}

// SingleOptions configures a single-source endpoint.
type SingleOptions struct {
	Source *query.Source

	// Interceptors wrap this endpoint's executions outside the source's own.
	Interceptors []query.Interceptor

	// Providers resolve contextual values per request.
	Providers []Provider

	// DefaultLimit overrides the server default for this endpoint.
	DefaultLimit int
}

// UnionOptions configures a union endpoint over several sources.
type UnionOptions struct {
	Sources []*query.Source

	// Options are passed through to union construction, e.g. a configured
	// priority order.
	Options []query.UnionOption

	// Interceptors wrap the select leg of every member source.
	Interceptors []query.Interceptor

	Providers    []Provider
	DefaultLimit int
}

// RegisterSingle binds one source to an endpoint path for GET and POST.
func (s *Server) RegisterSingle(path string, opts SingleOptions) error {
	if opts.Source == nil {
		return fmt.Errorf("endpoint %s has no source", path)
	}
	if err := opts.Source.Validate(); err != nil {
		return fmt.Errorf("failed to register endpoint %s: %w", path, err)
	}

	chainWide := append(append([]query.Interceptor{}, s.interceptors...), opts.Interceptors...)
	s.bind(path, opts.Providers, opts.DefaultLimit, func(ctx context.Context, req query.Request) (*query.Result, error) {
		return query.Execute(ctx, opts.Source, req, chainWide...)
	})
	return nil
}

// RegisterUnion binds a union of sources to an endpoint path for GET and
// POST. Registration order of the sources is the default priority order.
func (s *Server) RegisterUnion(path string, opts UnionOptions) error {
	wide := append(append([]query.Interceptor{}, s.interceptors...), opts.Interceptors...)
	wide = append(wide, countFanout())

	unionOpts := append(append([]query.UnionOption{}, opts.Options...), query.WithInterceptors(wide...))
	union, err := query.NewUnion(opts.Sources, unionOpts...)
	if err != nil {
		return fmt.Errorf("failed to register union endpoint %s: %w", path, err)
	}

	s.bind(path, opts.Providers, opts.DefaultLimit, func(ctx context.Context, req query.Request) (*query.Result, error) {
		counter := new(atomic.Int64)
		if req.Values == nil {
			req.Values = make(map[string]any)
		}
		req.Values[fanoutValueKey] = counter

		res, err := union.Execute(ctx, req)
		if s.metrics != nil {
			status := "ok"
			if err != nil {
				status = "error"
			}
			s.metrics.UnionRequestsTotal.WithLabelValues(status).Inc()
			if err == nil {
				s.metrics.UnionFanout.Observe(float64(counter.Load()))
			}
		}
		return res, err
	})
	return nil
}

// bind mounts the shared decode/resolve/execute/respond handler.
func (s *Server) bind(path string, providers []Provider, defaultLimit int, exec func(context.Context, query.Request) (*query.Result, error)) {
	if defaultLimit <= 0 {
		defaultLimit = s.defaultLimit
	}

	s.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeRequest(r, defaultLimit)
		if err != nil {
			httputil.WriteBadRequest(w, err.Error())
			return
		}

		for _, p := range providers {
			val, err := p.Resolve(r)
			if err != nil {
				var qerr *query.Error
				if errors.As(err, &qerr) {
					writeQueryError(w, qerr)
					return
				}
				httputil.WriteBadRequest(w, fmt.Sprintf("failed to resolve %s: %v", p.Name, err))
				return
			}
			if req.Values == nil {
				req.Values = make(map[string]any)
			}
			req.Values[p.Name] = val
		}

		res, err := exec(r.Context(), req)
		if err != nil {
			writeQueryError(w, err)
			return
		}
		if res.Rows == nil {
			res.Rows = []engine.Row{}
		}
		httputil.WriteSuccess(w, res)
	}).Methods(http.MethodGet, http.MethodPost)
}

// countFanout counts the select legs actually executed for one union
// request. Count legs never see union-wide interceptors, so each invocation
// is one source queried for rows.
func countFanout() query.Interceptor {
	return func(ctx context.Context, qc *query.QueryContext, next query.Handler) (*query.Result, error) {
		if counter, ok := qc.Value(fanoutValueKey); ok {
			if c, ok := counter.(*atomic.Int64); ok {
				c.Add(1)
			}
		}
		return next(ctx, qc)
	}
}
