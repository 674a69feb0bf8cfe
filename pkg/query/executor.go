package query

import (
	"context"

	"github.com/seamdb/seam/pkg/engine"
)

// Request is the uniform input every registered handler accepts. The
// transport layer decodes it from the wire and resolves Values before the
// core is invoked.
type Request struct {
	// Filters is handed opaquely to query/param functions and interceptors.
	Filters any

	// Limit and Offset are the global pagination window. Both must be >= 0.
	Limit  int
	Offset int

	// Priority is the request-time priority override for union requests:
	// source names in the order the caller wants them consulted. Unlisted
	// sources follow in registration order. Ignored by single-source
	// execution.
	Priority []string

	// Values are externally resolved contextual values (authenticated
	// identity, request id, ...) placed into the QueryContext before the
	// chain begins.
	Values map[string]any
}

func (r Request) validate() *Error {
	if r.Limit < 0 {
		return &Error{Kind: KindInvalidPagination, Message: "limit must not be negative"}
	}
	if r.Offset < 0 {
		return &Error{Kind: KindInvalidPagination, Message: "offset must not be negative"}
	}
	return nil
}

// Execute runs one source's query under its interceptor chain: it resolves
// the select (and, when configured, count) text and parameters, builds the
// QueryContext, and runs the chain whose terminal invokes the engine and
// maps rows. Chain-wide interceptors run outside the source's own.
func Execute(ctx context.Context, src *Source, req Request, chainWide ...Interceptor) (*Result, error) {
	if err := src.Validate(); err != nil {
		return nil, newError(KindQueryExecution, err, "invalid source configuration: %v", err)
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	qc, err := src.buildContext(req, req.Limit, req.Offset, true)
	if err != nil {
		return nil, err
	}

	handler := Chain(combine(chainWide, src.Interceptors), src.terminal())
	res, err := handler(ctx, qc)
	if err != nil {
		return nil, AsError(err)
	}
	return res, nil
}

// executeWindow runs the select-only leg of a union request against one
// source with its computed fetch window. The count leg has already run.
func executeWindow(ctx context.Context, src *Source, req Request, limit, offset int, chainWide []Interceptor) (*Result, error) {
	qc, err := src.buildContext(req, limit, offset, false)
	if err != nil {
		return nil, err
	}

	handler := Chain(combine(chainWide, src.Interceptors), src.terminal())
	res, err := handler(ctx, qc)
	if err != nil {
		return nil, AsError(err)
	}
	return res, nil
}

// executeCount runs the count-only leg of a union request against one
// source. Only the source's own interceptors wrap it.
func executeCount(ctx context.Context, src *Source, req Request) (int64, error) {
	countQuery, err := src.resolveCountQuery(req.Filters)
	if err != nil {
		return 0, err
	}

	qc := &QueryContext{
		Source:      src.Name,
		CountQuery:  countQuery,
		CountParams: src.countParams(req.Filters),
		Filters:     req.Filters,
		Values:      copyValues(req.Values),
	}

	handler := Chain(src.Interceptors, src.terminal())
	res, err := handler(ctx, qc)
	if err != nil {
		return 0, AsError(err)
	}
	if res.Total == nil {
		return 0, &Error{Kind: KindQueryExecution, Message: "count query returned no total for source " + src.Name}
	}
	return *res.Total, nil
}

// buildContext resolves query text and parameters into a fresh QueryContext
// for one execution. withCount controls whether the count leg is included.
func (s *Source) buildContext(req Request, limit, offset int, withCount bool) (*QueryContext, error) {
	selectQuery, err := s.resolveSelectQuery(req.Filters)
	if err != nil {
		return nil, err
	}

	qc := &QueryContext{
		Source:       s.Name,
		SelectQuery:  selectQuery,
		SelectParams: s.selectParams(req.Filters, limit, offset),
		Filters:      req.Filters,
		Limit:        limit,
		Offset:       offset,
		Values:       copyValues(req.Values),
	}

	if withCount && s.hasCount() {
		countQuery, err := s.resolveCountQuery(req.Filters)
		if err != nil {
			return nil, err
		}
		qc.CountQuery = countQuery
		qc.CountParams = s.countParams(req.Filters)
	}

	return qc, nil
}

// terminal returns the chain's final handler: it invokes the engine for
// whichever legs the QueryContext carries and maps raw rows into the
// declared output shape.
func (s *Source) terminal() Handler {
	return func(ctx context.Context, qc *QueryContext) (*Result, error) {
		res := &Result{Rows: []engine.Row{}}

		if qc.SelectQuery != "" {
			rows, err := s.Engine.Select(ctx, qc.SelectQuery, qc.SelectParams)
			if err != nil {
				return nil, AsError(err)
			}
			mapped, err := s.mapRows(rows)
			if err != nil {
				return nil, err
			}
			res.Rows = mapped
		}

		if qc.CountQuery != "" {
			total, err := s.Engine.Count(ctx, qc.CountQuery, qc.CountParams)
			if err != nil {
				return nil, AsError(err)
			}
			res.Total = &total
		}

		return res, nil
	}
}

// copyValues gives each execution its own contextual-value map so that a
// derived entry added for one union member never leaks into a concurrently
// executing sibling.
func copyValues(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}

func (s *Source) mapRows(rows []engine.Row) ([]engine.Row, error) {
	if s.Mapper == nil {
		return rows, nil
	}
	mapped := make([]engine.Row, 0, len(rows))
	for _, row := range rows {
		m, err := s.Mapper(row)
		if err != nil {
			// A strict mapping failure fails the whole contribution; dropping
			// the row would corrupt pagination accounting.
			return nil, newError(KindRowMapping, err, "source %q: %v", s.Name, err)
		}
		mapped = append(mapped, m)
	}
	return mapped, nil
}
