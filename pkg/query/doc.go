// Package query is the core of seam: it turns registered sources into
// paginated, filterable result sets behind a uniform request contract.
//
// # Overview
//
// A Source pairs an engine.Engine with a SELECT template (and optionally a
// COUNT template). Execute runs one source under its interceptor chain and
// returns a Result. A Union presents several sources as a single logically
// paginated sequence ordered by priority, fetching only the rows each source
// must contribute to the requested window.
//
// # Interceptors
//
// Interceptors wrap the query-execution terminal with pre/post behavior:
//
//	logAndRun := func(ctx context.Context, qc *query.QueryContext, next query.Handler) (*query.Result, error) {
//		res, err := next(ctx, qc)
//		if err == nil {
//			log.Printf("%s returned %d rows", qc.SelectQuery, len(res.Rows))
//		}
//		return res, err
//	}
//
// Chains compose right-to-left so the first interceptor in a list is
// outermost: enter order is declared order, exit order is the reverse. An
// interceptor may mutate the QueryContext, short-circuit without calling
// next, or post-process the result.
//
// # Errors
//
// Every failure surfaces as an *Error with a stable machine-readable Kind so
// the transport layer can pick a status code. Partial results are never
// returned: one failing source fails the whole union.
//
// # Related Packages
//
//   - pkg/engine: query engine implementations
//   - pkg/interceptors: ready-made logging/auth/cache/rewrite interceptors
//   - pkg/api: HTTP transport binding sources to routes
package query
