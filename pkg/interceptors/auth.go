package interceptors

import (
	"context"
	"fmt"
	"net/http"

	"github.com/seamdb/seam/pkg/query"
)

// RequireValue returns an interceptor that rejects any execution whose
// contextual values are missing the named entry. It never calls the
// remainder of the chain on rejection, so the engine is not invoked.
func RequireValue(name string) query.Interceptor {
	return func(ctx context.Context, qc *query.QueryContext, next query.Handler) (*query.Result, error) {
		if v, ok := qc.Value(name); !ok || v == nil {
			return nil, query.Reject(http.StatusUnauthorized, fmt.Sprintf("missing required contextual value %q", name))
		}
		return next(ctx, qc)
	}
}

// RequireFunc returns an interceptor that rejects an execution when check
// returns a reason. The status and reason reach the transport unchanged.
func RequireFunc(status int, check func(qc *query.QueryContext) (reason string, ok bool)) query.Interceptor {
	return func(ctx context.Context, qc *query.QueryContext, next query.Handler) (*query.Result, error) {
		if reason, ok := check(qc); !ok {
			return nil, query.Reject(status, reason)
		}
		return next(ctx, qc)
	}
}
