package interceptors

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/seamdb/seam/pkg/query"
)

// identifierPattern accepts plain or dot-qualified SQL identifiers. Anything
// else is rejected before it can reach query text.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// SubstituteIdentifier returns an interceptor that replaces placeholder in
// the select and count query text with an identifier derived from the
// request's filters. The derived value must be a valid identifier; empty or
// malformed values fail the request instead of producing an unsafe query.
// Only the query shape may vary this way: parameter values still travel
// through bind parameters.
func SubstituteIdentifier(placeholder string, resolve func(filters any) (string, error)) query.Interceptor {
	return func(ctx context.Context, qc *query.QueryContext, next query.Handler) (*query.Result, error) {
		ident, err := resolve(qc.Filters)
		if err != nil {
			return nil, query.Reject(http.StatusBadRequest, err.Error())
		}
		ident = strings.TrimSpace(ident)
		if !identifierPattern.MatchString(ident) {
			return nil, query.Reject(http.StatusBadRequest, fmt.Sprintf("invalid identifier %q for %s", ident, placeholder))
		}

		qc.SelectQuery = strings.ReplaceAll(qc.SelectQuery, placeholder, ident)
		if qc.CountQuery != "" {
			qc.CountQuery = strings.ReplaceAll(qc.CountQuery, placeholder, ident)
		}
		return next(ctx, qc)
	}
}
