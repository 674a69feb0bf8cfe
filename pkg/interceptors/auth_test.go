package interceptors

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seamdb/seam/pkg/query"
)

func terminalCounter(calls *int) query.Handler {
	return func(ctx context.Context, qc *query.QueryContext) (*query.Result, error) {
		*calls++
		return &query.Result{}, nil
	}
}

func TestRequireValueRejectsMissing(t *testing.T) {
	var calls int
	handler := query.Chain([]query.Interceptor{RequireValue("current_user")}, terminalCounter(&calls))

	_, err := handler(context.Background(), &query.QueryContext{})
	var qerr *query.Error
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, query.KindInterceptorRejected, qerr.Kind)
	assert.Equal(t, http.StatusUnauthorized, qerr.Status)
	assert.Zero(t, calls)
}

func TestRequireValuePassesThrough(t *testing.T) {
	var calls int
	handler := query.Chain([]query.Interceptor{RequireValue("current_user")}, terminalCounter(&calls))

	qc := &query.QueryContext{Values: map[string]any{"current_user": "alice"}}
	_, err := handler(context.Background(), qc)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRequireFuncCarriesStatusAndReason(t *testing.T) {
	ic := RequireFunc(http.StatusForbidden, func(qc *query.QueryContext) (string, bool) {
		return "tenant mismatch", false
	})

	var calls int
	_, err := query.Chain([]query.Interceptor{ic}, terminalCounter(&calls))(context.Background(), &query.QueryContext{})

	var qerr *query.Error
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, http.StatusForbidden, qerr.Status)
	assert.Equal(t, "tenant mismatch", qerr.Message)
	assert.Zero(t, calls)
}
