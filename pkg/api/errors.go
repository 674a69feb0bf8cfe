package api

import (
	"net/http"

	"github.com/seamdb/seam/pkg/httputil"
	"github.com/seamdb/seam/pkg/query"
)

// statusFor maps a structured query failure to an HTTP status. A rejecting
// interceptor's own status wins; every other kind has a fixed mapping.
func statusFor(err *query.Error) int {
	if err.Kind == query.KindInterceptorRejected && err.Status != 0 {
		return err.Status
	}

	switch err.Kind {
	case query.KindEngineConnectivity:
		return http.StatusBadGateway
	case query.KindQueryExecution, query.KindRowMapping:
		return http.StatusInternalServerError
	case query.KindInvalidPagination, query.KindUnknownPrioritySource:
		return http.StatusBadRequest
	case query.KindInterceptorRejected:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeQueryError renders a query failure as the standard error envelope,
// carrying the stable kind as the machine code.
func writeQueryError(w http.ResponseWriter, err error) {
	qerr := query.AsError(err)
	message := qerr.Message
	if message == "" {
		message = string(qerr.Kind)
	}
	httputil.WriteErrorCode(w, statusFor(qerr), string(qerr.Kind), message)
}
