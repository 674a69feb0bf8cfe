package query

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/seamdb/seam/pkg/engine"
)

// Kind is a stable machine-readable failure code. The transport layer maps
// each kind to a wire status; new kinds must never change existing values.
type Kind string

const (
	// KindEngineConnectivity: a source's store was unreachable or timed out.
	KindEngineConnectivity Kind = "engine_connectivity"
	// KindQueryExecution: the store rejected the query (syntax, parameters).
	KindQueryExecution Kind = "query_execution"
	// KindRowMapping: a returned row violated the declared output shape.
	KindRowMapping Kind = "row_mapping"
	// KindInterceptorRejected: an interceptor deliberately short-circuited.
	KindInterceptorRejected Kind = "interceptor_rejected"
	// KindInvalidPagination: negative limit or offset.
	KindInvalidPagination Kind = "invalid_pagination"
	// KindUnknownPrioritySource: a priority override referenced an
	// unregistered source identity.
	KindUnknownPrioritySource Kind = "unknown_priority_source"
)

// Error is the structured failure every handler returns instead of a
// malformed Result.
type Error struct {
	Kind    Kind
	Message string
	// Status is the transport status a rejecting interceptor asked for. It
	// is carried through unchanged; zero means "let the transport decide".
	Status int
	cause  error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.cause }

// newError builds an Error wrapping a cause.
func newError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		cause:   cause,
	}
}

// Reject builds the error an interceptor returns to short-circuit the chain
// deliberately, e.g. an authorization failure. Status and reason reach the
// transport layer unchanged.
func Reject(status int, reason string) *Error {
	if status == 0 {
		status = http.StatusForbidden
	}
	return &Error{
		Kind:    KindInterceptorRejected,
		Message: reason,
		Status:  status,
	}
}

// AsError coerces any failure escaping an execution into a structured
// *Error. Engine failures keep their classification; everything else is
// treated as a query execution failure.
func AsError(err error) *Error {
	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}

	var connErr *engine.ConnectivityError
	if errors.As(err, &connErr) {
		return newError(KindEngineConnectivity, err, "%v", connErr.Err)
	}
	var execErr *engine.ExecutionError
	if errors.As(err, &execErr) {
		return newError(KindQueryExecution, err, "%v", execErr.Err)
	}

	return newError(KindQueryExecution, err, "%v", err)
}
