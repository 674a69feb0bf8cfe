package engine

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
)

// ConnectivityError reports that the backing store could not be reached, or
// that the call timed out or was cancelled before a result was known.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("engine connectivity: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// ExecutionError reports that the store rejected the query itself: malformed
// text, a parameter count mismatch, or a reference to a missing relation.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// classify wraps a driver error into one of the two failure kinds. Transport
// level failures become ConnectivityError; everything the driver reported over
// a live connection becomes ExecutionError.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var alreadyConn *ConnectivityError
	var alreadyExec *ExecutionError
	if errors.As(err, &alreadyConn) || errors.As(err, &alreadyExec) {
		return err
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, io.EOF),
		errors.As(err, &netErr):
		return &ConnectivityError{Err: err}
	default:
		return &ExecutionError{Err: err}
	}
}
