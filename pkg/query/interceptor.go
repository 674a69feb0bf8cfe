package query

import "context"

// Handler executes the remainder of an interceptor chain, including the
// terminal query execution.
type Handler func(ctx context.Context, qc *QueryContext) (*Result, error)

// Interceptor wraps the terminal with pre/post behavior. It may inspect or
// mutate qc before calling next, decline to call next and return its own
// result or error, or post-process what next returned. An interceptor error
// aborts the rest of the chain immediately.
type Interceptor func(ctx context.Context, qc *QueryContext, next Handler) (*Result, error)

// Chain composes interceptors around terminal so the first interceptor in
// the list is outermost. A nil or empty list reduces to the terminal itself.
func Chain(interceptors []Interceptor, terminal Handler) Handler {
	h := terminal
	for i := len(interceptors) - 1; i >= 0; i-- {
		h = wrap(interceptors[i], h)
	}
	return h
}

func wrap(ic Interceptor, next Handler) Handler {
	return func(ctx context.Context, qc *QueryContext) (*Result, error) {
		return ic(ctx, qc, next)
	}
}

// combine concatenates global and per-source interceptor lists; globals run
// outermost.
func combine(global, local []Interceptor) []Interceptor {
	if len(global) == 0 {
		return local
	}
	if len(local) == 0 {
		return global
	}
	out := make([]Interceptor, 0, len(global)+len(local))
	out = append(out, global...)
	out = append(out, local...)
	return out
}
