package query

import "github.com/seamdb/seam/pkg/engine"

// QueryContext carries one request's resolved query state through the
// interceptor chain. It is owned by exactly one execution, never shared
// across requests, and mutable only by interceptors during that execution.
type QueryContext struct {
	// Source is the name of the source this execution runs against.
	Source string

	// SelectQuery and SelectParams are what the terminal hands to
	// Engine.Select. Parameters always travel through the engine's bound
	// parameter mechanism, never interpolated into the text.
	SelectQuery  string
	SelectParams []any

	// CountQuery is empty when no count is computed; the result's total is
	// then reported as unknown, not zero.
	CountQuery  string
	CountParams []any

	// Filters is the opaque filter value supplied by the transport layer.
	Filters any

	// Limit and Offset are the pagination window for this execution. For a
	// union member they are the per-source fetch window, not the global one.
	Limit  int
	Offset int

	// Values holds contextual values resolved outside the core before the
	// chain began (authenticated identity, request id, ...). Interceptors
	// read them and may add derived entries for interceptors further down.
	Values map[string]any
}

// Value returns a contextual value by name.
func (qc *QueryContext) Value(name string) (any, bool) {
	v, ok := qc.Values[name]
	return v, ok
}

// SetValue adds a derived contextual value for the rest of the chain.
func (qc *QueryContext) SetValue(name string, v any) {
	if qc.Values == nil {
		qc.Values = make(map[string]any)
	}
	qc.Values[name] = v
}

// Result is the outcome of one execution: mapped rows plus the count query's
// total. Total is nil when no count query was configured.
type Result struct {
	Rows  []engine.Row `json:"data"`
	Total *int64       `json:"total"`
}
