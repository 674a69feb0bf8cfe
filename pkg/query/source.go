package query

import (
	"fmt"

	"github.com/seamdb/seam/pkg/engine"
)

// QueryFunc derives query text from the request's filters. Implementations
// must be deterministic and side-effect free, and must never interpolate
// parameter values into the text: values always travel through the engine's
// bound parameter mechanism, only the query shape may vary.
type QueryFunc func(filters any) (string, error)

// ParamsFunc computes the SELECT bind parameters for a request. The window
// passed in is the window the engine should apply, which for a union member
// is the per-source fetch window.
type ParamsFunc func(filters any, limit, offset int) []any

// CountParamsFunc computes the COUNT bind parameters for a request. Counts
// are independent of the pagination window.
type CountParamsFunc func(filters any) []any

// RowMapper converts a raw engine row into the declared output shape. A
// non-nil error fails the source's whole contribution; rows are never
// silently dropped because that would corrupt pagination accounting.
type RowMapper func(row engine.Row) (engine.Row, error)

// Source is one registered (engine, query template) pair. Sources are
// configured once and immutable afterwards; requests read them but never
// mutate them.
type Source struct {
	// Name identifies the source within a union. Required.
	Name string

	// Engine runs this source's queries. Required. The same engine value may
	// back any number of sources.
	Engine engine.Engine

	// SelectQuery is the SELECT template used verbatim. Exactly one of
	// SelectQuery and SelectQueryFunc must be set.
	SelectQuery string

	// SelectQueryFunc builds the SELECT text from filters (dynamic query
	// construction).
	SelectQueryFunc QueryFunc

	// SelectParams computes bind parameters. When nil the template is
	// assumed to end in LIMIT/OFFSET placeholders and receives [limit,
	// offset].
	SelectParams ParamsFunc

	// CountQuery is the COUNT template. When both CountQuery and
	// CountQueryFunc are absent no total is computed for this source.
	CountQuery     string
	CountQueryFunc QueryFunc
	CountParams    CountParamsFunc

	// Interceptors wrap every execution against this source, inside any
	// chain-wide interceptors.
	Interceptors []Interceptor

	// Mapper converts raw rows into the declared output shape.
	Mapper RowMapper
}

// Validate checks the source's configuration. It is called at registration
// time; a source that fails it never serves a request.
func (s *Source) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("source has no name")
	}
	if s.Engine == nil {
		return fmt.Errorf("source %q has no engine", s.Name)
	}
	if s.SelectQuery == "" && s.SelectQueryFunc == nil {
		return fmt.Errorf("source %q has neither a select query nor a select query func", s.Name)
	}
	if s.SelectQuery != "" && s.SelectQueryFunc != nil {
		return fmt.Errorf("source %q has both a select query and a select query func", s.Name)
	}
	return nil
}

// hasCount reports whether a total can be computed for this source.
func (s *Source) hasCount() bool {
	return s.CountQuery != "" || s.CountQueryFunc != nil
}

func (s *Source) resolveSelectQuery(filters any) (string, error) {
	if s.SelectQueryFunc != nil {
		text, err := s.SelectQueryFunc(filters)
		if err != nil {
			return "", newError(KindQueryExecution, err, "source %q: failed to build select query: %v", s.Name, err)
		}
		return text, nil
	}
	return s.SelectQuery, nil
}

func (s *Source) resolveCountQuery(filters any) (string, error) {
	if s.CountQueryFunc != nil {
		text, err := s.CountQueryFunc(filters)
		if err != nil {
			return "", newError(KindQueryExecution, err, "source %q: failed to build count query: %v", s.Name, err)
		}
		return text, nil
	}
	return s.CountQuery, nil
}

func (s *Source) selectParams(filters any, limit, offset int) []any {
	if s.SelectParams != nil {
		return s.SelectParams(filters, limit, offset)
	}
	return []any{limit, offset}
}

func (s *Source) countParams(filters any) []any {
	if s.CountParams != nil {
		return s.CountParams(filters)
	}
	return nil
}
