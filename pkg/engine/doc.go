// Package engine defines the query engine capability and its SQL implementations.
//
// # Overview
//
// An Engine executes parameterized read-only queries against one backing store and
// reports rows as column-name keyed maps. One implementation exists per storage
// technology (SQLite, PostgreSQL, MySQL); all of them sit behind the same interface
// so the rest of the system never needs to know which store a source lives in.
//
// # Usage
//
//	eng, err := engine.NewSQLite("file:catalog.db?mode=ro")
//	if err != nil {
//		return err
//	}
//	defer eng.Close()
//
//	rows, err := eng.Select(ctx, "SELECT id, title FROM books LIMIT ? OFFSET ?", []any{10, 0})
//	total, err := eng.Count(ctx, "SELECT COUNT(*) FROM books", nil)
//
// # Error Classification
//
// Engines distinguish connectivity failures (store unreachable, timeout, cancelled
// context) from execution failures (bad query text, parameter mismatch) via
// ConnectivityError and ExecutionError. Callers can unwrap either to reach the
// driver's original error.
//
// # Concurrency
//
// Every engine wraps a database/sql pool and is safe for concurrent use by many
// requests. Connections are acquired per call and returned to the pool.
package engine
