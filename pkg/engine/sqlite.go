package engine

import (
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteEngine executes queries against a SQLite database file or an
// in-memory database.
type SQLiteEngine struct {
	*sqlEngine
}

// NewSQLite opens a SQLite engine for the given DSN, e.g. "catalog.db",
// ":memory:", or a file: URI with options.
func NewSQLite(dsn string) (*SQLiteEngine, error) {
	return NewSQLiteWithConfig(dsn, DefaultPoolConfig())
}

// NewSQLiteWithConfig opens a SQLite engine with explicit pool settings.
// In-memory databases are limited to a single connection so that every call
// sees the same database.
func NewSQLiteWithConfig(dsn string, cfg PoolConfig) (*SQLiteEngine, error) {
	if isMemoryDSN(dsn) {
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
	}
	e, err := openSQL("sqlite3", dsn, cfg)
	if err != nil {
		return nil, err
	}
	return &SQLiteEngine{sqlEngine: e}, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}
