package engine

import (
	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// MySQLEngine executes queries against a MySQL database.
// Queries use ? placeholders.
type MySQLEngine struct {
	*sqlEngine
}

// NewMySQL opens a MySQL engine for the given DSN,
// e.g. "user:pass@tcp(localhost:3306)/catalog?parseTime=true".
func NewMySQL(dsn string) (*MySQLEngine, error) {
	return NewMySQLWithConfig(dsn, DefaultPoolConfig())
}

// NewMySQLWithConfig opens a MySQL engine with explicit pool settings.
func NewMySQLWithConfig(dsn string, cfg PoolConfig) (*MySQLEngine, error) {
	e, err := openSQL("mysql", dsn, cfg)
	if err != nil {
		return nil, err
	}
	return &MySQLEngine{sqlEngine: e}, nil
}
