package engine

import (
	"context"
	"database/sql"
	"fmt"
)

// sqlEngine implements Engine on top of a database/sql pool. The concrete
// engine types only differ in how they open and tune that pool.
type sqlEngine struct {
	db *sql.DB
}

// openSQL opens a pool for the named driver, applies pool settings, and
// verifies connectivity with a bounded ping.
func openSQL(driverName, dsn string, cfg PoolConfig) (*sqlEngine, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driverName, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &ConnectivityError{Err: fmt.Errorf("failed to ping %s: %w", driverName, err)}
	}

	return &sqlEngine{db: db}, nil
}

func (e *sqlEngine) Select(ctx context.Context, query string, params []any) ([]Row, error) {
	rows, err := e.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, classify(err)
	}

	out := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, classify(err)
		}

		row := make(Row, len(columns))
		for i, name := range columns {
			row[name] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	return out, nil
}

func (e *sqlEngine) Count(ctx context.Context, query string, params []any) (int64, error) {
	var total int64
	if err := e.db.QueryRowContext(ctx, query, params...).Scan(&total); err != nil {
		return 0, classify(err)
	}
	return total, nil
}

func (e *sqlEngine) Ping(ctx context.Context) error {
	if err := e.db.PingContext(ctx); err != nil {
		return &ConnectivityError{Err: err}
	}
	return nil
}

func (e *sqlEngine) Close() error {
	return e.db.Close()
}

// DB exposes the underlying pool for health checks and pool stats.
func (e *sqlEngine) DB() *sql.DB {
	return e.db
}

// normalizeValue makes driver-specific scan results JSON-friendly. Text
// columns arrive as []byte from several drivers; everything else passes
// through unchanged.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
