package engine

import (
	"context"
	"time"
)

// Row is a single result row keyed by column name.
type Row map[string]any

// Engine executes parameterized read-only queries against one backing store.
// Implementations own their connection lifecycle and must be safe for
// concurrent use. An engine is never responsible for another engine's rows.
type Engine interface {
	// Select runs a SELECT and returns all rows in the store's natural order.
	// It never returns partial rows: any failure surfaces as an error.
	Select(ctx context.Context, query string, params []any) ([]Row, error)

	// Count runs a COUNT-style query and returns its single integer result.
	Count(ctx context.Context, query string, params []any) (int64, error)

	// Close releases the underlying connection pool.
	Close() error
}

// Pinger is implemented by engines that can verify connectivity on demand.
// The health checker uses it; callers that only run queries can ignore it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PoolConfig holds connection pool tuning shared by all SQL engines.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// DefaultPoolConfig returns the pool settings used when none are supplied.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    20,
		MaxIdleConns:    2,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	}
}
