package interceptors

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/seamdb/seam/pkg/observability"
	"github.com/seamdb/seam/pkg/query"
)

// CacheConfig configures the result cache interceptor.
type CacheConfig struct {
	// Redis is the shared cache tier. Optional; without it only the
	// in-process LRU is used.
	Redis *redis.Client

	// TTL bounds how long a Redis entry lives. Defaults to 5 minutes.
	TTL time.Duration

	// L1Size is the in-process LRU entry count. Defaults to 1024.
	L1Size int

	// Metrics records hit/miss counters when set.
	Metrics *observability.Metrics
}

// Cache returns an interceptor serving repeated executions from a two-tier
// cache: an in-process LRU in front of an optional Redis tier. Only
// successful results are cached; a Redis outage degrades to cache misses
// rather than failing the query. Rows served from cache carry JSON types
// (numbers decode as float64).
func Cache(cfg CacheConfig) (query.Interceptor, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.L1Size <= 0 {
		cfg.L1Size = 1024
	}

	l1, err := lru.New[string, []byte](cfg.L1Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create l1 cache: %w", err)
	}

	hit := func(tier string) {
		if cfg.Metrics != nil {
			cfg.Metrics.CacheHitsTotal.WithLabelValues(tier).Inc()
		}
	}
	miss := func(tier string) {
		if cfg.Metrics != nil {
			cfg.Metrics.CacheMissesTotal.WithLabelValues(tier).Inc()
		}
	}

	return func(ctx context.Context, qc *query.QueryContext, next query.Handler) (*query.Result, error) {
		key := cacheKey(qc)

		if data, ok := l1.Get(key); ok {
			if res := decodeResult(data); res != nil {
				hit("l1")
				return res, nil
			}
			l1.Remove(key)
		}
		miss("l1")

		if cfg.Redis != nil {
			data, err := cfg.Redis.Get(ctx, key).Bytes()
			if err == nil {
				if res := decodeResult(data); res != nil {
					hit("redis")
					l1.Add(key, data)
					return res, nil
				}
				// Corrupt entry: drop it and fall through to the source.
				cfg.Redis.Del(ctx, key)
			}
			miss("redis")
		}

		res, err := next(ctx, qc)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(res); err == nil {
			l1.Add(key, data)
			if cfg.Redis != nil {
				cfg.Redis.Set(ctx, key, data, cfg.TTL)
			}
		}
		return res, nil
	}, nil
}

// cacheKey derives a stable key from everything that determines a result:
// the source identity, the resolved query texts, their bind parameters, and
// the window. The source matters even with identical text and params, since
// union members may share one template over different engines.
func cacheKey(qc *query.QueryContext) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%v\x00%s\x00%v\x00%d\x00%d",
		qc.Source, qc.SelectQuery, qc.SelectParams, qc.CountQuery, qc.CountParams, qc.Limit, qc.Offset)
	return "seam:result:" + hex.EncodeToString(h.Sum(nil))
}

func decodeResult(data []byte) *query.Result {
	var res query.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil
	}
	return &res
}
