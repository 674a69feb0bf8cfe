// Package interceptors provides ready-made query interceptors: structured
// logging, Prometheus metrics, contextual-value authorization, identifier
// substitution for dynamic queries, and a two-tier result cache.
//
// # Usage
//
// Interceptors attach to a source or to a whole registration:
//
//	src := &query.Source{
//		Name:        "archive",
//		Engine:      eng,
//		SelectQuery: "SELECT * FROM books LIMIT ? OFFSET ?",
//		CountQuery:  "SELECT COUNT(*) FROM books",
//		Interceptors: []query.Interceptor{
//			interceptors.Logging(logger),
//			interceptors.RequireValue("current_user"),
//		},
//	}
//
// # Caching
//
// The cache interceptor keeps an in-process LRU in front of an optional
// Redis tier and only ever caches successful results:
//
//	cache, err := interceptors.Cache(interceptors.CacheConfig{
//		Redis: redisClient,
//		TTL:   5 * time.Minute,
//	})
//
// # Related Packages
//
//   - pkg/query: the interceptor contract
//   - pkg/observability: logger and metrics used here
package interceptors
