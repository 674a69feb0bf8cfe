// Command seam-server runs a demo catalog API: two seeded in-memory SQLite
// sources exposed as a single "books" endpoint, a priority-ordered union
// endpoint over both, and a free-table query endpoint, with optional
// Postgres and MySQL sources attached from the environment.
package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/seamdb/seam/pkg/api"
	"github.com/seamdb/seam/pkg/config"
	"github.com/seamdb/seam/pkg/engine"
	"github.com/seamdb/seam/pkg/interceptors"
	"github.com/seamdb/seam/pkg/middleware"
	"github.com/seamdb/seam/pkg/observability"
	"github.com/seamdb/seam/pkg/query"
)

type book struct {
	id     int
	title  string
	author string
	year   int
}

// The archive source holds older titles, the recent source newer ones, so
// the union endpoint has a meaningful priority order to demonstrate.
var (
	archiveBooks = []book{
		{1, "Pride and Prejudice", "Jane Austen", 1813},
		{2, "The Great Gatsby", "F. Scott Fitzgerald", 1925},
		{3, "1984", "George Orwell", 1949},
	}
	recentBooks = []book{
		{4, "The Catcher in the Rye", "J.D. Salinger", 1951},
		{5, "To Kill a Mockingbird", "Harper Lee", 1960},
	}
)

func main() {
	addr := flag.String("addr", "", "Listen address, overrides SEAM_HOST/SEAM_PORT")
	flag.Parse()

	log := logrus.New()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	listenAddr := cfg.Addr()
	if *addr != "" {
		listenAddr = *addr
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(nil)
	}
	health := observability.NewHealthChecker()

	archive, err := seedSQLite("file:archive?mode=memory&cache=shared", archiveBooks)
	if err != nil {
		log.Fatalf("Failed to seed archive source: %v", err)
	}
	defer archive.Close()
	recent, err := seedSQLite("file:recent?mode=memory&cache=shared", recentBooks)
	if err != nil {
		log.Fatalf("Failed to seed recent source: %v", err)
	}
	defer recent.Close()
	health.AddEngine("archive", archive)
	health.AddEngine("recent", recent)

	var redisClient *redis.Client
	if cfg.Cache.Enabled && cfg.Cache.RedisURL != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisURL,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		defer redisClient.Close()
		health.SetRedis(redisClient)
	}

	serverOpts := api.Options{
		Logger:       logger,
		Metrics:      metrics,
		Health:       health,
		DefaultLimit: cfg.DefaultLimit,
		Interceptors: serverInterceptors(logger, metrics),
	}
	if cfg.APIToken != "" {
		serverOpts.Middleware = append(serverOpts.Middleware, apiAuth(cfg.APIToken))
		log.Info("API token authentication enabled")
	}
	server := api.NewServer(serverOpts)

	catalogSources := []*query.Source{
		booksSource("archive", archive),
		booksSource("recent", recent),
	}
	catalogSources, closers, err := attachExternalSources(cfg, health, catalogSources, log)
	if err != nil {
		log.Fatalf("Failed to attach external sources: %v", err)
	}
	for _, c := range closers {
		defer c.Close()
	}

	if err := server.RegisterSingle("/api/v1/books", api.SingleOptions{
		Source: booksSource("books", archive),
	}); err != nil {
		log.Fatalf("Failed to register books endpoint: %v", err)
	}

	catalogOpts := api.UnionOptions{Sources: catalogSources}
	if cfg.Cache.Enabled {
		cache, err := interceptors.Cache(interceptors.CacheConfig{
			Redis:   redisClient,
			TTL:     cfg.Cache.TTL,
			L1Size:  cfg.Cache.L1Size,
			Metrics: metrics,
		})
		if err != nil {
			log.Fatalf("Failed to build result cache: %v", err)
		}
		catalogOpts.Interceptors = append(catalogOpts.Interceptors, cache)
	}
	if err := server.RegisterUnion("/api/v1/catalog", catalogOpts); err != nil {
		log.Fatalf("Failed to register catalog endpoint: %v", err)
	}

	if err := server.RegisterSingle("/api/v1/query", api.SingleOptions{
		Source: freeTableSource(archive),
	}); err != nil {
		log.Fatalf("Failed to register query endpoint: %v", err)
	}

	httpServer := &http.Server{
		Addr:         listenAddr,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithFields(logrus.Fields{
			"addr":    listenAddr,
			"sources": len(catalogSources),
		}).Info("Starting seam server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Shutdown did not complete cleanly: %v", err)
	}
}

// seedSQLite opens an in-memory SQLite database and loads the books table.
func seedSQLite(dsn string, books []book) (*engine.SQLiteEngine, error) {
	eng, err := engine.NewSQLite(dsn)
	if err != nil {
		return nil, err
	}

	if _, err := eng.DB().Exec(`
		CREATE TABLE IF NOT EXISTS books (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			year INTEGER NOT NULL
		)`); err != nil {
		eng.Close()
		return nil, fmt.Errorf("failed to create books table: %w", err)
	}
	for _, b := range books {
		if _, err := eng.DB().Exec(
			`INSERT OR REPLACE INTO books (id, title, author, year) VALUES (?, ?, ?, ?)`,
			b.id, b.title, b.author, b.year,
		); err != nil {
			eng.Close()
			return nil, fmt.Errorf("failed to seed books table: %w", err)
		}
	}
	return eng, nil
}

// booksSource builds the filtered books source: author, min_year and
// max_year filters are optional and applied with the (v = ? OR ? IS NULL)
// pattern so one template serves every combination.
func booksSource(name string, eng engine.Engine) *query.Source {
	return &query.Source{
		Name:   name,
		Engine: eng,
		SelectQuery: "SELECT id, title, author, year FROM books " +
			"WHERE (author = ? OR ? IS NULL) " +
			"AND (year >= ? OR ? IS NULL) " +
			"AND (year <= ? OR ? IS NULL) " +
			"ORDER BY id LIMIT ? OFFSET ?",
		SelectParams: func(filters any, limit, offset int) []any {
			return append(bookFilterParams(filters), limit, offset)
		},
		CountQuery: "SELECT COUNT(*) FROM books " +
			"WHERE (author = ? OR ? IS NULL) " +
			"AND (year >= ? OR ? IS NULL) " +
			"AND (year <= ? OR ? IS NULL)",
		CountParams: bookFilterParams,
	}
}

// bookFilterParams doubles each optional filter value for the OR-IS-NULL
// template. Missing filters bind as NULL, which disables their clause.
func bookFilterParams(filters any) []any {
	var author, minYear, maxYear any
	if m, ok := filters.(map[string]any); ok {
		author = m["author"]
		minYear = m["min_year"]
		maxYear = m["max_year"]
	}
	return []any{author, author, minYear, minYear, maxYear, maxYear}
}

// freeTableSource serves ad-hoc table reads. The table name arrives as a
// filter and is substituted after identifier validation.
func freeTableSource(eng engine.Engine) *query.Source {
	return &query.Source{
		Name:        "query",
		Engine:      eng,
		SelectQuery: "SELECT * FROM __table__ LIMIT ? OFFSET ?",
		CountQuery:  "SELECT COUNT(*) FROM __table__",
		Interceptors: []query.Interceptor{
			interceptors.SubstituteIdentifier("__table__", func(filters any) (string, error) {
				if m, ok := filters.(map[string]any); ok {
					if table, ok := m["table"].(string); ok {
						return strings.TrimSpace(table), nil
					}
				}
				return "", fmt.Errorf("table filter is required")
			}),
		},
	}
}

// attachExternalSources adds Postgres and MySQL catalog sources when their
// connection strings are configured.
func attachExternalSources(cfg *config.Config, health *observability.HealthChecker, sources []*query.Source, log *logrus.Logger) ([]*query.Source, []engine.Engine, error) {
	var closers []engine.Engine

	if cfg.Databases.PostgresURL != "" {
		pg, err := engine.NewPostgres(cfg.Databases.PostgresURL)
		if err != nil {
			return nil, closers, fmt.Errorf("failed to open postgres source: %w", err)
		}
		closers = append(closers, pg)
		health.AddEngine("postgres", pg)
		sources = append(sources, &query.Source{
			Name:        "postgres",
			Engine:      pg,
			SelectQuery: "SELECT id, title, author, year FROM books ORDER BY id LIMIT $1 OFFSET $2",
			CountQuery:  "SELECT COUNT(*) FROM books",
		})
		log.Info("Attached postgres source")
	}

	if cfg.Databases.MySQLDSN != "" {
		my, err := engine.NewMySQL(cfg.Databases.MySQLDSN)
		if err != nil {
			return nil, closers, fmt.Errorf("failed to open mysql source: %w", err)
		}
		closers = append(closers, my)
		health.AddEngine("mysql", my)
		sources = append(sources, &query.Source{
			Name:        "mysql",
			Engine:      my,
			SelectQuery: "SELECT id, title, author, year FROM books ORDER BY id LIMIT ? OFFSET ?",
			CountQuery:  "SELECT COUNT(*) FROM books",
		})
		log.Info("Attached mysql source")
	}

	return sources, closers, nil
}

// serverInterceptors builds the chain applied to every endpoint.
func serverInterceptors(logger *observability.Logger, metrics *observability.Metrics) []query.Interceptor {
	chain := []query.Interceptor{interceptors.Logging(logger)}
	if metrics != nil {
		chain = append(chain, interceptors.Metrics(metrics))
	}
	return chain
}

// apiAuth protects /api/ routes with a static bearer token, leaving the
// operational endpoints open for probes and scrapes.
func apiAuth(token string) func(http.Handler) http.Handler {
	auth := middleware.NewAuthMiddleware(func(presented string) (string, error) {
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			return "", fmt.Errorf("unknown token")
		}
		return "api", nil
	}, false)

	return func(next http.Handler) http.Handler {
		protected := auth.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				protected.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
