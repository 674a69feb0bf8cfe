package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/seamdb/seam/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Databases DatabaseConfig

	// Cache configuration
	Cache CacheConfig

	// Observability configuration
	Observability ObservabilityConfig

	// Defaults applied to endpoint requests
	DefaultLimit int

	// APIToken protects endpoints when set; empty disables authentication.
	APIToken string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds connection strings for the supported engines. Empty
// values disable the corresponding engine.
type DatabaseConfig struct {
	SQLiteDSN   string
	PostgresURL string
	MySQLDSN    string
}

// CacheConfig holds result cache settings
type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
	L1Size        int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SEAM_HOST", "0.0.0.0"),
			Port:            getEnv("SEAM_PORT", "8080"),
			ReadTimeout:     getEnvDuration("SEAM_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SEAM_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("SEAM_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SEAM_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Databases: DatabaseConfig{
			SQLiteDSN:   getEnv("SEAM_SQLITE_DSN", "file:seam?mode=memory&cache=shared"),
			PostgresURL: getEnv("SEAM_POSTGRES_URL", ""),
			MySQLDSN:    getEnv("SEAM_MYSQL_DSN", ""),
		},
		Cache: CacheConfig{
			Enabled:       getEnvBool("SEAM_CACHE_ENABLED", false),
			RedisURL:      getEnv("SEAM_REDIS_URL", ""),
			RedisPassword: getEnv("SEAM_REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("SEAM_REDIS_DB", 0),
			TTL:           getEnvDuration("SEAM_CACHE_TTL", 5*time.Minute),
			L1Size:        getEnvInt("SEAM_L1_CACHE_SIZE", 1024),
		},
		Observability: ObservabilityConfig{
			LogLevel:       observability.ParseLogLevel(getEnv("SEAM_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("SEAM_METRICS_ENABLED", true),
		},
		DefaultLimit: getEnvInt("SEAM_DEFAULT_LIMIT", 100),
		APIToken:     getEnv("SEAM_API_TOKEN", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("default limit must be positive")
	}
	if c.Cache.Enabled && c.Cache.RedisURL == "" && c.Cache.L1Size <= 0 {
		return fmt.Errorf("cache is enabled but has neither a redis URL nor an L1 size")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache TTL must not be negative")
	}
	return nil
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
