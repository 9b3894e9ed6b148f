// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// History store backends accepted by HISTORY_STORE.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMinIO    = "minio"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// JWTConfig provides the optional bearer token guard settings.
type JWTConfig interface {
	GetJWTAccessSecret() string
	IsAuthEnabled() bool
}

// PlacesConfig provides settings for the remote place lookup provider.
type PlacesConfig interface {
	GetGoogleMapsAPIKey() string
	GetPlacesBaseURL() string
	GetPlacesTimeout() time.Duration
	GetPlacesRateQPS() float64
	GetPlacesRateBurst() int
}

// HistoryConfig provides settings for the persisted search history.
type HistoryConfig interface {
	GetHistoryStore() string
	GetHistoryKey() string
	GetHistoryDir() string
	GetHistorySQLitePath() string
	GetHistoryRedisPrefix() string
	GetHistoryMinIOBucket() string
	GetHistoryRetryDelay() time.Duration
}

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// RedisConfig provides the Redis connection used by the redis store backend.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the asynq retry scheduler.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	IsMinIOEnabled() bool
}

// StoreConfig combines everything the history store factory may need.
type StoreConfig interface {
	HistoryConfig
	DatabaseConfig
	RedisConfig
	MinIOConfig
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                string
	HTTPAddr           string
	CORSAllowAll       bool
	CORSOrigins        []string
	CORSAllowCreds     bool
	JWTAccessSecret    string
	GoogleMapsAPIKey   string
	PlacesBaseURL      string
	PlacesTimeout      time.Duration
	PlacesRateQPS      float64
	PlacesRateBurst    int
	HistoryStore       string
	HistoryKey         string
	HistoryDir         string
	HistorySQLitePath  string
	HistoryRedisPrefix string
	HistoryMinIOBucket string
	HistoryRetryDelay  time.Duration
	DatabaseURL        string
	RedisURL           string
	RedisTLSInsecure   bool
	AsynqQueueName     string
	AsynqConcurrency   int
	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOUseSSL        bool
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }
func (c *Config) IsAuthEnabled() bool        { return c.JWTAccessSecret != "" }

// PlacesConfig implementation
func (c *Config) GetGoogleMapsAPIKey() string     { return c.GoogleMapsAPIKey }
func (c *Config) GetPlacesBaseURL() string        { return c.PlacesBaseURL }
func (c *Config) GetPlacesTimeout() time.Duration { return c.PlacesTimeout }
func (c *Config) GetPlacesRateQPS() float64       { return c.PlacesRateQPS }
func (c *Config) GetPlacesRateBurst() int         { return c.PlacesRateBurst }

// HistoryConfig implementation
func (c *Config) GetHistoryStore() string             { return c.HistoryStore }
func (c *Config) GetHistoryKey() string               { return c.HistoryKey }
func (c *Config) GetHistoryDir() string               { return c.HistoryDir }
func (c *Config) GetHistorySQLitePath() string        { return c.HistorySQLitePath }
func (c *Config) GetHistoryRedisPrefix() string       { return c.HistoryRedisPrefix }
func (c *Config) GetHistoryMinIOBucket() string       { return c.HistoryMinIOBucket }
func (c *Config) GetHistoryRetryDelay() time.Duration { return c.HistoryRetryDelay }

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// RedisConfig / SchedulerConfig implementation
func (c *Config) GetRedisURL() string        { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool  { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string  { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int   { return c.AsynqConcurrency }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) IsMinIOEnabled() bool      { return c.MinIOEndpoint != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:8081"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:       corsAllowAll,
		CORSOrigins:        corsOrigins,
		CORSAllowCreds:     strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		JWTAccessSecret:    getEnv("JWT_ACCESS_SECRET", ""),
		GoogleMapsAPIKey:   getEnv("GOOGLE_MAPS_API_KEY", ""),
		PlacesBaseURL:      strings.TrimRight(getEnv("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api"), "/"),
		PlacesTimeout:      mustDuration(getEnv("PLACES_TIMEOUT", "10s")),
		PlacesRateQPS:      mustFloat(getEnv("PLACES_RATE_QPS", "10")),
		PlacesRateBurst:    mustInt(getEnv("PLACES_RATE_BURST", "5")),
		HistoryStore:       strings.ToLower(strings.TrimSpace(getEnv("HISTORY_STORE", StoreFile))),
		HistoryKey:         getEnv("HISTORY_KEY", "searchHistory"),
		HistoryDir:         getEnv("HISTORY_DIR", "data"),
		HistorySQLitePath:  getEnv("HISTORY_SQLITE_PATH", "data/history.db"),
		HistoryRedisPrefix: getEnv("HISTORY_REDIS_PREFIX", "places:"),
		HistoryMinIOBucket: getEnv("HISTORY_MINIO_BUCKET", "place-history"),
		HistoryRetryDelay:  mustDuration(getEnv("HISTORY_RETRY_DELAY", "30s")),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		RedisTLSInsecure:   strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:     getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:   mustInt(getEnv("ASYNQ_CONCURRENCY", "2")),
		MinIOEndpoint:      getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:     getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:        strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.HistoryKey) == "" {
		return fmt.Errorf("HISTORY_KEY must not be empty")
	}

	switch c.HistoryStore {
	case StoreMemory:
	case StoreFile:
		if c.HistoryDir == "" {
			return fmt.Errorf("HISTORY_DIR is required when HISTORY_STORE is file")
		}
	case StoreSQLite:
		if c.HistorySQLitePath == "" {
			return fmt.Errorf("HISTORY_SQLITE_PATH is required when HISTORY_STORE is sqlite")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when HISTORY_STORE is redis")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when HISTORY_STORE is postgres")
		}
	case StoreMinIO:
		if !c.IsMinIOEnabled() {
			return fmt.Errorf("MINIO_ENDPOINT is required when HISTORY_STORE is minio")
		}
	default:
		return fmt.Errorf("unknown HISTORY_STORE %q", c.HistoryStore)
	}

	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
