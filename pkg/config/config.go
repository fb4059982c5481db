package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries everything the binaries read from the environment.
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Auth           AuthConfig
	Storage        StorageConfig
	Queue          QueueConfig
	Worker         WorkerConfig
	Mail           MailConfig
	Categorization CategorizationConfig
	Observability  ObservabilityConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	RateLimitPerSecond int
	RateLimitBurst     int
	MaxUploadBytes     int64
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type AuthConfig struct {
	JWTSecret string
}

type StorageConfig struct {
	// Type selects the backend: "local" or "gcs".
	Type      string
	LocalPath string
	GCSBucket string
}

type QueueConfig struct {
	BufferSize int
	Workers    int
	MaxRetries int
}

type WorkerConfig struct {
	ShutdownTimeout time.Duration
	// StaleImportAge is how long an import log may sit in "processing"
	// before the sweeper marks it failed.
	StaleImportAge time.Duration
}

type MailConfig struct {
	ResendAPIKey string
	FromAddress  string
}

type CategorizationConfig struct {
	// IndexPath is where learned merchant descriptions are persisted.
	// Empty keeps the index in memory.
	IndexPath string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

// Load builds the Config from environment variables, applying defaults for
// anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 10),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 20),
			MaxUploadBytes:     int64(getEnvAsInt("SERVER_MAX_UPLOAD_BYTES", 25<<20)),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "pocket-ledger-dev"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "changeme"),
		},
		Storage: StorageConfig{
			Type:      getEnv("STORAGE_TYPE", "local"),
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./uploads"),
			GCSBucket: getEnv("STORAGE_GCS_BUCKET", ""),
		},
		Queue: QueueConfig{
			BufferSize: getEnvAsInt("QUEUE_BUFFER_SIZE", 100),
			Workers:    getEnvAsInt("QUEUE_WORKERS", 2),
			MaxRetries: getEnvAsInt("QUEUE_MAX_RETRIES", 3),
		},
		Worker: WorkerConfig{
			ShutdownTimeout: getEnvAsDuration("WORKER_SHUTDOWN_TIMEOUT", 30*time.Second),
			StaleImportAge:  getEnvAsDuration("WORKER_STALE_IMPORT_AGE", 24*time.Hour),
		},
		Mail: MailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromAddress:  getEnv("MAIL_FROM_ADDRESS", "imports@pocket-ledger.app"),
		},
		Categorization: CategorizationConfig{
			IndexPath: getEnv("CATEGORIZATION_INDEX_PATH", "./data/merchants.bleve"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
	}

	if cfg.Storage.Type != "local" && cfg.Storage.Type != "gcs" {
		return nil, fmt.Errorf("unknown STORAGE_TYPE %q (want local or gcs)", cfg.Storage.Type)
	}

	if cfg.Storage.Type == "gcs" && cfg.Storage.GCSBucket == "" {
		return nil, errors.New("STORAGE_GCS_BUCKET is required when STORAGE_TYPE=gcs")
	}

	return cfg, nil
}

// DSN renders the libpq-style connection string pgx and goose both accept.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
