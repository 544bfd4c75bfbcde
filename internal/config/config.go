// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Dataset source kinds.
const (
	SourceDir  = "dir"
	SourceHTTP = "http"
	SourceS3   = "s3"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Directory for the dataset cache database (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	Source  SourceConfig
	Catalog CatalogConfig

	CacheTTL             time.Duration // How long fetched artifacts are served from cache
	FetchTimeout         time.Duration // Per-dataset retrieval timeout
	SessionIdleTTL       time.Duration // Sessions untouched for longer are evicted
	MaxSpectrumPeriod    float64       // Longest spectrum period shown, in days
	CacheCleanupCron     string
	CacheMaintenanceCron string
	SessionEvictionCron  string
}

// SourceConfig selects where pipeline artifacts are read from.
type SourceConfig struct {
	Kind string // dir, http or s3
	Dir  string
	URL  string
	S3   S3Config
}

// S3Config holds object store settings (R2, MinIO or AWS).
type S3Config struct {
	Bucket          string
	Prefix          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// CatalogConfig holds series picker settings.
type CatalogConfig struct {
	File          string // Optional TOML file overriding the built-in catalog
	DefaultSeries string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir, err := filepath.Abs(getEnv("CYCLEVIEW_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  dataDir,
		Port:     getEnvAsInt("CYCLEVIEW_PORT", 8080),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Source: SourceConfig{
			Kind: strings.ToLower(getEnv("CYCLEVIEW_SOURCE", SourceDir)),
			Dir:  getEnv("CYCLEVIEW_SOURCE_DIR", "./output/latest"),
			URL:  strings.TrimRight(getEnv("CYCLEVIEW_SOURCE_URL", ""), "/"),
			S3: S3Config{
				Bucket:          getEnv("CYCLEVIEW_S3_BUCKET", ""),
				Prefix:          strings.Trim(getEnv("CYCLEVIEW_S3_PREFIX", "latest"), "/"),
				Endpoint:        getEnv("CYCLEVIEW_S3_ENDPOINT", ""),
				Region:          getEnv("CYCLEVIEW_S3_REGION", "auto"),
				AccessKeyID:     getEnv("CYCLEVIEW_S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("CYCLEVIEW_S3_SECRET_ACCESS_KEY", ""),
			},
		},
		Catalog: CatalogConfig{
			File:          getEnv("CYCLEVIEW_CATALOG_FILE", ""),
			DefaultSeries: getEnv("CYCLEVIEW_DEFAULT_SERIES", "yahoo-spy"),
		},
		CacheTTL:             getEnvAsDuration("CYCLEVIEW_CACHE_TTL", 10*time.Minute),
		FetchTimeout:         getEnvAsDuration("CYCLEVIEW_FETCH_TIMEOUT", 30*time.Second),
		SessionIdleTTL:       getEnvAsDuration("CYCLEVIEW_SESSION_IDLE_TTL", 2*time.Hour),
		MaxSpectrumPeriod:    getEnvAsFloat("CYCLEVIEW_MAX_SPECTRUM_PERIOD", 365),
		CacheCleanupCron:     getEnv("CYCLEVIEW_CACHE_CLEANUP_CRON", "0 */15 * * * *"),
		CacheMaintenanceCron: getEnv("CYCLEVIEW_CACHE_MAINTENANCE_CRON", "0 0 * * * *"),
		SessionEvictionCron:  getEnv("CYCLEVIEW_SESSION_EVICTION_CRON", "0 */5 * * * *"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceDir:
		if c.Source.Dir == "" {
			return fmt.Errorf("CYCLEVIEW_SOURCE_DIR is required for the dir source")
		}
	case SourceHTTP:
		if c.Source.URL == "" {
			return fmt.Errorf("CYCLEVIEW_SOURCE_URL is required for the http source")
		}
	case SourceS3:
		if c.Source.S3.Bucket == "" {
			return fmt.Errorf("CYCLEVIEW_S3_BUCKET is required for the s3 source")
		}
	default:
		return fmt.Errorf("unknown dataset source %q (want dir, http or s3)", c.Source.Kind)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MaxSpectrumPeriod <= 0 {
		return fmt.Errorf("CYCLEVIEW_MAX_SPECTRUM_PERIOD must be positive")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("CYCLEVIEW_FETCH_TIMEOUT must be positive")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
