// Package config loads runtime settings from DNACORE_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Storage drivers.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Archive drivers.
const (
	ArchiveFS     = "fs"
	ArchiveMemory = "memory"
	ArchiveS3     = "s3"
)

// Command metrics backends.
const (
	MetricsNone       = "none"
	MetricsExpvar     = "expvar"
	MetricsPrometheus = "prometheus"
)

// Command tracing backends.
const (
	TracingNone = "none"
	TracingJSON = "json"
	TracingOTel = "otel"
)

// Config is the complete runtime configuration.
type Config struct {
	Storage       StorageConfig
	Archive       ArchiveConfig
	Observability ObservabilityConfig
	UndoDepth     int    `env:"DNACORE_UNDO_DEPTH" envDefault:"100"`
	LogLevel      string `env:"DNACORE_LOG_LEVEL" envDefault:"info"`
}

// StorageConfig selects the document store backend.
type StorageConfig struct {
	Driver      string `env:"DNACORE_STORAGE_DRIVER" envDefault:"memory"`
	SQLitePath  string `env:"DNACORE_SQLITE_PATH" envDefault:"dnacore.db"`
	PostgresDSN string `env:"DNACORE_POSTGRES_DSN"`
}

// ArchiveConfig selects where exported designs are saved.
type ArchiveConfig struct {
	Driver     string `env:"DNACORE_ARCHIVE_DRIVER" envDefault:"fs"`
	FSRoot     string `env:"DNACORE_ARCHIVE_FS_ROOT" envDefault:"./designs"`
	S3Bucket   string `env:"DNACORE_ARCHIVE_S3_BUCKET"`
	S3Region   string `env:"DNACORE_ARCHIVE_S3_REGION" envDefault:"us-east-1"`
	S3Endpoint string `env:"DNACORE_ARCHIVE_S3_ENDPOINT"`
	PathStyle  bool   `env:"DNACORE_ARCHIVE_S3_PATH_STYLE"`
}

// ObservabilityConfig selects how command phases are measured and traced.
type ObservabilityConfig struct {
	Metrics string `env:"DNACORE_METRICS" envDefault:"none"`
	Tracing string `env:"DNACORE_TRACING" envDefault:"none"`
}

// Load reads the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadFrom reads the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks driver names and driver-specific requirements.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageSQLite, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Archive.Driver {
	case ArchiveFS, ArchiveMemory:
	case ArchiveS3:
		if c.Archive.S3Bucket == "" {
			return fmt.Errorf("DNACORE_ARCHIVE_S3_BUCKET required for s3 archive")
		}
	default:
		return fmt.Errorf("unknown archive driver %q", c.Archive.Driver)
	}
	switch c.Observability.Metrics {
	case MetricsNone, MetricsExpvar, MetricsPrometheus:
	default:
		return fmt.Errorf("unknown metrics backend %q", c.Observability.Metrics)
	}
	switch c.Observability.Tracing {
	case TracingNone, TracingJSON, TracingOTel:
	default:
		return fmt.Errorf("unknown tracing backend %q", c.Observability.Tracing)
	}
	if c.UndoDepth < 1 {
		return fmt.Errorf("undo depth must be positive, got %d", c.UndoDepth)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return lvl, nil
}
