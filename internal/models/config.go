// Package models - SDK configuration and operational settings.
// This file defines the configuration structures for every notifier component.
//
// Configuration Philosophy:
// - Hierarchical configuration with logical grouping (client, app, storage, etc.)
// - Defaults that work out of the box for local development
// - Validation catches misconfigurations before any network call is made
// - Version strings are accepted leniently; the comparator never fails
package models

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"
)

// Storage type constants
const (
	StorageTypeJSON     = "json"
	StorageTypeMemory   = "memory"
	StorageTypePostgres = "postgres"
	StorageTypeSQLite   = "sqlite"
	StorageTypeRedis    = "redis"
)

// Config is the root configuration structure.
//
// Configuration Structure:
// - Client: notify API endpoint and credentials
// - App: locally known app version and optional override
// - Storage: where seen records and app state persist
// - Logging: structured logging output
// - Metrics / Observability: OpenTelemetry exporters
// - Stub: the local stub notify API used during development
type Config struct {
	Client        ClientConfig        `yaml:"client" json:"client"`
	App           AppConfig           `yaml:"app" json:"app"`
	Storage       StorageConfig       `yaml:"storage" json:"storage"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
	Stub          StubConfig          `yaml:"stub" json:"stub"`
}

type ClientConfig struct {
	BaseURL  string        `yaml:"base_url" json:"base_url"`
	AppID    string        `yaml:"app_id" json:"app_id"`
	APIKey   string        `yaml:"api_key" json:"api_key"`
	Platform string        `yaml:"platform" json:"platform"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
	Tracing  bool          `yaml:"tracing" json:"tracing"`
}

type AppConfig struct {
	CurrentVersion  string `yaml:"current_version" json:"current_version"`
	VersionOverride string `yaml:"version_override" json:"version_override"`
}

type StorageConfig struct {
	Type     string            `yaml:"type" json:"type"`
	Path     string            `yaml:"path" json:"path"`
	Database DatabaseConfig    `yaml:"database" json:"database"`
	Redis    RedisConfig       `yaml:"redis" json:"redis"`
	Options  map[string]string `yaml:"options" json:"options"`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn" json:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	Password  string `yaml:"password" json:"password"`
	DB        int    `yaml:"db" json:"db"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

type StubConfig struct {
	Host         string          `yaml:"host" json:"host"`
	Port         int             `yaml:"port" json:"port"`
	FixturesPath string          `yaml:"fixtures_path" json:"fixtures_path"`
	ReadTimeout  time.Duration   `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration   `yaml:"write_timeout" json:"write_timeout"`
	RequireAuth  bool            `yaml:"require_auth" json:"require_auth"`
	RateLimit    RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled" json:"enabled"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	Burst             int           `yaml:"burst" json:"burst"`
	AnonymousPerMin   int           `yaml:"anonymous_per_minute" json:"anonymous_per_minute"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

// NewDefaultConfig creates a configuration with development-friendly defaults.
//
// Default Values Rationale:
// - JSON file storage: no external services needed to persist seen records
// - 20-second client timeout: matches the request timeout of the mobile SDKs
// - Metrics disabled: the SDK usually runs embedded in a host process
func NewDefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			BaseURL:  "https://nstack.io/api/v1/",
			Platform: "ios",
			Timeout:  20 * time.Second,
		},
		Storage: StorageConfig{
			Type: StorageTypeJSON,
			Path: "./data/notifier.json",
			Database: DatabaseConfig{
				MaxOpenConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "notifier:",
			},
			Options: make(map[string]string),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "notifier",
			Tracing: TracingConfig{
				Enabled:    false,
				Exporter:   "stdout",
				SampleRate: 1.0,
			},
		},
		Stub: StubConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			FixturesPath: "./fixtures.yaml",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerMinute: 60,
				Burst:             10,
				AnonymousPerMin:   10,
				CleanupInterval:   5 * time.Minute,
			},
		},
	}
}

// Versions returns the app version state described by the configuration.
// Previous is not part of the configuration; it is read from storage.
func (c *Config) Versions() AppVersions {
	return AppVersions{
		Current:  c.App.CurrentVersion,
		Override: c.App.VersionOverride,
	}
}

func (c *Config) Validate() error {
	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("invalid client config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("invalid storage config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	if err := c.Stub.Validate(); err != nil {
		return fmt.Errorf("invalid stub config: %w", err)
	}

	return nil
}

func (cc *ClientConfig) Validate() error {
	if cc.BaseURL == "" {
		return errors.New("base URL cannot be empty")
	}
	u, err := url.Parse(cc.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base URL: %s", cc.BaseURL)
	}
	if cc.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	if cc.Platform == "" {
		return errors.New("platform cannot be empty")
	}
	return nil
}

func (stc *StorageConfig) Validate() error {
	validTypes := []string{StorageTypeJSON, StorageTypeMemory, StorageTypePostgres, StorageTypeSQLite, StorageTypeRedis}
	if !slices.Contains(validTypes, stc.Type) {
		return fmt.Errorf("invalid storage type: %s", stc.Type)
	}

	switch stc.Type {
	case StorageTypeJSON:
		if stc.Path == "" {
			return errors.New("path is required for JSON storage")
		}
	case StorageTypePostgres, StorageTypeSQLite:
		if stc.Database.DSN == "" {
			return errors.New("database DSN is required for database storage")
		}
	case StorageTypeRedis:
		if stc.Redis.Addr == "" {
			return errors.New("Redis address is required for redis storage")
		}
	}

	return nil
}

func (lc *LoggingConfig) Validate() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, lc.Level) {
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	if !slices.Contains([]string{"json", "text"}, lc.Format) {
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	if !slices.Contains([]string{"stdout", "stderr", "file"}, lc.Output) {
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}

	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}

	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}

	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}

	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}

	return nil
}

func (oc *ObservabilityConfig) Validate() error {
	if !oc.Tracing.Enabled {
		return nil
	}
	if oc.ServiceName == "" {
		return errors.New("service name cannot be empty when tracing is enabled")
	}
	switch oc.Tracing.Exporter {
	case "stdout":
	case "otlp":
		if oc.Tracing.OTLPEndpoint == "" {
			return errors.New("OTLP endpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("invalid trace exporter: %s", oc.Tracing.Exporter)
	}
	if oc.Tracing.SampleRate < 0 || oc.Tracing.SampleRate > 1 {
		return errors.New("sample rate must be between 0 and 1")
	}
	return nil
}

func (sc *StubConfig) Validate() error {
	if sc.Port < 0 || sc.Port > 65535 {
		return errors.New("stub port must be between 0 and 65535")
	}
	if sc.RateLimit.Enabled {
		if sc.RateLimit.RequestsPerMinute <= 0 || sc.RateLimit.AnonymousPerMin <= 0 {
			return errors.New("rate limit requests per minute must be positive")
		}
		if sc.RateLimit.Burst <= 0 {
			return errors.New("rate limit burst must be positive")
		}
		if sc.RateLimit.CleanupInterval <= 0 {
			return errors.New("rate limit cleanup interval must be positive")
		}
	}
	return nil
}
