package config

import (
	"fmt"
	"log/slog"
	"notifier/internal/models"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NOTIFIER_"

// Load loads configuration from file and environment variables
func Load(configPath string) (*models.Config, error) {
	// Start with default configuration
	config := models.NewDefaultConfig()

	// Load from file if provided and exists
	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Override with environment variables
	loadFromEnvironment(config)

	// Validate the final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	warnLenientVersions(config.App)

	return config, nil
}

// deprecatedConfig mirrors removed config fields for detecting stale configs.
type deprecatedConfig struct {
	App struct {
		PreviousVersion string `yaml:"previous_version"`
	} `yaml:"app"`
	Client struct {
		APIURL string `yaml:"api_url"`
	} `yaml:"client"`
}

// warnDeprecatedKeys logs a warning for each removed config key found in the YAML data.
// Loading continues normally; these keys are ignored by the main decoder.
func warnDeprecatedKeys(data []byte) {
	var dep deprecatedConfig
	if err := yaml.Unmarshal(data, &dep); err != nil {
		return
	}
	if dep.App.PreviousVersion != "" {
		slog.Warn("Config key is no longer used; the previous version is tracked in storage.", "config_key", "app.previous_version")
	}
	if dep.Client.APIURL != "" {
		slog.Warn("Config key was renamed; use client.base_url.", "config_key", "client.api_url")
	}
}

// warnLenientVersions notes configured versions that are not semantic
// versions. They still work: comparison pads and zeroes unknown segments.
func warnLenientVersions(app models.AppConfig) {
	for key, v := range map[string]string{
		"app.current_version":  app.CurrentVersion,
		"app.version_override": app.VersionOverride,
	} {
		if v == "" {
			continue
		}
		if _, err := semver.StrictNewVersion(strings.TrimPrefix(v, "v")); err != nil {
			slog.Warn("Version is not a semantic version; compared segment by segment", "config_key", key, "value", v)
		}
	}
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	warnDeprecatedKeys(data)
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

func envString(name string, dst *string) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(name string, dst *bool) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		*dst = strings.ToLower(v) == "true"
	}
}

func envDuration(name string, dst *time.Duration) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// loadFromEnvironment loads configuration from environment variables.
// Malformed numbers and durations are ignored.
func loadFromEnvironment(config *models.Config) {
	// Client configuration
	envString("BASE_URL", &config.Client.BaseURL)
	envString("APP_ID", &config.Client.AppID)
	envString("API_KEY", &config.Client.APIKey)
	envString("PLATFORM", &config.Client.Platform)
	envDuration("TIMEOUT", &config.Client.Timeout)
	envBool("CLIENT_TRACING", &config.Client.Tracing)

	// App versions
	envString("CURRENT_VERSION", &config.App.CurrentVersion)
	envString("VERSION_OVERRIDE", &config.App.VersionOverride)

	// Storage configuration
	envString("STORAGE_TYPE", &config.Storage.Type)
	envString("STORAGE_PATH", &config.Storage.Path)
	envString("DATABASE_DSN", &config.Storage.Database.DSN)
	envInt("DATABASE_MAX_OPEN_CONNS", &config.Storage.Database.MaxOpenConns)
	envDuration("DATABASE_CONN_MAX_LIFETIME", &config.Storage.Database.ConnMaxLifetime)
	envString("REDIS_ADDR", &config.Storage.Redis.Addr)
	envString("REDIS_PASSWORD", &config.Storage.Redis.Password)
	envInt("REDIS_DB", &config.Storage.Redis.DB)
	envString("REDIS_KEY_PREFIX", &config.Storage.Redis.KeyPrefix)

	// Logging configuration
	envString("LOG_LEVEL", &config.Logging.Level)
	envString("LOG_FORMAT", &config.Logging.Format)
	envString("LOG_OUTPUT", &config.Logging.Output)
	envString("LOG_FILE_PATH", &config.Logging.FilePath)

	// Metrics and tracing
	envBool("METRICS_ENABLED", &config.Metrics.Enabled)
	envString("METRICS_PATH", &config.Metrics.Path)
	envInt("METRICS_PORT", &config.Metrics.Port)
	envBool("TRACING_ENABLED", &config.Observability.Tracing.Enabled)
	envString("TRACING_EXPORTER", &config.Observability.Tracing.Exporter)
	envString("OTLP_ENDPOINT", &config.Observability.Tracing.OTLPEndpoint)

	// Stub server
	envString("STUB_HOST", &config.Stub.Host)
	envInt("STUB_PORT", &config.Stub.Port)
	envString("STUB_FIXTURES", &config.Stub.FixturesPath)
	envBool("STUB_REQUIRE_AUTH", &config.Stub.RequireAuth)
	envBool("STUB_RATE_LIMIT_ENABLED", &config.Stub.RateLimit.Enabled)
	envInt("STUB_RATE_LIMIT_RPM", &config.Stub.RateLimit.RequestsPerMinute)
}

// SaveExample saves an example configuration file
func SaveExample(filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	config := models.NewDefaultConfig()
	config.Client.AppID = "your-application-id"
	config.Client.APIKey = "your-rest-api-key"
	config.App.CurrentVersion = "1.0.0"

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
