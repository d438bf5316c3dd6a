package storage

import (
	"context"
	"notifier/internal/models"
	"time"
)

// SeenStore is the persisted mapping from notification identity to the
// user's recorded answer. Records are never evicted or deleted.
type SeenStore interface {
	// GetSeen returns the record for key, or ErrNotFound when the
	// notification has never been answered.
	GetSeen(ctx context.Context, key models.SeenKey) (*models.SeenRecord, error)

	// SetSeen stores the record for key, replacing any previous one.
	SetSeen(ctx context.Context, key models.SeenKey, record models.SeenRecord) error
}

// SettingsStore persists small pieces of app state next to the seen records:
// the previous app version, the device GUID and the last sync time.
type SettingsStore interface {
	// GetSetting returns the value stored under name, or ErrNotFound.
	GetSetting(ctx context.Context, name string) (string, error)

	// SetSetting stores value under name.
	SetSetting(ctx context.Context, name, value string) error
}

// Storage is the full persistence interface implemented by every backend.
type Storage interface {
	SeenStore
	SettingsStore

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// Well-known setting names.
const (
	SettingPreviousVersion = "previous_version"
	SettingDeviceGUID      = "device_guid"
	SettingLastUpdated     = "last_updated"
)

// Config holds configuration for storage backends
type Config struct {
	// Type specifies the storage backend type (json, memory, sqlite, postgres, redis)
	Type string `json:"type" yaml:"type"`

	// Path is used for file-based storage backends
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// ConnectionString is used for database backends
	ConnectionString string `json:"connection_string,omitempty" yaml:"connection_string,omitempty"`

	// MaxOpenConns caps the database connection pool
	MaxOpenConns int `json:"max_open_conns,omitempty" yaml:"max_open_conns,omitempty"`

	// ConnMaxLifetime recycles pooled connections
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime,omitempty" yaml:"conn_max_lifetime,omitempty"`

	// Redis holds the redis backend settings
	Redis models.RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`

	// Additional options for specific backends
	Options map[string]interface{} `json:"options,omitempty" yaml:"options,omitempty"`
}
