package storage

import (
	"context"
	"notifier/internal/models"
	"sync"
)

// MemoryStorage implements the Storage interface using in-memory maps.
// This provider is ideal for tests and for hosts that do not need seen
// records to survive a restart.
type MemoryStorage struct {
	mu       sync.RWMutex
	seen     map[string]models.SeenRecord // key: "<kind>:<identity>"
	settings map[string]string
}

// NewMemoryStorage creates a new memory-based storage instance
func NewMemoryStorage(config Config) (*MemoryStorage, error) {
	return &MemoryStorage{
		seen:     make(map[string]models.SeenRecord),
		settings: make(map[string]string),
	}, nil
}

// GetSeen returns the record stored for key
func (m *MemoryStorage) GetSeen(ctx context.Context, key models.SeenKey) (*models.SeenRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, exists := m.seen[key.String()]
	if !exists {
		return nil, ErrNotFound
	}

	// Return a copy
	recCopy := rec
	return &recCopy, nil
}

// SetSeen stores or replaces the record for key
func (m *MemoryStorage) SetSeen(ctx context.Context, key models.SeenKey, record models.SeenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seen[key.String()] = record
	return nil
}

// GetSetting returns the value stored under name
func (m *MemoryStorage) GetSetting(ctx context.Context, name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.settings[name]
	if !exists {
		return "", ErrNotFound
	}
	return value, nil
}

// SetSetting stores value under name
func (m *MemoryStorage) SetSetting(ctx context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings[name] = value
	return nil
}

// Ping verifies the storage backend is reachable and operational.
func (m *MemoryStorage) Ping(_ context.Context) error {
	return nil
}

// Close clears all data
func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seen = make(map[string]models.SeenRecord)
	m.settings = make(map[string]string)

	return nil
}
