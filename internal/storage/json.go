package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"notifier/internal/models"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JSONStorage implements the Storage interface using a single JSON file.
// It keeps an in-memory cache of the file and supports concurrent access.
type JSONStorage struct {
	filePath     string
	cacheTTL     time.Duration
	mu           sync.RWMutex
	data         *JSONData
	lastModified time.Time
	cacheExpiry  time.Time
}

// JSONData represents the structure of data stored in JSON format.
// Seen records are keyed by "<kind>:<identity>".
type JSONData struct {
	Seen        map[string]models.SeenRecord `json:"seen"`
	Settings    map[string]string            `json:"settings"`
	LastUpdated time.Time                    `json:"last_updated"`
}

// NewJSONStorage creates a new JSON-based storage instance
func NewJSONStorage(config Config) (*JSONStorage, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("path is required for JSON storage")
	}

	cacheTTL := 5 * time.Minute
	if raw, ok := config.Options["cache_ttl"].(string); ok && raw != "" {
		if duration, err := time.ParseDuration(raw); err == nil {
			cacheTTL = duration
		}
	}

	storage := &JSONStorage{
		filePath: config.Path,
		cacheTTL: cacheTTL,
	}

	// Initialize with empty data if file doesn't exist
	if err := storage.ensureFileExists(); err != nil {
		return nil, fmt.Errorf("failed to ensure file exists: %w", err)
	}

	// Load initial data
	if err := storage.loadData(); err != nil {
		return nil, fmt.Errorf("failed to load initial data: %w", err)
	}

	return storage, nil
}

// ensureFileExists creates the JSON file with empty data if it doesn't exist
func (j *JSONStorage) ensureFileExists() error {
	if _, err := os.Stat(j.filePath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(j.filePath), 0700); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}

		return j.saveData(newJSONData())
	}
	return nil
}

func newJSONData() *JSONData {
	return &JSONData{
		Seen:     make(map[string]models.SeenRecord),
		Settings: make(map[string]string),
	}
}

// loadData loads data from the JSON file with caching.
// It uses double-checked locking: a fast read-lock path for cache hits,
// and a write-lock slow path with re-validation to prevent TOCTOU races.
func (j *JSONStorage) loadData() error {
	j.mu.RLock()
	if j.data != nil && time.Now().Before(j.cacheExpiry) {
		j.mu.RUnlock()
		return nil
	}
	j.mu.RUnlock()

	j.mu.Lock()
	defer j.mu.Unlock()

	// Another goroutine may have loaded while we waited for the write lock.
	if j.data != nil && time.Now().Before(j.cacheExpiry) {
		return nil
	}

	info, err := os.Stat(j.filePath)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	// If the file hasn't changed, extend the cache and return.
	if j.data != nil && !info.ModTime().After(j.lastModified) {
		j.cacheExpiry = time.Now().Add(j.cacheTTL)
		return nil
	}

	fileData, err := os.ReadFile(j.filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	data := newJSONData()
	if err := json.Unmarshal(fileData, data); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if data.Seen == nil {
		data.Seen = make(map[string]models.SeenRecord)
	}
	if data.Settings == nil {
		data.Settings = make(map[string]string)
	}

	j.data = data
	j.lastModified = info.ModTime()
	j.cacheExpiry = time.Now().Add(j.cacheTTL)
	return nil
}

// saveData writes data to a temporary file and renames it over the target,
// so a crash mid-write never leaves a truncated file behind.
func (j *JSONStorage) saveData(data *JSONData) error {
	data.LastUpdated = time.Now().UTC()

	fileData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	tmp := j.filePath + ".tmp"
	if err := os.WriteFile(tmp, fileData, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, j.filePath); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}

	if info, err := os.Stat(j.filePath); err == nil {
		j.lastModified = info.ModTime()
	}
	return nil
}

// GetSeen returns the record stored for key
func (j *JSONStorage) GetSeen(ctx context.Context, key models.SeenKey) (*models.SeenRecord, error) {
	if err := j.loadData(); err != nil {
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	rec, ok := j.data.Seen[key.String()]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// SetSeen stores or replaces the record for key
func (j *JSONStorage) SetSeen(ctx context.Context, key models.SeenKey, record models.SeenRecord) error {
	if err := j.loadData(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.data.Seen[key.String()] = record
	return j.saveData(j.data)
}

// GetSetting returns the value stored under name
func (j *JSONStorage) GetSetting(ctx context.Context, name string) (string, error) {
	if err := j.loadData(); err != nil {
		return "", err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	value, ok := j.data.Settings[name]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// SetSetting stores value under name
func (j *JSONStorage) SetSetting(ctx context.Context, name, value string) error {
	if err := j.loadData(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.data.Settings[name] = value
	return j.saveData(j.data)
}

// Ping verifies the backing file is still readable.
func (j *JSONStorage) Ping(_ context.Context) error {
	if _, err := os.Stat(j.filePath); err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	return nil
}

// Close clears the cache
func (j *JSONStorage) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.data = nil
	j.cacheExpiry = time.Time{}

	return nil
}
