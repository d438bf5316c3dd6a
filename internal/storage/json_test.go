package storage

import (
	"context"
	"encoding/json"
	"notifier/internal/models"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONStorage(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "nested", "seen.json")

	storage, err := NewJSONStorage(Config{
		Type:    "json",
		Path:    filePath,
		Options: map[string]interface{}{"cache_ttl": "1m"},
	})
	require.NoError(t, err)
	defer storage.Close()

	assert.FileExists(t, filePath)
	assert.Equal(t, time.Minute, storage.cacheTTL)
}

func TestNewJSONStorage_EmptyPath(t *testing.T) {
	_, err := NewJSONStorage(Config{Type: "json"})
	assert.Error(t, err)
}

func TestNewJSONStorage_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on windows")
	}
	filePath := filepath.Join(t.TempDir(), "seen.json")

	storage, err := NewJSONStorage(Config{Path: filePath})
	require.NoError(t, err)
	defer storage.Close()

	info, err := os.Stat(filePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestJSONStorage(t *testing.T) {
	storage, err := NewJSONStorage(Config{Path: filepath.Join(t.TempDir(), "seen.json")})
	require.NoError(t, err)
	defer storage.Close()

	runStorageContract(t, storage)
}

func TestJSONStorage_SurvivesReopen(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "seen.json")
	ctx := context.Background()
	key := models.SeenKey{Kind: models.KindWhatsNew, Identity: "42"}

	first, err := NewJSONStorage(Config{Path: filePath})
	require.NoError(t, err)
	require.NoError(t, first.SetSeen(ctx, key, models.SeenRecord{Seen: true, RecordedAt: time.Now().UTC()}))
	require.NoError(t, first.SetSetting(ctx, SettingPreviousVersion, "2.3"))
	require.NoError(t, first.Close())

	second, err := NewJSONStorage(Config{Path: filePath})
	require.NoError(t, err)
	defer second.Close()

	rec, err := second.GetSeen(ctx, key)
	require.NoError(t, err)
	assert.True(t, rec.Seen)

	value, err := second.GetSetting(ctx, SettingPreviousVersion)
	require.NoError(t, err)
	assert.Equal(t, "2.3", value)
}

func TestJSONStorage_FileLayout(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "seen.json")
	ctx := context.Background()

	storage, err := NewJSONStorage(Config{Path: filePath})
	require.NoError(t, err)
	defer storage.Close()

	require.NoError(t, storage.SetSeen(ctx, models.SeenKey{Kind: models.KindUpdate, Identity: "9"}, models.SeenRecord{Seen: true, Accepted: true}))

	raw, err := os.ReadFile(filePath)
	require.NoError(t, err)

	var data JSONData
	require.NoError(t, json.Unmarshal(raw, &data))
	require.Contains(t, data.Seen, "update:9")
	assert.True(t, data.Seen["update:9"].Accepted)
	assert.False(t, data.LastUpdated.IsZero())
}

func TestJSONStorage_CorruptFile(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "seen.json")
	require.NoError(t, os.WriteFile(filePath, []byte("{not json"), 0600))

	_, err := NewJSONStorage(Config{Path: filePath})
	assert.Error(t, err)
}
