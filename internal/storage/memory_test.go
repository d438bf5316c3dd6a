package storage

import (
	"context"
	"notifier/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	storage, err := NewMemoryStorage(Config{})
	require.NoError(t, err)
	defer storage.Close()

	runStorageContract(t, storage)
}

func TestMemoryStorage_ReturnsCopy(t *testing.T) {
	storage, err := NewMemoryStorage(Config{})
	require.NoError(t, err)

	ctx := context.Background()
	key := models.SeenKey{Kind: models.KindUpdate, Identity: "1"}
	require.NoError(t, storage.SetSeen(ctx, key, models.SeenRecord{Seen: true}))

	rec, err := storage.GetSeen(ctx, key)
	require.NoError(t, err)
	rec.Seen = false

	again, err := storage.GetSeen(ctx, key)
	require.NoError(t, err)
	assert.True(t, again.Seen)
}

func TestMemoryStorage_CloseClears(t *testing.T) {
	storage, err := NewMemoryStorage(Config{})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, storage.SetSetting(ctx, SettingDeviceGUID, "abc"))
	require.NoError(t, storage.Close())

	_, err = storage.GetSetting(ctx, SettingDeviceGUID)
	assert.ErrorIs(t, err, ErrNotFound)
}
