package storage

import (
	"context"
	"errors"
	"fmt"
	"notifier/internal/models"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStorageContract exercises the behaviour every backend must share.
func runStorageContract(t *testing.T, storage Storage) {
	t.Helper()
	ctx := context.Background()
	recordedAt := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

	t.Run("Unknown Key", func(t *testing.T) {
		rec, err := storage.GetSeen(ctx, models.SeenKey{Kind: models.KindUpdate, Identity: "missing"})
		assert.Nil(t, rec)
		assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
	})

	t.Run("Set And Get", func(t *testing.T) {
		key := models.SeenKey{Kind: models.KindUpdate, Identity: "42"}
		require.NoError(t, storage.SetSeen(ctx, key, models.SeenRecord{Seen: true, Accepted: true, RecordedAt: recordedAt}))

		rec, err := storage.GetSeen(ctx, key)
		require.NoError(t, err)
		assert.True(t, rec.Seen)
		assert.True(t, rec.Accepted)
		assert.Empty(t, rec.Answer)
		assert.True(t, recordedAt.Equal(rec.RecordedAt), "recorded_at %v != %v", rec.RecordedAt, recordedAt)
	})

	t.Run("Overwrite", func(t *testing.T) {
		key := models.SeenKey{Kind: models.KindRateReminder, Identity: "r-1"}
		require.NoError(t, storage.SetSeen(ctx, key, models.SeenRecord{Seen: true, Answer: models.RateAnswerLater, RecordedAt: recordedAt}))
		require.NoError(t, storage.SetSeen(ctx, key, models.SeenRecord{Seen: true, Answer: models.RateAnswerNever, RecordedAt: recordedAt.Add(time.Hour)}))

		rec, err := storage.GetSeen(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, models.RateAnswerNever, rec.Answer)
		assert.True(t, recordedAt.Add(time.Hour).Equal(rec.RecordedAt))
	})

	t.Run("Kinds Do Not Collide", func(t *testing.T) {
		update := models.SeenKey{Kind: models.KindUpdate, Identity: "7"}
		whatsNew := models.SeenKey{Kind: models.KindWhatsNew, Identity: "7"}
		require.NoError(t, storage.SetSeen(ctx, whatsNew, models.SeenRecord{Seen: true, RecordedAt: recordedAt}))

		_, err := storage.GetSeen(ctx, update)
		assert.ErrorIs(t, err, ErrNotFound)

		rec, err := storage.GetSeen(ctx, whatsNew)
		require.NoError(t, err)
		assert.True(t, rec.Seen)
	})

	t.Run("Settings", func(t *testing.T) {
		_, err := storage.GetSetting(ctx, SettingDeviceGUID)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, storage.SetSetting(ctx, SettingPreviousVersion, "1.0.0"))
		require.NoError(t, storage.SetSetting(ctx, SettingPreviousVersion, "1.1.0"))

		value, err := storage.GetSetting(ctx, SettingPreviousVersion)
		require.NoError(t, err)
		assert.Equal(t, "1.1.0", value)
	})

	t.Run("Concurrent Writes", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := models.SeenKey{Kind: models.KindMessage, Identity: fmt.Sprintf("m-%d", i)}
				assert.NoError(t, storage.SetSeen(ctx, key, models.SeenRecord{Seen: true, RecordedAt: recordedAt}))
			}(i)
		}
		wg.Wait()

		for i := 0; i < 10; i++ {
			rec, err := storage.GetSeen(ctx, models.SeenKey{Kind: models.KindMessage, Identity: fmt.Sprintf("m-%d", i)})
			require.NoError(t, err)
			assert.True(t, rec.Seen)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, storage.Ping(ctx))
	})
}
