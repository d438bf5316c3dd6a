package notify

import (
	"context"
	"errors"
	"fmt"
	"notifier/internal/storage"

	"github.com/google/uuid"
)

// DeviceID returns the persisted device GUID, generating and storing one on
// first use. The GUID identifies this install in view reports.
func DeviceID(ctx context.Context, settings storage.SettingsStore) (string, error) {
	guid, err := settings.GetSetting(ctx, storage.SettingDeviceGUID)
	if err == nil && guid != "" {
		return guid, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("failed to load device id: %w", err)
	}

	guid = uuid.NewString()
	if err := settings.SetSetting(ctx, storage.SettingDeviceGUID, guid); err != nil {
		return "", fmt.Errorf("failed to save device id: %w", err)
	}
	return guid, nil
}
