package storage

import (
	"encoding/json"
	"fmt"
	"notifier/internal/models"
	"time"
)

// marshalRecord converts a SeenRecord to JSON bytes for key-value backends.
func marshalRecord(record models.SeenRecord) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal seen record: %w", err)
	}
	return data, nil
}

// unmarshalRecord converts JSON bytes to a SeenRecord.
func unmarshalRecord(data []byte) (*models.SeenRecord, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("unmarshal seen record: empty value")
	}
	var record models.SeenRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshal seen record: %w", err)
	}
	return &record, nil
}

// formatTimestamp renders a time for TEXT timestamp columns.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp parses a TEXT timestamp column; empty means the zero time.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// boolToInt maps a bool onto SQLite's INTEGER boolean convention.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
