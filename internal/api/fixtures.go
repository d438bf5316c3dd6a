package api

import (
	"encoding/json"
	"fmt"
	"notifier/internal/models"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixtures is the content served by the stub notify API.
type Fixtures struct {
	// NewerVersion is offered to clients whose current version is older.
	NewerVersion *models.NewerVersion `json:"newer_version"`

	// Changelogs are offered as new_in_version to clients that just
	// upgraded to the changelog's version.
	Changelogs []models.Changelog `json:"changelogs"`

	Messages     []models.Message     `json:"messages"`
	RateReminder *models.RateReminder `json:"rate_reminder"`
}

// LoadFixtures reads fixtures from a YAML file. Keys use the same
// snake_case names as the JSON payloads.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures file: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes YAML fixtures.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures YAML: %w", err)
	}

	// Route through JSON so the payload models need only one set of tags.
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to convert fixtures: %w", err)
	}

	var fixtures Fixtures
	if err := json.Unmarshal(encoded, &fixtures); err != nil {
		return nil, fmt.Errorf("invalid fixtures: %w", err)
	}
	return &fixtures, nil
}
