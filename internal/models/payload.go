// Package models - Notify API payloads.
// This file defines the JSON documents returned by the notify endpoints. All
// payloads arrive wrapped in a {"data": ...} envelope and use snake_case keys.
package models

import "time"

// Envelope is the {"data": ...} wrapper used by every notify endpoint.
type Envelope[T any] struct {
	Data T `json:"data"`
}

// UpdateCheckPayload is the response of the update check endpoint.
type UpdateCheckPayload struct {
	NewerVersion *NewerVersion `json:"newer_version,omitempty"`
	NewInVersion *Changelog    `json:"new_in_version,omitempty"`
}

// NewerVersion describes the version record the server wants the user on.
type NewerVersion struct {
	State     string             `json:"state"`
	LastID    int64              `json:"last_id"`
	Version   string             `json:"version"`
	Link      string             `json:"link,omitempty"`
	Translate UpdateTranslations `json:"translate"`
}

// UpdateTranslations holds the localized strings of an update prompt.
type UpdateTranslations struct {
	Title       string `json:"title"`
	Message     string `json:"message"`
	PositiveBtn string `json:"positive_btn"`
	NegativeBtn string `json:"negative_btn,omitempty"`
}

// Changelog is the "what's new" block for the version just installed.
type Changelog struct {
	State     string                `json:"state,omitempty"`
	LastID    int64                 `json:"last_id"`
	Version   string                `json:"version"`
	Translate *ChangelogTranslation `json:"translate,omitempty"`
}

// ChangelogTranslation holds the localized what's-new strings.
type ChangelogTranslation struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Message is a server-pushed text message.
type Message struct {
	ID            string `json:"id"`
	ApplicationID int64  `json:"application_id,omitempty"`
	Message       string `json:"message"`
	ShowSetting   string `json:"show_setting,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// RateReminder is a rate-the-app prompt.
type RateReminder struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	YesBtn   string `json:"yes_btn"`
	LaterBtn string `json:"later_btn"`
	NoBtn    string `json:"no_btn"`
	Link     string `json:"link,omitempty"`
}

// ViewReport is posted back to the notify API once a notification resolves.
type ViewReport struct {
	GUID      string     `json:"guid"`
	Kind      Kind       `json:"-"`
	Platform  string     `json:"platform,omitempty"`
	UpdateID  int64      `json:"update_id,omitempty"`
	MessageID string     `json:"message_id,omitempty"`
	Type      string     `json:"type,omitempty"`
	Answer    string     `json:"answer,omitempty"`
	ViewedAt  *time.Time `json:"viewed_at,omitempty"`
}

// AppVersions is the locally known version state passed to classification.
// Override, when set, takes precedence over the detected current version.
type AppVersions struct {
	Previous string `json:"previous"`
	Current  string `json:"current"`
	Override string `json:"override,omitempty"`
}

// Effective returns the version the client reports as current.
func (v AppVersions) Effective() string {
	if v.Override != "" {
		return v.Override
	}
	return v.Current
}

// PreviousOrEffective returns the previous version, falling back to the
// effective current version on first launch.
func (v AppVersions) PreviousOrEffective() string {
	if v.Previous != "" {
		return v.Previous
	}
	return v.Effective()
}

// UpdateDecision is the classifier's verdict for an update check.
type UpdateDecision struct {
	Urgency         Urgency `json:"urgency"`
	VersionID       int64   `json:"version_id"`
	Version         string  `json:"version,omitempty"`
	Link            string  `json:"link,omitempty"`
	Title           string  `json:"title"`
	Message         string  `json:"message"`
	PositiveLabel   string  `json:"positive_label"`
	DismissLabel    string  `json:"dismiss_label,omitempty"`
	CurrentVersion  string  `json:"current_version"`
	PreviousVersion string  `json:"previous_version"`
}

// Alert converts the decision into the item offered to the arbiter.
func (d *UpdateDecision) Alert() UpdateAlert {
	return UpdateAlert{
		Urgency:       d.Urgency,
		VersionID:     d.VersionID,
		Version:       d.Version,
		Link:          d.Link,
		Title:         d.Title,
		Message:       d.Message,
		PositiveLabel: d.PositiveLabel,
		DismissLabel:  d.DismissLabel,
	}
}
