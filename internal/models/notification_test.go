package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUrgency(t *testing.T) {
	tests := []struct {
		state    string
		expected Urgency
		known    bool
	}{
		{"force", UrgencyForce, true},
		{"FORCE", UrgencyForce, true},
		{"remind", UrgencyRemind, true},
		{" remind ", UrgencyRemind, true},
		{"disabled", UrgencyDisabled, true},
		{"", UrgencyDisabled, true},
		{"soon", UrgencyDisabled, false},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			u, known := ParseUrgency(tt.state)
			assert.Equal(t, tt.expected, u)
			assert.Equal(t, tt.known, known)
		})
	}
}

func TestItemIdentity(t *testing.T) {
	items := []struct {
		item     Item
		kind     Kind
		identity string
	}{
		{UpdateAlert{VersionID: 42}, KindUpdate, "42"},
		{WhatsNew{UpdateID: 7}, KindWhatsNew, "7"},
		{MessageItem{MessageID: "m-1"}, KindMessage, "m-1"},
		{RateReminderPrompt{PromptID: "r-9"}, KindRateReminder, "r-9"},
	}

	for _, tt := range items {
		assert.Equal(t, tt.kind, tt.item.Kind())
		assert.Equal(t, tt.identity, tt.item.Identity())
		assert.Equal(t, string(tt.kind)+":"+tt.identity, KeyOf(tt.item).String())
	}
}

func TestUpdateAlert_Dismissible(t *testing.T) {
	assert.False(t, UpdateAlert{Urgency: UrgencyForce, DismissLabel: "Later"}.Dismissible())
	assert.True(t, UpdateAlert{Urgency: UrgencyRemind, DismissLabel: "Later"}.Dismissible())
	assert.False(t, UpdateAlert{Urgency: UrgencyRemind}.Dismissible())
}

func TestParseSeenKey(t *testing.T) {
	key, err := ParseSeenKey("update:42")
	require.NoError(t, err)
	assert.Equal(t, SeenKey{Kind: KindUpdate, Identity: "42"}, key)

	key, err = ParseSeenKey("message:abc:def")
	require.NoError(t, err)
	assert.Equal(t, "abc:def", key.Identity)

	for _, bad := range []string{"", "update", "update:", "bogus:1"} {
		_, err := ParseSeenKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewSeenRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	rec := NewSeenRecord(KindUpdate, Outcome{Accepted: true, Answer: RateAnswerRate}, now)
	assert.True(t, rec.Seen)
	assert.True(t, rec.Accepted)
	assert.Empty(t, rec.Answer)
	assert.Equal(t, time.UTC, rec.RecordedAt.Location())

	rec = NewSeenRecord(KindRateReminder, Outcome{Answer: RateAnswerNever}, now)
	assert.True(t, rec.Seen)
	assert.Equal(t, RateAnswerNever, rec.Answer)

	rec = NewSeenRecord(KindMessage, Outcome{Accepted: true}, now)
	assert.True(t, rec.Seen)
	assert.False(t, rec.Accepted)
}

func TestAppVersions(t *testing.T) {
	v := AppVersions{Current: "1.0"}
	assert.Equal(t, "1.0", v.Effective())
	assert.Equal(t, "1.0", v.PreviousOrEffective())

	v = AppVersions{Previous: "0.9", Current: "1.0", Override: "2.0"}
	assert.Equal(t, "2.0", v.Effective())
	assert.Equal(t, "0.9", v.PreviousOrEffective())
}

func TestNormalize(t *testing.T) {
	alert := UpdateAlert{Urgency: UrgencyForce, VersionID: 3}
	assert.Equal(t, alert, Normalize(&alert))
	assert.Equal(t, alert, Normalize(alert))
	assert.Equal(t, WhatsNew{UpdateID: 1}, Normalize(&WhatsNew{UpdateID: 1}))
	assert.Equal(t, MessageItem{MessageID: "m"}, Normalize(&MessageItem{MessageID: "m"}))
	assert.Equal(t, RateReminderPrompt{PromptID: "r"}, Normalize(&RateReminderPrompt{PromptID: "r"}))

	var missing *UpdateAlert
	assert.Nil(t, Normalize(missing))
	assert.Nil(t, Normalize(nil))
}
