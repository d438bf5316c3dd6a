// Package models - Notification items, outcomes and seen records.
// This file defines the closed set of notification kinds the arbiter can
// present and the records persisted once the user has answered one.
//
// Design Rationale:
// - Item is a closed interface: only the four kinds below implement it
// - Every item owns a stable identity used as the seen-store key
// - Force update alerts carry no dismiss label and are never suppressed
// - Rate-reminder answers are ternary; every other kind records a boolean
package models

import (
	"fmt"
	"strings"
	"time"
)

// Kind discriminates the notification variants.
type Kind string

const (
	KindUpdate       Kind = "update"
	KindWhatsNew     Kind = "whats_new"
	KindMessage      Kind = "message"
	KindRateReminder Kind = "rate_reminder"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindUpdate, KindWhatsNew, KindMessage, KindRateReminder:
		return true
	}
	return false
}

// Urgency is the server-declared severity of an update.
type Urgency int

const (
	UrgencyDisabled Urgency = iota
	UrgencyRemind
	UrgencyForce
)

// ParseUrgency maps the server "state" field onto an Urgency.
// The second return value is false for states the client does not know.
func ParseUrgency(state string) (Urgency, bool) {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "force":
		return UrgencyForce, true
	case "remind":
		return UrgencyRemind, true
	case "disabled", "":
		return UrgencyDisabled, true
	default:
		return UrgencyDisabled, false
	}
}

func (u Urgency) String() string {
	switch u {
	case UrgencyForce:
		return "force"
	case UrgencyRemind:
		return "remind"
	default:
		return "disabled"
	}
}

// RateAnswer is the user's answer to a rate reminder. The raw values match
// what the notify API expects in view reports.
type RateAnswer string

const (
	RateAnswerRate  RateAnswer = "yes"
	RateAnswerLater RateAnswer = "later"
	RateAnswerNever RateAnswer = "no"
)

// Valid reports whether a is one of the three known answers.
func (a RateAnswer) Valid() bool {
	switch a {
	case RateAnswerRate, RateAnswerLater, RateAnswerNever:
		return true
	}
	return false
}

// Item is a notification that can be offered to the arbiter.
type Item interface {
	Kind() Kind
	// Identity is the stable key distinguishing this instance from others of the same kind.
	Identity() string
	item()
}

// Normalize returns it in value form. The item structs satisfy Item through
// pointers too; consumers switch on the value types, so pointers are
// dereferenced here. A nil pointer yields nil.
func Normalize(it Item) Item {
	switch p := it.(type) {
	case *UpdateAlert:
		if p == nil {
			return nil
		}
		return *p
	case *WhatsNew:
		if p == nil {
			return nil
		}
		return *p
	case *MessageItem:
		if p == nil {
			return nil
		}
		return *p
	case *RateReminderPrompt:
		if p == nil {
			return nil
		}
		return *p
	}
	return it
}

// UpdateAlert prompts the user to install a newer app version.
type UpdateAlert struct {
	Urgency       Urgency `json:"urgency"`
	VersionID     int64   `json:"version_id"`
	Version       string  `json:"version,omitempty"`
	Link          string  `json:"link,omitempty"`
	Title         string  `json:"title"`
	Message       string  `json:"message"`
	PositiveLabel string  `json:"positive_label"`
	DismissLabel  string  `json:"dismiss_label,omitempty"`
}

func (UpdateAlert) Kind() Kind { return KindUpdate }

func (a UpdateAlert) Identity() string { return fmt.Sprintf("%d", a.VersionID) }

// Dismissible is false for forced updates, which block usage until resolved.
func (a UpdateAlert) Dismissible() bool {
	return a.Urgency != UrgencyForce && a.DismissLabel != ""
}

func (UpdateAlert) item() {}

// WhatsNew shows the changelog of the version the user just upgraded to.
type WhatsNew struct {
	UpdateID int64  `json:"update_id"`
	Title    string `json:"title"`
	Message  string `json:"message"`
}

func (WhatsNew) Kind() Kind { return KindWhatsNew }

func (w WhatsNew) Identity() string { return fmt.Sprintf("%d", w.UpdateID) }

func (WhatsNew) item() {}

// MessageItem is a plain server-pushed text message.
type MessageItem struct {
	MessageID string `json:"message_id"`
	Text      string `json:"text"`
}

func (MessageItem) Kind() Kind { return KindMessage }

func (m MessageItem) Identity() string { return m.MessageID }

func (MessageItem) item() {}

// RateReminderPrompt asks the user to rate the app.
type RateReminderPrompt struct {
	PromptID   string `json:"prompt_id"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	RateLabel  string `json:"rate_label"`
	LaterLabel string `json:"later_label"`
	NeverLabel string `json:"never_label"`
	Link       string `json:"link,omitempty"`
}

func (RateReminderPrompt) Kind() Kind { return KindRateReminder }

func (r RateReminderPrompt) Identity() string { return r.PromptID }

func (RateReminderPrompt) item() {}

// Outcome is what the user did with a presented notification.
// Accepted is meaningful for update alerts (store button pressed); Answer
// only for rate reminders.
type Outcome struct {
	Accepted bool       `json:"accepted"`
	Answer   RateAnswer `json:"answer,omitempty"`
}

// SeenKey identifies a seen record.
type SeenKey struct {
	Kind     Kind
	Identity string
}

// KeyOf returns the seen-store key of an item.
func KeyOf(it Item) SeenKey {
	return SeenKey{Kind: it.Kind(), Identity: it.Identity()}
}

// String renders the persisted key layout "<kind>:<identity>".
func (k SeenKey) String() string {
	return string(k.Kind) + ":" + k.Identity
}

// ParseSeenKey is the inverse of SeenKey.String.
func ParseSeenKey(s string) (SeenKey, error) {
	kind, identity, ok := strings.Cut(s, ":")
	if !ok || !Kind(kind).Valid() || identity == "" {
		return SeenKey{}, fmt.Errorf("invalid seen key: %q", s)
	}
	return SeenKey{Kind: Kind(kind), Identity: identity}, nil
}

// SeenRecord is the persisted fact that a notification was answered.
type SeenRecord struct {
	Seen       bool       `json:"seen"`
	Accepted   bool       `json:"accepted,omitempty"`
	Answer     RateAnswer `json:"answer,omitempty"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// NewSeenRecord builds the record stored when an item of the given kind
// resolves with outcome.
func NewSeenRecord(kind Kind, outcome Outcome, now time.Time) SeenRecord {
	rec := SeenRecord{Seen: true, RecordedAt: now.UTC()}
	switch kind {
	case KindUpdate:
		rec.Accepted = outcome.Accepted
	case KindRateReminder:
		rec.Answer = outcome.Answer
	}
	return rec
}
