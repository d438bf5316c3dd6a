package present

import (
	"bytes"
	"context"
	"notifier/internal/models"
	"notifier/internal/notify"
	"notifier/internal/storage"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArbiter(t *testing.T) (*notify.Arbiter, storage.Storage) {
	t.Helper()
	store, err := storage.NewMemoryStorage(storage.Config{Type: "memory"})
	require.NoError(t, err)
	return notify.NewArbiter(store), store
}

func TestChoices(t *testing.T) {
	tests := []struct {
		name   string
		item   models.Item
		labels []string
	}{
		{
			name:   "forced update has no dismiss",
			item:   models.UpdateAlert{Urgency: models.UrgencyForce, PositiveLabel: "Update", DismissLabel: "Later"},
			labels: []string{"Update"},
		},
		{
			name:   "remind update",
			item:   models.UpdateAlert{Urgency: models.UrgencyRemind, PositiveLabel: "Update", DismissLabel: "Later"},
			labels: []string{"Update", "Later"},
		},
		{
			name:   "forced update by pointer",
			item:   &models.UpdateAlert{Urgency: models.UrgencyForce, PositiveLabel: "Update", DismissLabel: "Later"},
			labels: []string{"Update"},
		},
		{
			name:   "message by pointer",
			item:   &models.MessageItem{MessageID: "m", Text: "hi"},
			labels: []string{DefaultOKLabel},
		},
		{
			name:   "whats new",
			item:   models.WhatsNew{UpdateID: 1},
			labels: []string{DefaultOKLabel},
		},
		{
			name:   "rate reminder defaults",
			item:   models.RateReminderPrompt{PromptID: "r"},
			labels: []string{DefaultRateLabel, DefaultLaterLabel, DefaultNeverLabel},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			choices, err := Choices(tt.item)
			require.NoError(t, err)
			var labels []string
			for _, c := range choices {
				labels = append(labels, c.Label)
			}
			assert.Equal(t, tt.labels, labels)
		})
	}
}

func TestChoices_RateAnswersAreValid(t *testing.T) {
	choices, err := Choices(models.RateReminderPrompt{PromptID: "r"})
	require.NoError(t, err)
	for _, c := range choices {
		assert.True(t, c.Outcome.Answer.Valid(), c.Label)
	}
}

func TestRender(t *testing.T) {
	out := Render(models.UpdateAlert{
		Urgency: models.UrgencyForce,
		Version: "2.0.0",
		Title:   "Update required",
		Message: "This version is no longer supported",
	}, 50)

	assert.Contains(t, out, "Update required")
	assert.Contains(t, out, "required update")
	assert.Contains(t, out, "2.0.0")

	out = Render(models.MessageItem{MessageID: "m", Text: "Maintenance tonight"}, 0)
	assert.Contains(t, out, "Maintenance tonight")
	assert.Contains(t, out, "message")
}

func TestHeadless_ResolvesWithPolicy(t *testing.T) {
	arbiter, store := newArbiter(t)
	ctx := context.Background()
	item := models.RateReminderPrompt{PromptID: "r-1"}

	handle, err := arbiter.RequestPresent(ctx, item, nil)
	require.NoError(t, err)

	require.NoError(t, NewHeadless(nil, DismissLast).Present(ctx, item, handle))

	assert.False(t, arbiter.Busy())
	rec, err := store.GetSeen(ctx, models.KeyOf(item))
	require.NoError(t, err)
	assert.Equal(t, models.RateAnswerNever, rec.Answer)
}

func TestHeadless_AcceptFirst(t *testing.T) {
	arbiter, store := newArbiter(t)
	ctx := context.Background()
	item := models.UpdateAlert{Urgency: models.UrgencyRemind, VersionID: 9, PositiveLabel: "Update", DismissLabel: "Later"}

	var got models.Outcome
	handle, err := arbiter.RequestPresent(ctx, item, func(_ models.Item, o models.Outcome) { got = o })
	require.NoError(t, err)

	require.NoError(t, NewHeadless(nil, AcceptFirst).Present(ctx, item, handle))

	assert.True(t, got.Accepted)
	rec, err := store.GetSeen(ctx, models.KeyOf(item))
	require.NoError(t, err)
	assert.True(t, rec.Accepted)
}

func TestTerminal_AccessibleSelect(t *testing.T) {
	arbiter, store := newArbiter(t)
	ctx := context.Background()
	item := models.UpdateAlert{Urgency: models.UrgencyRemind, VersionID: 42, Title: "New version", PositiveLabel: "Update", DismissLabel: "Later"}

	handle, err := arbiter.RequestPresent(ctx, item, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	term := NewTerminal(WithIO(strings.NewReader("2\n"), &out), WithAccessible(true))
	require.NoError(t, term.Present(ctx, item, handle))

	assert.Contains(t, out.String(), "New version")
	rec, err := store.GetSeen(ctx, models.KeyOf(item))
	require.NoError(t, err)
	assert.False(t, rec.Accepted, "second option is the dismiss button")
}

func TestPrintOpener(t *testing.T) {
	var out bytes.Buffer
	opener := PrintOpener{Out: &out}

	require.NoError(t, opener.Open(context.Background(), "itms-apps://itunes.apple.com/app/id123"))
	assert.Equal(t, "Open itms-apps://itunes.apple.com/app/id123\n", out.String())

	assert.Error(t, opener.Open(context.Background(), "not a link"))
}

func TestBrowserOpener(t *testing.T) {
	var opened string
	ok := BrowserOpener{command: func(ctx context.Context, link string) *exec.Cmd {
		opened = link
		return exec.CommandContext(ctx, "go", "version")
	}}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go binary not on PATH")
	}

	require.NoError(t, ok.Open(context.Background(), "https://example.com/app"))
	assert.Equal(t, "https://example.com/app", opened)

	failing := BrowserOpener{command: func(ctx context.Context, link string) *exec.Cmd {
		return exec.CommandContext(ctx, "/nonexistent/launcher", link)
	}}
	err := failing.Open(context.Background(), "https://example.com/app")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open")
}
