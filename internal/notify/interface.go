package notify

import (
	"context"
	"notifier/internal/models"
)

// Fetcher retrieves notify payloads from the remote service.
type Fetcher interface {
	// FetchUpdateCheck asks the server about newer versions and the
	// changelog of the installed one.
	FetchUpdateCheck(ctx context.Context, oldVersion, currentVersion string) (*models.UpdateCheckPayload, error)

	// FetchMessages returns the messages currently published for the app.
	FetchMessages(ctx context.Context) ([]models.Message, error)

	// FetchRateReminder returns the active rate reminder, or nil when none is due.
	FetchRateReminder(ctx context.Context) (*models.RateReminder, error)
}

// Presenter displays an item to the user. The presenter owns the handle and
// must eventually Resolve it (or Cancel it if the item could not be shown).
// Resolving may happen before Present returns or at any later time.
type Presenter interface {
	Present(ctx context.Context, item models.Item, handle *Handle) error
}

// LinkOpener performs the "open store link" effect.
type LinkOpener interface {
	Open(ctx context.Context, link string) error
}

// ViewReporter tells the remote service a notification was answered.
type ViewReporter interface {
	ReportView(ctx context.Context, item models.Item, outcome models.Outcome) error
}

// Recorder receives arbitration events, typically for metrics.
type Recorder interface {
	Presented(ctx context.Context, kind models.Kind)
	Rejected(ctx context.Context, kind models.Kind, reason string)
	Resolved(ctx context.Context, kind models.Kind, outcome models.Outcome)
}

// ServiceInterface defines the notification operations exposed to hosts.
type ServiceInterface interface {
	HandleUpdate(ctx context.Context, payload *models.UpdateCheckPayload) (bool, error)
	HandleWhatsNew(ctx context.Context, changelog *models.Changelog) (bool, error)
	HandleMessage(ctx context.Context, message *models.Message) (bool, error)
	HandleRateReminder(ctx context.Context, reminder *models.RateReminder) (bool, error)
	Sync(ctx context.Context, fetcher Fetcher) (*SyncReport, error)
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)

type nopRecorder struct{}

func (nopRecorder) Presented(context.Context, models.Kind)                {}
func (nopRecorder) Rejected(context.Context, models.Kind, string)         {}
func (nopRecorder) Resolved(context.Context, models.Kind, models.Outcome) {}
