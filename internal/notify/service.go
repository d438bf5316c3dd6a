package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"notifier/internal/models"
	"notifier/internal/storage"
	"strings"
	"time"
)

// Service orchestrates classification and arbitration for each payload
// kind. It imposes no ordering between kinds; Sync is one convenient order.
type Service struct {
	arbiter   *Arbiter
	presenter Presenter
	opener    LinkOpener
	reporter  ViewReporter
	settings  storage.SettingsStore
	logger    *slog.Logger
	versions  models.AppVersions
	now       func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLinkOpener sets the collaborator that opens store links.
func WithLinkOpener(o LinkOpener) ServiceOption {
	return func(s *Service) { s.opener = o }
}

// WithViewReporter sets the collaborator told about answered notifications.
func WithViewReporter(r ViewReporter) ServiceOption {
	return func(s *Service) { s.reporter = r }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVersions sets the locally known app versions.
func WithVersions(v models.AppVersions) ServiceOption {
	return func(s *Service) { s.versions = v }
}

// WithSettings enables persistence of the previous app version and the last
// sync time across runs.
func WithSettings(st storage.SettingsStore) ServiceOption {
	return func(s *Service) { s.settings = st }
}

// NewService creates a service presenting through presenter.
func NewService(arbiter *Arbiter, presenter Presenter, opts ...ServiceOption) *Service {
	s := &Service{
		arbiter:   arbiter,
		presenter: presenter,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Versions returns the app versions the service classifies against.
func (s *Service) Versions() models.AppVersions {
	return s.versions
}

// HandleUpdate classifies an update check and presents the resulting alert.
// Accepting the alert opens its store link.
func (s *Service) HandleUpdate(ctx context.Context, payload *models.UpdateCheckPayload) (bool, error) {
	decision, ok := Classify(payload, s.versions)
	if !ok {
		s.logger.Debug("Update check produced no decision")
		return false, nil
	}
	return s.present(ctx, decision.Alert())
}

// HandleWhatsNew presents the changelog of the installed version.
func (s *Service) HandleWhatsNew(ctx context.Context, changelog *models.Changelog) (bool, error) {
	if changelog == nil || changelog.Translate == nil {
		return false, nil
	}
	if strings.EqualFold(strings.TrimSpace(changelog.State), "disabled") {
		return false, nil
	}
	return s.present(ctx, models.WhatsNew{
		UpdateID: changelog.LastID,
		Title:    changelog.Translate.Title,
		Message:  changelog.Translate.Message,
	})
}

// HandleMessage presents a plain server message.
func (s *Service) HandleMessage(ctx context.Context, message *models.Message) (bool, error) {
	if message == nil || message.ID == "" {
		return false, nil
	}
	return s.present(ctx, models.MessageItem{
		MessageID: message.ID,
		Text:      message.Message,
	})
}

// HandleRateReminder presents a rate reminder. Answering "rate" opens the
// reminder's link when it has one.
func (s *Service) HandleRateReminder(ctx context.Context, reminder *models.RateReminder) (bool, error) {
	if reminder == nil || reminder.ID == "" {
		return false, nil
	}
	return s.present(ctx, models.RateReminderPrompt{
		PromptID:   reminder.ID,
		Title:      reminder.Title,
		Message:    reminder.Body,
		RateLabel:  reminder.YesBtn,
		LaterLabel: reminder.LaterBtn,
		NeverLabel: reminder.NoBtn,
		Link:       reminder.Link,
	})
}

// present runs item through the arbiter and hands it to the presenter.
// Rejections are reported as (false, nil).
func (s *Service) present(ctx context.Context, item models.Item) (bool, error) {
	// Resolution may arrive after ctx is done; its effects must still run.
	effectCtx := context.WithoutCancel(ctx)

	handle, err := s.arbiter.RequestPresent(ctx, item, func(it models.Item, outcome models.Outcome) {
		s.afterResolve(effectCtx, it, outcome)
	})
	if err != nil {
		if IsRejection(err) {
			s.logger.Debug("Presentation rejected", "kind", item.Kind(), "identity", item.Identity(),
				"reason", rejectionReason(err))
			return false, nil
		}
		return false, err
	}

	if err := s.presenter.Present(ctx, item, handle); err != nil {
		// The user answered; only persisting the answer failed.
		if handle.Resolved() {
			return true, fmt.Errorf("failed to record %s: %w", models.KeyOf(item), err)
		}
		handle.Cancel()
		return false, fmt.Errorf("failed to present %s: %w", models.KeyOf(item), err)
	}
	return true, nil
}

// afterResolve performs the external effects of an answered item. Failures
// are logged; the answer is already recorded.
func (s *Service) afterResolve(ctx context.Context, item models.Item, outcome models.Outcome) {
	if link := linkToOpen(item, outcome); link != "" && s.opener != nil {
		if err := s.opener.Open(ctx, link); err != nil {
			s.logger.Warn("Failed to open link", "link", link, "error", err)
		}
	}

	if s.reporter != nil {
		if err := s.reporter.ReportView(ctx, item, outcome); err != nil {
			s.logger.Warn("Failed to report view", "kind", item.Kind(), "identity", item.Identity(), "error", err)
		}
	}
}

// linkToOpen returns the link the outcome asks to open, if any.
func linkToOpen(item models.Item, outcome models.Outcome) string {
	switch it := models.Normalize(item).(type) {
	case models.UpdateAlert:
		if outcome.Accepted {
			return it.Link
		}
	case models.RateReminderPrompt:
		if outcome.Answer == models.RateAnswerRate {
			return it.Link
		}
	}
	return ""
}

// SyncReport summarises what a Sync presented.
type SyncReport struct {
	Versions         models.AppVersions `json:"versions"`
	Update           bool               `json:"update"`
	WhatsNew         bool               `json:"whats_new"`
	MessagesShown    int                `json:"messages_shown"`
	RateReminder     bool               `json:"rate_reminder"`
	VersionAdvanced  bool               `json:"version_advanced"`
	PreviousRecorded bool               `json:"previous_recorded"`
}

// Sync fetches every payload kind and offers each one for presentation:
// update alert, then the what's-new changelog when the app version moved
// forward, then messages, then the rate reminder. On success the current
// version is persisted as the previous version for the next run.
func (s *Service) Sync(ctx context.Context, fetcher Fetcher) (*SyncReport, error) {
	versions, err := s.loadVersions(ctx)
	if err != nil {
		return nil, err
	}
	report := &SyncReport{Versions: versions}

	payload, err := fetcher.FetchUpdateCheck(ctx, versions.PreviousOrEffective(), versions.Effective())
	if err != nil {
		return report, fmt.Errorf("failed to fetch update check: %w", err)
	}

	if report.Update, err = s.HandleUpdate(ctx, payload); err != nil {
		return report, err
	}

	report.VersionAdvanced = models.IsVersionGreater(versions.Effective(), versions.PreviousOrEffective())
	if report.VersionAdvanced && payload != nil {
		if report.WhatsNew, err = s.HandleWhatsNew(ctx, payload.NewInVersion); err != nil {
			return report, err
		}
	}

	messages, err := fetcher.FetchMessages(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to fetch messages: %w", err)
	}
	for i := range messages {
		shown, err := s.HandleMessage(ctx, &messages[i])
		if err != nil {
			return report, err
		}
		if shown {
			report.MessagesShown++
		}
	}

	reminder, err := fetcher.FetchRateReminder(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to fetch rate reminder: %w", err)
	}
	if report.RateReminder, err = s.HandleRateReminder(ctx, reminder); err != nil {
		return report, err
	}

	if err := s.recordSync(ctx, versions); err != nil {
		return report, err
	}
	report.PreviousRecorded = s.settings != nil
	return report, nil
}

// loadVersions merges the configured versions with the persisted previous
// version.
func (s *Service) loadVersions(ctx context.Context) (models.AppVersions, error) {
	versions := s.versions
	if s.settings == nil || versions.Previous != "" {
		return versions, nil
	}

	previous, err := s.settings.GetSetting(ctx, storage.SettingPreviousVersion)
	switch {
	case err == nil:
		versions.Previous = previous
	case !errors.Is(err, storage.ErrNotFound):
		return versions, fmt.Errorf("failed to load previous version: %w", err)
	}
	return versions, nil
}

// recordSync persists the effective version and the sync time.
func (s *Service) recordSync(ctx context.Context, versions models.AppVersions) error {
	if s.settings == nil {
		return nil
	}
	if err := s.settings.SetSetting(ctx, storage.SettingPreviousVersion, versions.Effective()); err != nil {
		return fmt.Errorf("failed to save previous version: %w", err)
	}
	if err := s.settings.SetSetting(ctx, storage.SettingLastUpdated, s.now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to save last updated time: %w", err)
	}
	return nil
}

// LastUpdated returns the time of the last successful Sync, or the zero time.
func LastUpdated(ctx context.Context, settings storage.SettingsStore) (time.Time, error) {
	raw, err := settings.GetSetting(ctx, storage.SettingLastUpdated)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to load last updated time: %w", err)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid last updated time %q: %w", raw, err)
	}
	return t, nil
}
