package present

import (
	"context"
	"log/slog"
	"notifier/internal/models"
	"notifier/internal/notify"
)

// Policy picks the answer a Headless presenter gives.
type Policy func(item models.Item, choices []Choice) models.Outcome

// AcceptFirst picks the first button: install for updates, rate for
// rate reminders.
func AcceptFirst(_ models.Item, choices []Choice) models.Outcome {
	return choices[0].Outcome
}

// DismissLast picks the last button: dismiss for remind updates, never for
// rate reminders. Forced updates only have the accept button.
func DismissLast(_ models.Item, choices []Choice) models.Outcome {
	return choices[len(choices)-1].Outcome
}

// Headless logs each item and answers it immediately with a policy.
type Headless struct {
	logger *slog.Logger
	policy Policy
}

// NewHeadless returns a presenter for hosts without a user in front of them.
func NewHeadless(logger *slog.Logger, policy Policy) *Headless {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == nil {
		policy = DismissLast
	}
	return &Headless{logger: logger, policy: policy}
}

func (h *Headless) Present(ctx context.Context, item models.Item, handle *notify.Handle) error {
	choices, err := Choices(item)
	if err != nil {
		return err
	}
	title, body := Headline(item)
	outcome := h.policy(item, choices)

	h.logger.Info("Notification presented",
		"kind", item.Kind(),
		"identity", item.Identity(),
		"title", title,
		"body", body,
		"accepted", outcome.Accepted,
		"answer", outcome.Answer,
	)
	return handle.Resolve(ctx, outcome)
}

var _ notify.Presenter = (*Headless)(nil)
