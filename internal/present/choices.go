// Package present shows notification items to a person at a terminal, or
// answers them automatically for headless hosts.
package present

import (
	"fmt"
	"notifier/internal/models"
)

// Choice is one button offered for an item.
type Choice struct {
	Label   string
	Outcome models.Outcome
}

// Default button labels used when the server sends none.
const (
	DefaultOKLabel    = "OK"
	DefaultRateLabel  = "Rate now"
	DefaultLaterLabel = "Later"
	DefaultNeverLabel = "No thanks"
)

// Choices lists the buttons for item in display order. A forced update
// offers only the positive button.
func Choices(item models.Item) ([]Choice, error) {
	switch it := models.Normalize(item).(type) {
	case models.UpdateAlert:
		choices := []Choice{{Label: orDefault(it.PositiveLabel, DefaultOKLabel), Outcome: models.Outcome{Accepted: true}}}
		if it.Dismissible() {
			choices = append(choices, Choice{Label: it.DismissLabel, Outcome: models.Outcome{Accepted: false}})
		}
		return choices, nil
	case models.WhatsNew, models.MessageItem:
		return []Choice{{Label: DefaultOKLabel, Outcome: models.Outcome{Accepted: true}}}, nil
	case models.RateReminderPrompt:
		return []Choice{
			{Label: orDefault(it.RateLabel, DefaultRateLabel), Outcome: models.Outcome{Accepted: true, Answer: models.RateAnswerRate}},
			{Label: orDefault(it.LaterLabel, DefaultLaterLabel), Outcome: models.Outcome{Answer: models.RateAnswerLater}},
			{Label: orDefault(it.NeverLabel, DefaultNeverLabel), Outcome: models.Outcome{Answer: models.RateAnswerNever}},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported item type %T", item)
	}
}

// Headline returns the title and body text of item.
func Headline(item models.Item) (title, body string) {
	switch it := models.Normalize(item).(type) {
	case models.UpdateAlert:
		return it.Title, it.Message
	case models.WhatsNew:
		return it.Title, it.Message
	case models.MessageItem:
		return "", it.Text
	case models.RateReminderPrompt:
		return it.Title, it.Message
	}
	return "", ""
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
