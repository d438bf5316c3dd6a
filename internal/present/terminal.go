package present

import (
	"context"
	"errors"
	"fmt"
	"io"
	"notifier/internal/models"
	"notifier/internal/notify"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent = lipgloss.Color("#7D56F4")
	colorForce  = lipgloss.Color("#FF5F87")
	colorGray   = lipgloss.Color("#9B9B9B")

	titleStyle = lipgloss.NewStyle().Bold(true)
	bodyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	badgeStyle = lipgloss.NewStyle().Foreground(colorGray).Italic(true)
)

// Terminal asks the user through an interactive huh form.
type Terminal struct {
	in         io.Reader
	out        io.Writer
	accessible bool
	width      int
}

// TerminalOption configures a Terminal presenter.
type TerminalOption func(*Terminal)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) TerminalOption {
	return func(t *Terminal) {
		t.in = in
		t.out = out
	}
}

// WithAccessible switches huh to plain line prompts, for screen readers
// and dumb terminals.
func WithAccessible(accessible bool) TerminalOption {
	return func(t *Terminal) { t.accessible = accessible }
}

// WithWidth sets the panel width.
func WithWidth(width int) TerminalOption {
	return func(t *Terminal) { t.width = width }
}

// NewTerminal returns a presenter bound to the process terminal.
func NewTerminal(opts ...TerminalOption) *Terminal {
	t := &Terminal{in: os.Stdin, out: os.Stdout, width: 60}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Present renders item, waits for a choice and resolves handle with it.
// An aborted form returns an error without resolving so the caller can
// cancel the handle.
func (t *Terminal) Present(ctx context.Context, item models.Item, handle *notify.Handle) error {
	choices, err := Choices(item)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(t.out, Render(item, t.width)); err != nil {
		return fmt.Errorf("failed to render %s: %w", item.Kind(), err)
	}

	options := make([]huh.Option[int], len(choices))
	for i, c := range choices {
		options[i] = huh.NewOption(c.Label, i)
	}

	var selected int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title(prompt(item)).
				Options(options...).
				Value(&selected),
		),
	).
		WithInput(t.in).
		WithOutput(t.out).
		WithAccessible(t.accessible).
		WithShowHelp(false).
		WithWidth(t.width)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return fmt.Errorf("%s dismissed without an answer: %w", item.Kind(), err)
		}
		return fmt.Errorf("failed to run prompt: %w", err)
	}

	return handle.Resolve(ctx, choices[selected].Outcome)
}

// Render draws item as a bordered panel.
func Render(item models.Item, width int) string {
	title, body := Headline(item)

	border := colorAccent
	badge := strings.ReplaceAll(string(item.Kind()), "_", " ")
	if alert, ok := models.Normalize(item).(models.UpdateAlert); ok {
		if alert.Urgency == models.UrgencyForce {
			border = colorForce
			badge = "required update"
		}
		if alert.Version != "" {
			badge += " · " + alert.Version
		}
	}

	var lines []string
	lines = append(lines, badgeStyle.Render(badge))
	if title != "" {
		lines = append(lines, titleStyle.Render(title))
	}
	if body != "" {
		lines = append(lines, bodyStyle.Render(body))
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
	if width > 0 {
		panel = panel.Width(width)
	}
	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func prompt(item models.Item) string {
	switch item.Kind() {
	case models.KindRateReminder:
		return "Would you like to rate the app?"
	case models.KindUpdate:
		return "Update now?"
	default:
		return "Continue"
	}
}

var _ notify.Presenter = (*Terminal)(nil)
