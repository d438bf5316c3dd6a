package cli

import (
	"context"
	"errors"
	"fmt"
	"notifier/internal/models"
	"notifier/internal/storage"
	"time"

	"github.com/spf13/cobra"
)

// SeenCmd returns the seen command
func SeenCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seen",
		Short: "Inspect or edit seen records",
		Long: `Seen records are keyed "<kind>:<identity>", for example update:42,
whats_new:7, message:m-1 or rate_reminder:r-9.`,
	}

	cmd.AddCommand(seenGetCmd(opts))
	cmd.AddCommand(seenMarkCmd(opts))
	return cmd
}

func seenGetCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Show the seen record for a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := models.ParseSeenKey(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				record, err := app.Store.GetSeen(ctx, key)
				if errors.Is(err, storage.ErrNotFound) {
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: not seen\n", key)
					return err
				}
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), record)
			})
		},
	}
}

func seenMarkCmd(opts *Options) *cobra.Command {
	var accepted bool
	var answer string

	cmd := &cobra.Command{
		Use:   "mark <key>",
		Short: "Record a notification as answered without showing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := models.ParseSeenKey(args[0])
			if err != nil {
				return err
			}
			outcome := models.Outcome{Accepted: accepted, Answer: models.RateAnswer(answer)}
			if key.Kind == models.KindRateReminder && !outcome.Answer.Valid() {
				return fmt.Errorf("rate reminders need --answer yes, later or no")
			}
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				record := models.NewSeenRecord(key.Kind, outcome, time.Now())
				if err := app.Store.SetSeen(ctx, key, record); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: marked seen\n", key)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&accepted, "accepted", false, "record the update alert as accepted")
	cmd.Flags().StringVar(&answer, "answer", "", "rate reminder answer: yes, later or no")
	return cmd
}
