package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// SyncCmd returns the sync command
func SyncCmd(opts *Options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch every notification kind and show what is due",
		Long: `Run one full check against the notify API:
- update alert for a newer version
- what's new, when the app version moved forward since the last sync
- server messages
- rate reminder

The current version is stored as the previous version afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				report, err := app.Service.Sync(ctx, app.Client)
				if report != nil {
					if asJSON {
						if encErr := writeJSON(cmd.OutOrStdout(), report); encErr != nil {
							return encErr
						}
					} else {
						out := cmd.OutOrStdout()
						fmt.Fprintf(out, "Version: %s (previous %s)\n", report.Versions.Effective(), report.Versions.PreviousOrEffective())
						fmt.Fprintf(out, "Update shown: %t\n", report.Update)
						fmt.Fprintf(out, "What's new shown: %t\n", report.WhatsNew)
						fmt.Fprintf(out, "Messages shown: %d\n", report.MessagesShown)
						fmt.Fprintf(out, "Rate reminder shown: %t\n", report.RateReminder)
					}
				}
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the sync report as JSON")
	return cmd
}

// UpdatesCmd returns the updates command
func UpdatesCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "updates",
		Short: "Check for a newer version and show the update alert",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				v := app.Service.Versions()
				payload, err := app.Client.FetchUpdateCheck(ctx, v.PreviousOrEffective(), v.Effective())
				if err != nil {
					return err
				}
				shown, err := app.Service.HandleUpdate(ctx, payload)
				if err != nil {
					return err
				}
				return reportShown(cmd.OutOrStdout(), "update alert", shown)
			})
		},
	}
}

// WhatsNewCmd returns the whats-new command
func WhatsNewCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "whats-new",
		Short: "Show the changelog of the installed version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				v := app.Service.Versions()
				payload, err := app.Client.FetchUpdateCheck(ctx, v.PreviousOrEffective(), v.Effective())
				if err != nil {
					return err
				}
				if payload == nil || payload.NewInVersion == nil {
					return reportShown(cmd.OutOrStdout(), "what's new", false)
				}
				shown, err := app.Service.HandleWhatsNew(ctx, payload.NewInVersion)
				if err != nil {
					return err
				}
				return reportShown(cmd.OutOrStdout(), "what's new", shown)
			})
		},
	}
}

// MessagesCmd returns the messages command
func MessagesCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "messages",
		Short: "Show unread server messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				messages, err := app.Client.FetchMessages(ctx)
				if err != nil {
					return err
				}
				shown := 0
				for i := range messages {
					ok, err := app.Service.HandleMessage(ctx, &messages[i])
					if err != nil {
						return err
					}
					if ok {
						shown++
					}
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Messages shown: %d of %d\n", shown, len(messages))
				return err
			})
		},
	}
}

// RateReminderCmd returns the rate-reminder command
func RateReminderCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "rate-reminder",
		Short: "Show the rate reminder when one is due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				reminder, err := app.Client.FetchRateReminder(ctx)
				if err != nil {
					return err
				}
				shown, err := app.Service.HandleRateReminder(ctx, reminder)
				if err != nil {
					return err
				}
				return reportShown(cmd.OutOrStdout(), "rate reminder", shown)
			})
		},
	}
}

func reportShown(w io.Writer, what string, shown bool) error {
	if shown {
		_, err := fmt.Fprintf(w, "Shown: %s\n", what)
		return err
	}
	_, err := fmt.Fprintf(w, "Nothing to show: %s\n", what)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
