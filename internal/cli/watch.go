package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// WatchCmd returns the watch command
func WatchCmd(opts *Options) *cobra.Command {
	var (
		interval time.Duration
		cycles   int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync periodically until interrupted",
		Long: `Run sync now and then again every --interval, the way a host app checks
on launch and when it returns to the foreground. A failed cycle is logged and
retried on the next tick. When metrics are enabled they are served for as
long as watch runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return errors.New("--interval must be positive")
			}
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				out := cmd.OutOrStdout()
				ticker := time.NewTicker(interval)
				defer ticker.Stop()

				for n := 1; ; n++ {
					report, err := app.Service.Sync(ctx, app.Client)
					switch {
					case err != nil:
						app.Logger.Warn("Sync failed", "cycle", n, "error", err)
						fmt.Fprintf(out, "cycle %d: failed: %v\n", n, err)
					default:
						fmt.Fprintf(out, "cycle %d: update=%t whats_new=%t messages=%d rate_reminder=%t\n",
							n, report.Update, report.WhatsNew, report.MessagesShown, report.RateReminder)
					}

					if cycles > 0 && n >= cycles {
						return nil
					}
					select {
					case <-ctx.Done():
						return nil
					case <-ticker.C:
					}
				}
			})
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 15*time.Minute, "time between syncs")
	cmd.Flags().IntVar(&cycles, "cycles", 0, "stop after this many syncs (0 runs until interrupted)")
	return cmd
}
