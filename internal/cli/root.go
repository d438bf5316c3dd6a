package cli

import (
	"context"
	"notifier/internal/version"

	"github.com/spf13/cobra"
)

// RootCmd returns the notifier command with every subcommand attached.
func RootCmd() *cobra.Command {
	opts := &Options{}

	root := &cobra.Command{
		Use:     "notifier",
		Short:   "Decide and show update, what's-new, message and rate-reminder notifications",
		Version: version.GetInfo().String(),
		Long: `notifier talks to a notify API and decides which notification, if any,
to show: an update alert, the changelog of the installed version, a server
message or a rate-the-app reminder. At most one notification is shown at a
time and answered ones are never shown again (forced updates excepted).`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "path to configuration file")
	flags.BoolVar(&opts.Headless, "headless", false, "answer notifications automatically instead of prompting")
	flags.StringVar(&opts.Policy, "policy", "dismiss", "headless answer policy: accept or dismiss")
	flags.BoolVar(&opts.Accessible, "accessible", false, "use plain line prompts")
	flags.BoolVar(&opts.MetricsSummary, "metrics-summary", false, "print notification counters to stderr on exit")

	root.AddCommand(SyncCmd(opts))
	root.AddCommand(WatchCmd(opts))
	root.AddCommand(UpdatesCmd(opts))
	root.AddCommand(WhatsNewCmd(opts))
	root.AddCommand(MessagesCmd(opts))
	root.AddCommand(RateReminderCmd(opts))
	root.AddCommand(SeenCmd(opts))
	root.AddCommand(CompareCmd())
	root.AddCommand(DoctorCmd(opts))
	root.AddCommand(ConfigCmd())

	return root
}

// withApp bootstraps the app for cmd, runs fn and closes the app.
func withApp(cmd *cobra.Command, opts *Options, fn func(ctx context.Context, app *App) error) error {
	o := *opts
	if o.Out == nil {
		o.Out = cmd.OutOrStdout()
	}
	if o.In == nil {
		o.In = cmd.InOrStdin()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := Bootstrap(ctx, o)
	if err != nil {
		return err
	}
	defer app.Close(context.WithoutCancel(ctx))

	err = fn(ctx, app)
	if o.MetricsSummary {
		if sumErr := app.Provider.WriteSummary(cmd.ErrOrStderr()); sumErr != nil && err == nil {
			err = sumErr
		}
	}
	return err
}
