package cli

import (
	"context"
	"fmt"
	"notifier/internal/config"
	"notifier/internal/models"
	"notifier/internal/notify"
	"notifier/internal/storage"
	"strings"

	"github.com/spf13/cobra"
)

// CompareCmd returns the compare command
func CompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <a> <b>",
		Short: "Compare two version strings",
		Long: `Compare two dot-separated version strings segment by segment.
Missing segments count as zero and non-numeric segments as zero, so
"1.2" equals "1.2.0" and "1.10" is greater than "1.9".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ord := models.CompareVersions(args[0], args[1])
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", args[0], symbol(ord), args[1])
			return err
		},
	}
}

func symbol(o models.Ordering) string {
	switch o {
	case models.Less:
		return "<"
	case models.Greater:
		return ">"
	default:
		return "=="
	}
}

// DoctorCmd returns the doctor command
func DoctorCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and storage health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, app *App) error {
				out := cmd.OutOrStdout()
				cfg := app.Config

				fmt.Fprintf(out, "API:      %s (platform %s)\n", cfg.Client.BaseURL, cfg.Client.Platform)
				fmt.Fprintf(out, "Storage:  %s (supported: %s)\n", cfg.Storage.Type,
					strings.Join(storage.NewFactory().GetSupportedProviders(), ", "))

				if err := app.Store.Ping(ctx); err != nil {
					return fmt.Errorf("storage unreachable: %w", err)
				}
				fmt.Fprintln(out, "Ping:     ok")

				guid, err := notify.DeviceID(ctx, app.Store)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Device:   %s\n", guid)

				v := app.Service.Versions()
				fmt.Fprintf(out, "Version:  %s\n", v.Effective())

				last, err := notify.LastUpdated(ctx, app.Store)
				if err != nil {
					return err
				}
				if last.IsZero() {
					fmt.Fprintln(out, "Synced:   never")
				} else {
					fmt.Fprintf(out, "Synced:   %s\n", last.Format("2006-01-02 15:04:05 MST"))
				}
				return nil
			})
		},
	}
}

// ConfigCmd returns the config command
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init <path>",
		Short: "Write an example configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SaveExample(args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[0])
			return err
		},
	})
	return cmd
}
