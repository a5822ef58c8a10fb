package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/warp/shift-engine/report"
	"github.com/warp/shift-engine/schedule"
)

// NewExportCommand writes one report and exits.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <schedule|wages|employee> [id]",
		Short: "Write a report to the export directory",
		Long: `Write the full schedule, the wage report or one employee's schedule to
the configured export directory and print the file path.

Without a persistent store every run generates a new week, so this is
mostly useful with storage.driver: sqlite.

Example:
  scheduler export schedule --format csv
  scheduler export employee 3
  scheduler export wages --config scheduler.yaml`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			app, err := newApp(ctx, rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()

			if format != "" {
				exp, err := report.ExporterFor(format)
				if err != nil {
					return WrapExitError(ExitCommandError, "invalid --format", err)
				}
				app.Archive.Exporter = exp
			}

			msg, err := runExport(ctx, app, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "override export.format (xlsx|csv|json)")

	return cmd
}

func runExport(ctx context.Context, app *App, args []string) (string, error) {
	entries, err := app.Schedule.Entries(ctx)
	if err != nil {
		return "", WrapExitError(ExitFailure, "failed to read schedule", err)
	}

	switch args[0] {
	case string(report.KindSchedule):
		path, err := app.Archive.ExportSchedule(report.Build(entries, nil))
		if err != nil {
			return "", WrapExitError(ExitFailure, "export failed", err)
		}
		return "Full schedule exported to " + path, nil

	case string(report.KindWages):
		calc := app.Schedule.Wages()
		path, err := app.Archive.ExportWages(report.Build(entries, &calc))
		if err != nil {
			return "", WrapExitError(ExitFailure, "export failed", err)
		}
		return "Wage report exported to " + path, nil

	case "employee":
		if len(args) != 2 {
			return "", WrapExitError(ExitCommandError, "employee export needs an id", nil)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return "", WrapExitError(ExitCommandError, "invalid employee id", err)
		}
		id := schedule.EmployeeID(n)
		path, err := app.Archive.ExportEmployee(report.Build(entries, nil), id)
		if err != nil {
			code := ExitFailure
			if schedule.IsNotFound(err) {
				code = ExitCommandError
			}
			return "", WrapExitError(code, "export failed", err)
		}
		return fmt.Sprintf("Schedule for employee %d exported to %s", id, path), nil
	}
	return "", WrapExitError(ExitCommandError, fmt.Sprintf("unknown report %q", args[0]), nil)
}
