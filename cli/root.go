package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool

	// NewWeek discards stored weeks and generates fresh ones. Only matters
	// for the sqlite driver; the memory store always starts empty.
	NewWeek bool
}

// NewRootCommand creates the root command for the scheduler CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Weekly shift scheduler",
		Long: `Generates a randomized weekly shift schedule for a small roster, tracks
absences (out, in, full out) and exports schedules and wage reports.

Run the interactive console with "scheduler run", the HTTP API with
"scheduler serve", or write a report once with "scheduler export".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config (defaults to the reference setup)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().BoolVar(&opts.NewWeek, "new-week", false, "discard stored weeks and generate a new schedule")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}
