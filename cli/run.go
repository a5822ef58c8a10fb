package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/warp/shift-engine/console"
)

// NewRunCommand creates the interactive console command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	var noPrompt bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the interactive scheduler console",
		Long: `Generate this week's schedule and read commands from standard input:

  schedule id <id>
  schedule report
  calculate wages
  mark absence <id> <day> <status>     (status: out | in | full out)
  exit

Example:
  scheduler run
  scheduler run --config scheduler.yaml --new-week`,
		Args:          cobra.NoArgs,
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

			session := console.NewSession(app.Schedule, app.Archive, app.Logger)
			session.Metrics = app.Metrics
			if noPrompt {
				session.Prompt = ""
			}
			if err := session.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return WrapExitError(ExitFailure, "console stopped", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "do not print the prompt (for piped input)")

	return cmd
}
