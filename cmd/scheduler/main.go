/*
main.go - Application entry point

PURPOSE:
  Runs the scheduler CLI. All wiring lives in the cli package.

EXAMPLES:
  # Interactive console with the reference roster
  ./scheduler run

  # HTTP API backed by SQLite
  ./scheduler serve --config scheduler.yaml

  # One-shot wage report
  ./scheduler export wages --format csv

SEE ALSO:
  - cli/root.go: Command tree
  - config/config.go: Configuration file format
*/
package main

import (
	"fmt"
	"os"

	"github.com/warp/shift-engine/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
