/*
serve.go - HTTP server command

PURPOSE:
  Builds the schedule from config and serves the REST API until SIGINT or
  SIGTERM.

STARTUP SEQUENCE:
  1. Load config, open log file and store
  2. Generate (or load) the week
  3. Configure the chi router
  4. Start the snapshot scheduler when export.interval is set
  5. Serve with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the snapshot scheduler
  4. Close the store

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Snapshot scheduler
*/
package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/shift-engine/api"
)

const shutdownTimeout = 30 * time.Second

// NewServeCommand creates the HTTP server command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scheduler HTTP API",
		Long: `Serve the scheduler over HTTP. Routes live under /api, Prometheus metrics
under /metrics.

Example:
  scheduler serve
  scheduler serve --addr :3000 --config scheduler.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := newApp(ctx, rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()

			if addr == "" {
				addr = app.Config.Server.Addr
			}
			return serve(ctx, app, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}

func serve(ctx context.Context, app *App, addr string) error {
	handler := api.NewHandler(app.Schedule, app.Metrics, app.Logger)
	handler.Archive = app.Archive
	router := api.NewRouter(handler, api.RouterOptions{AllowedOrigins: app.Config.Server.CORSOrigins})

	snapshots := api.NewSnapshotScheduler(app.Schedule, app.Archive, app.Logger)
	snapshots.Interval = app.Config.Export.Interval
	snapshots.Start()
	defer snapshots.Stop()

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info("server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return WrapExitError(ExitFailure, "server failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	app.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "server forced to shutdown", err)
	}
	app.Logger.Info("server stopped")
	return nil
}
