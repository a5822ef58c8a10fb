package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/warp/shift-engine/config"
	"github.com/warp/shift-engine/metrics"
	"github.com/warp/shift-engine/report"
	"github.com/warp/shift-engine/schedule"
	"github.com/warp/shift-engine/schedule/store"
	"github.com/warp/shift-engine/store/sqlite"
)

// App is the wired application shared by every subcommand.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Schedule *schedule.Schedule
	Archive  *report.Archive
	Metrics  *metrics.Recorder

	closers []io.Closer
}

// persistentStore is what the sqlite driver provides beyond schedule.Store.
type persistentStore interface {
	schedule.Store
	schedule.EventLog
	io.Closer
	SaveRoster(ctx context.Context, employees []schedule.Employee) error
	ListEmployees(ctx context.Context) ([]schedule.Employee, error)
	Reset(ctx context.Context) error
}

var _ persistentStore = (*sqlite.Store)(nil)

// newApp loads the config and wires logger, store, schedule and archive.
// logOut receives log lines when no log file is configured.
func newApp(ctx context.Context, opts *RootOptions, logOut io.Writer) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	app := &App{Config: cfg, Metrics: metrics.New()}

	logger, logFile, err := newLogger(cfg, opts.Verbose, logOut)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open log file", err)
	}
	if logFile != nil {
		app.closers = append(app.closers, logFile)
	}
	app.Logger = logger

	roster, err := cfg.BuildRoster()
	if err != nil {
		app.Close()
		return nil, WrapExitError(ExitCommandError, "invalid roster", err)
	}
	rules, err := cfg.ScheduleRules()
	if err != nil {
		app.Close()
		return nil, WrapExitError(ExitCommandError, "invalid rules", err)
	}

	st, events, err := app.openStore(ctx, roster, opts.NewWeek)
	if err != nil {
		app.Close()
		return nil, WrapExitError(ExitFailure, "failed to open store", err)
	}

	s, err := schedule.New(ctx, schedule.Options{
		Roster: roster,
		Store:  st,
		Rules:  rules,
		Random: cfg.Random(),
		Events: events,
		Logger: logger,
	})
	if err != nil {
		app.Close()
		return nil, WrapExitError(ExitFailure, "failed to build schedule", err)
	}
	app.Schedule = s

	entries, err := s.Entries(ctx)
	if err == nil {
		for _, e := range entries {
			app.Metrics.SetHours(e.Assignment)
		}
	}

	exp, err := report.ExporterFor(cfg.Export.Format)
	if err != nil {
		app.Close()
		return nil, WrapExitError(ExitCommandError, "invalid export format", err)
	}
	app.Archive = report.NewArchive(cfg.Export.Dir, exp, logger)
	app.Archive.Metrics = app.Metrics

	return app, nil
}

func (a *App) openStore(ctx context.Context, roster *schedule.Roster, newWeek bool) (schedule.Store, schedule.EventLog, error) {
	switch a.Config.Storage.Driver {
	case config.DriverSQLite:
		db, err := sqlite.New(a.Config.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db)
		if err := prepare(ctx, db, roster, newWeek, a.Logger); err != nil {
			return nil, nil, err
		}
		a.Logger.Info("opened schedule database", "path", a.Config.Storage.Path, "new_week", newWeek)
		return db, db, nil
	default:
		mem := store.NewMemory()
		return mem, mem, nil
	}
}

// prepare resets the database for a new week, or warns when the roster it was
// written with differs from the configured one, then saves the roster.
func prepare(ctx context.Context, db persistentStore, roster *schedule.Roster, newWeek bool, logger *slog.Logger) error {
	if newWeek {
		if err := db.Reset(ctx); err != nil {
			return err
		}
	} else {
		stored, err := db.ListEmployees(ctx)
		if err != nil {
			return err
		}
		if d := diffRoster(stored, roster.Employees()); len(stored) > 0 && !d.empty() {
			logger.Warn("stored roster differs from configured roster",
				"added", d.added, "removed", d.removed, "renamed", d.renamed)
		}
	}
	return db.SaveRoster(ctx, roster.Employees())
}

type rosterDiff struct {
	added   []int
	removed []int
	renamed []int
}

func (d rosterDiff) empty() bool {
	return len(d.added) == 0 && len(d.removed) == 0 && len(d.renamed) == 0
}

// diffRoster compares by employee id, in configured order then stored order.
func diffRoster(stored, configured []schedule.Employee) rosterDiff {
	names := make(map[schedule.EmployeeID]string, len(stored))
	for _, e := range stored {
		names[e.ID] = e.Name
	}
	var d rosterDiff
	for _, e := range configured {
		name, ok := names[e.ID]
		switch {
		case !ok:
			d.added = append(d.added, int(e.ID))
		case name != e.Name:
			d.renamed = append(d.renamed, int(e.ID))
		}
		delete(names, e.ID)
	}
	for _, e := range stored {
		if _, ok := names[e.ID]; ok {
			d.removed = append(d.removed, int(e.ID))
		}
	}
	return d
}

// Close releases the store and the log file.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// newLogger writes text logs to log.file when set, otherwise to fallback.
func newLogger(cfg *config.Config, verbose bool, fallback io.Writer) (*slog.Logger, *os.File, error) {
	level := cfg.LogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}

	if cfg.Log.File == "" {
		return slog.New(slog.NewTextHandler(fallback, hopts)), nil, nil
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", cfg.Log.File, err)
	}
	return slog.New(slog.NewTextHandler(f, hopts)), f, nil
}
