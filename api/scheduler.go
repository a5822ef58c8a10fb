/*
scheduler.go - Periodic schedule snapshots

PURPOSE:
  While the HTTP server runs, absences can change the week at any time.
  The snapshot scheduler writes the full schedule to the export directory
  on a fixed interval, so the files on disk never lag far behind.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Writes one snapshot immediately on start
  - Export failures are logged and retried on the next tick

CONFIGURATION:
  - Interval: export.interval in the config file (0 disables)

USAGE:
  snapshots := NewSnapshotScheduler(schedule, archive, logger)
  snapshots.Start()
  // ... later
  snapshots.Stop()

SEE ALSO:
  - report/archive.go: File names and atomic writes
  - cli/serve.go: Starts and stops the scheduler with the server
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/shift-engine/report"
	"github.com/warp/shift-engine/schedule"
)

// SnapshotScheduler exports the full schedule periodically.
type SnapshotScheduler struct {
	Schedule *schedule.Schedule
	Archive  *report.Archive
	Logger   *slog.Logger
	Interval time.Duration

	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	runs    int
	lastErr error
}

func NewSnapshotScheduler(s *schedule.Schedule, archive *report.Archive, logger *slog.Logger) *SnapshotScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotScheduler{
		Schedule: s,
		Archive:  archive,
		Logger:   logger,
		Interval: time.Hour,
	}
}

// Start begins the scheduler. It is a no-op when Interval is not positive or
// the scheduler is already running.
func (ss *SnapshotScheduler) Start() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.Interval <= 0 {
		ss.Logger.Info("snapshot scheduler disabled")
		return
	}
	if ss.ticker != nil {
		return
	}

	ss.ticker = time.NewTicker(ss.Interval)
	ss.stop = make(chan struct{})
	ss.wg.Add(1)
	go ss.run(ss.ticker, ss.stop)

	ss.Logger.Info("snapshot scheduler started", "interval", ss.Interval.String())
}

// Stop stops the scheduler and waits for an in-flight snapshot.
func (ss *SnapshotScheduler) Stop() {
	ss.mu.Lock()
	if ss.ticker == nil {
		ss.mu.Unlock()
		return
	}
	ss.ticker.Stop()
	close(ss.stop)
	ss.ticker = nil
	ss.mu.Unlock()

	ss.wg.Wait()
	ss.Logger.Info("snapshot scheduler stopped")
}

// Runs returns the number of snapshot attempts and the last error.
func (ss *SnapshotScheduler) Runs() (int, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.runs, ss.lastErr
}

func (ss *SnapshotScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer ss.wg.Done()

	ss.snapshot()
	for {
		select {
		case <-ticker.C:
			ss.snapshot()
		case <-stop:
			return
		}
	}
}

// Snapshot writes the full schedule once.
func (ss *SnapshotScheduler) Snapshot(ctx context.Context) (string, error) {
	entries, err := ss.Schedule.Entries(ctx)
	if err != nil {
		return "", err
	}
	return ss.Archive.ExportSchedule(report.Build(entries, nil))
}

func (ss *SnapshotScheduler) snapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	path, err := ss.Snapshot(ctx)

	ss.mu.Lock()
	ss.runs++
	ss.lastErr = err
	ss.mu.Unlock()

	if err != nil {
		ss.Logger.Error("snapshot failed", "error", err)
		return
	}
	ss.Logger.Debug("snapshot written", "path", path)
}
