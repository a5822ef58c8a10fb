package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/warp/shift-engine/metrics"
	"github.com/warp/shift-engine/schedule"
)

// Archive writes reports into an output directory using fixed file names:
//
//	employee_<id>_schedule.<ext>
//	employee_schedule.<ext>
//	employee_wages.<ext>
type Archive struct {
	Dir      string
	Exporter Exporter
	Logger   *slog.Logger
	Metrics  *metrics.Recorder
}

func NewArchive(dir string, exp Exporter, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{Dir: dir, Exporter: exp, Logger: logger}
}

// ExportEmployee writes a single employee's row.
func (a *Archive) ExportEmployee(t Table, id schedule.EmployeeID) (string, error) {
	one, ok := t.Only(id)
	if !ok {
		return "", &schedule.NotFoundError{EmployeeID: id}
	}
	path, err := a.write(fmt.Sprintf("employee_%d_schedule", id), one)
	if err != nil {
		return "", err
	}
	a.Logger.Info("exported schedule", "employee", int(id), "path", path)
	a.Metrics.ObserveExport("employee", a.Exporter.Format())
	return path, nil
}

// ExportSchedule writes the full table.
func (a *Archive) ExportSchedule(t Table) (string, error) {
	path, err := a.write("employee_schedule", t)
	if err != nil {
		return "", err
	}
	a.Logger.Info("exported full schedule", "path", path, "rows", len(t.Rows))
	a.Metrics.ObserveExport(string(KindSchedule), a.Exporter.Format())
	return path, nil
}

// ExportWages writes the wage report. The table must carry wages.
func (a *Archive) ExportWages(t Table) (string, error) {
	if !t.WithWages {
		return "", fmt.Errorf("wage report requires a table built with wages")
	}
	path, err := a.write("employee_wages", t)
	if err != nil {
		return "", err
	}
	a.Logger.Info("exported wage report", "path", path)
	a.Metrics.ObserveExport(string(KindWages), a.Exporter.Format())
	return path, nil
}

// write renders into a temp file in the target directory and renames it, so
// readers never see a half-written report.
func (a *Archive) write(base string, t Table) (string, error) {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(a.Dir, base+"."+a.Exporter.Format())

	tmp, err := os.CreateTemp(a.Dir, base+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := a.Exporter.Write(tmp, t); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move report into place: %w", err)
	}
	return path, nil
}
