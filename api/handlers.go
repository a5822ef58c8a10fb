/*
handlers.go - HTTP API handlers for the shift scheduler

PURPOSE:
  Exposes the shared schedule over REST. Handles HTTP request/response and
  JSON serialization, and delegates every rule to the schedule package.

ENDPOINTS:
  Employees:
    GET    /api/employees                   List the roster

  Schedules:
    GET    /api/schedules                   Every employee's week
    GET    /api/schedules/{id}              One employee's week
    POST   /api/schedules/{id}/absences     Apply out | in | full out
    GET    /api/schedules/{id}/events       Applied absence commands

  Wages & reports:
    GET    /api/wages                       Wage lines for the roster
    GET    /api/reports/{kind}?format=...   Download schedule or wages
                                            as csv, xlsx or json

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid day, invalid status, malformed id or body
  - 404: Employee not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - console/session.go: The same operations as text commands
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/warp/shift-engine/metrics"
	"github.com/warp/shift-engine/report"
	"github.com/warp/shift-engine/schedule"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Schedule *schedule.Schedule
	Metrics  *metrics.Recorder
	Logger   *slog.Logger

	// Archive is optional. When set, every absence update re-exports the
	// full schedule, as the console does.
	Archive *report.Archive
}

// NewHandler creates a new handler over the shared schedule.
func NewHandler(s *schedule.Schedule, rec *metrics.Recorder, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Schedule: s, Metrics: rec, Logger: logger}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns the roster in insertion order.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees := h.Schedule.Roster().Employees()
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = EmployeeDTO{ID: int(e.ID), Name: e.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// ListSchedules returns every employee's week.
// GET /api/schedules
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Schedule.Entries(r.Context())
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Build(entries, nil).ToJSON())
}

// GetSchedule returns one employee's week.
// GET /api/schedules/{id}
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeIDParam(w, r)
	if !ok {
		return
	}
	entry, err := h.Schedule.Entry(r.Context(), id)
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Build([]schedule.Entry{entry}, nil).ToJSON()[0])
}

// MarkAbsence applies an absence command.
// POST /api/schedules/{id}/absences
func (h *Handler) MarkAbsence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := employeeIDParam(w, r)
	if !ok {
		return
	}
	var req MarkAbsenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	day, cmd, err := h.Schedule.ParseAbsence(id, req.Day, req.Status)
	if err != nil {
		h.Metrics.ObserveRejection(err)
		writeScheduleError(w, err)
		return
	}
	outcome, err := h.Schedule.MarkAbsence(ctx, id, day, cmd)
	if err != nil {
		h.Metrics.ObserveRejection(err)
		writeScheduleError(w, err)
		return
	}
	h.Metrics.ObserveOutcome(cmd, outcome)

	entry, err := h.Schedule.Entry(ctx, id)
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	resp := MarkAbsenceResponse{
		Schedule:   report.Build([]schedule.Entry{entry}, nil).ToJSON()[0],
		Changed:    dayKeys(outcome.Changed),
		HoursDelta: outcome.HoursDelta,
		NoOp:       outcome.NoOp(),
	}

	if h.Archive != nil {
		entries, err := h.Schedule.Entries(ctx)
		if err == nil {
			resp.ExportedTo, err = h.Archive.ExportSchedule(report.Build(entries, nil))
		}
		if err != nil {
			// The transition is already applied; report it and log the export failure.
			h.Logger.Error("failed to export schedule after absence update", "employee", int(id), "error", err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListEvents returns the employee's applied absence commands, oldest first.
// GET /api/schedules/{id}/events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeIDParam(w, r)
	if !ok {
		return
	}
	events, err := h.Schedule.Events(r.Context(), id)
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	dtos := make([]EventDTO, len(events))
	for i, e := range events {
		dtos[i] = toEventDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// WAGES & REPORTS
// =============================================================================

// ListWages computes wages from the current weeks.
// GET /api/wages
func (h *Handler) ListWages(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Schedule.Entries(r.Context())
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	calc := h.Schedule.Wages()
	dtos := make([]WageDTO, len(entries))
	for i, e := range entries {
		rec := calc.Record(e.Assignment)
		dtos[i] = WageDTO{
			EmployeeID: int(e.Employee.ID),
			Name:       e.Employee.Name,
			TotalHours: rec.TotalHours,
			HourlyRate: calc.HourlyRate.String(),
			Wage:       rec.Wage.String(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetReport renders a report as a file download.
// GET /api/reports/{kind}?format=csv|xlsx|json
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	kind := report.Kind(strings.ToLower(chi.URLParam(r, "kind")))
	if kind != report.KindSchedule && kind != report.KindWages {
		writeError(w, http.StatusBadRequest, "Unknown report kind",
			fmt.Errorf("kind %q must be %s or %s", kind, report.KindSchedule, report.KindWages))
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	exp, err := report.ExporterFor(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unsupported format", err)
		return
	}

	entries, err := h.Schedule.Entries(r.Context())
	if err != nil {
		writeScheduleError(w, err)
		return
	}
	var table report.Table
	if kind == report.KindWages {
		calc := h.Schedule.Wages()
		table = report.Build(entries, &calc)
	} else {
		table = report.Build(entries, nil)
	}

	var buf bytes.Buffer
	if err := exp.Write(&buf, table); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render report", err)
		return
	}
	h.Metrics.ObserveExport(string(kind), exp.Format())

	w.Header().Set("Content-Type", exp.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="employee_%s.%s"`, kind, exp.Format()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"employees": h.Schedule.Roster().Len(),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func employeeIDParam(w http.ResponseWriter, r *http.Request) (schedule.EmployeeID, bool) {
	raw := chi.URLParam(r, "id")
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee ID", err)
		return 0, false
	}
	return schedule.EmployeeID(n), true
}

// writeScheduleError maps schedule errors to HTTP status codes.
func writeScheduleError(w http.ResponseWriter, err error) {
	var nf *schedule.NotFoundError
	switch {
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "Employee not found",
			Code:    metrics.Reason(err),
			Details: map[string]int{"employee_id": int(nf.EmployeeID)},
		})
	case schedule.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Employee not found", Code: metrics.Reason(err)})
	case schedule.IsClientError(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: metrics.Reason(err)})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal error",
			Code:    metrics.Reason(err),
			Details: err.Error(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
