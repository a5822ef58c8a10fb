/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupled from the
  schedule package types.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Employees:  EmployeeDTO
  Schedules:  report.RowJSON (shared with the JSON exporter)
  Absences:   MarkAbsenceRequest, MarkAbsenceResponse
  Audit:      EventDTO
  Wages:      WageDTO

VALIDATION:
  Validation is done by the schedule package. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - report/export.go: RowJSON
*/
package api

import (
	"time"

	"github.com/warp/shift-engine/report"
	"github.com/warp/shift-engine/schedule"
)

// EmployeeDTO represents a roster entry.
type EmployeeDTO struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MarkAbsenceRequest is the body of POST /api/schedules/{id}/absences.
type MarkAbsenceRequest struct {
	Day    string `json:"day"`
	Status string `json:"status"`
}

// MarkAbsenceResponse reports the week after the command.
type MarkAbsenceResponse struct {
	Schedule   report.RowJSON `json:"schedule"`
	Changed    []string       `json:"changed"`
	HoursDelta int            `json:"hours_delta"`
	NoOp       bool           `json:"no_op"`
	ExportedTo string         `json:"exported_to,omitempty"`
}

// EventDTO is one applied absence command.
type EventDTO struct {
	ID         string   `json:"id"`
	EmployeeID int      `json:"employee_id"`
	Day        string   `json:"day"`
	Status     string   `json:"status"`
	Changed    []string `json:"changed"`
	HoursDelta int      `json:"hours_delta"`
	TotalHours int      `json:"total_hours"`
	At         string   `json:"at"`
}

// WageDTO is a computed wage line. Amounts are decimal strings.
type WageDTO struct {
	EmployeeID int    `json:"employee_id"`
	Name       string `json:"name"`
	TotalHours int    `json:"total_hours"`
	HourlyRate string `json:"hourly_rate"`
	Wage       string `json:"wage"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func dayKeys(days []schedule.Weekday) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.String()
	}
	return out
}

func toEventDTO(e schedule.Event) EventDTO {
	return EventDTO{
		ID:         e.ID,
		EmployeeID: int(e.EmployeeID),
		Day:        e.Day.String(),
		Status:     string(e.Command),
		Changed:    dayKeys(e.Changed),
		HoursDelta: e.HoursDelta,
		TotalHours: e.TotalHours,
		At:         e.At.UTC().Format(time.RFC3339),
	}
}
