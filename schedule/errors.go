/*
errors.go - Error types for the scheduling core

PURPOSE:
  All core errors in one place. Every error here is a local validation
  failure: it is returned before any write, so the store is never left
  partially updated.

USAGE:
  if errors.Is(err, schedule.ErrEmployeeNotFound) {
      // 404
  }

SEE ALSO:
  - engine.go: Returns these errors from Apply
  - api/handlers.go: Maps them to HTTP status codes
*/
package schedule

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmployeeNotFound is returned when an employee id is not in the store.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrInvalidDay is returned for anything other than Mon..Sun.
	ErrInvalidDay = errors.New("invalid day")

	// ErrInvalidCommand is returned for anything other than out, in, full out.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrInvariantViolation means total hours no longer match the days.
	ErrInvariantViolation = errors.New("schedule invariant violated")

	// ErrInvalidRules is returned when shift rules cannot produce a valid week.
	ErrInvalidRules = errors.New("invalid schedule rules")

	// ErrDuplicateEmployee is returned when a roster id is added twice.
	ErrDuplicateEmployee = errors.New("duplicate employee id")

	// ErrAuditFailed is returned alongside an applied Outcome when the store
	// write committed but the event log append did not.
	ErrAuditFailed = errors.New("audit event not recorded")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

type NotFoundError struct {
	EmployeeID EmployeeID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("employee with ID %d not found", e.EmployeeID)
}

func (e *NotFoundError) Unwrap() error { return ErrEmployeeNotFound }

type InvalidDayError struct {
	Input string
}

func (e *InvalidDayError) Error() string {
	return fmt.Sprintf("invalid day %q: use one of Mon, Tue, Wed, Thu, Fri, Sat, Sun", e.Input)
}

func (e *InvalidDayError) Unwrap() error { return ErrInvalidDay }

type InvalidCommandError struct {
	Input string
}

func (e *InvalidCommandError) Error() string {
	return fmt.Sprintf("invalid status %q: use 'out', 'in', or 'full out'", e.Input)
}

func (e *InvalidCommandError) Unwrap() error { return ErrInvalidCommand }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDay) ||
		errors.Is(err, ErrInvalidCommand)
}

// IsNotFound returns true if the error indicates a missing employee.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound)
}
