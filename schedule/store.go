/*
store.go - Persistence interface for weekly assignments

PURPOSE:
  Defines the ScheduleStore: the single source of truth mapping employee id
  to WeeklyAssignment. Reports read it, generation seeds it, and the absence
  engine is the only writer after that.

KEY INTERFACES:
  Store:    Get / Set / Update / All
  EventLog: Append-only record of applied absence transitions

ATOMIC UPDATES:
  Update() runs a read-modify-write under the store's lock (memory) or inside
  a single SQL transaction (sqlite). If fn returns an error nothing is
  written, so a failed validation can never leave Days and TotalHours out of
  step.

IMPLEMENTATIONS:
  - schedule/store/memory.go: In-memory, used by tests and the console default
  - store/sqlite/sqlite.go: SQLite, survives restarts

SEE ALSO:
  - engine.go: The only caller of Update
  - events.go: Event type
*/
package schedule

import "context"

// Store handles persistence of weekly assignments.
type Store interface {
	// Get returns the assignment or an error wrapping ErrEmployeeNotFound.
	Get(ctx context.Context, id EmployeeID) (WeeklyAssignment, error)

	// Set stores an assignment, replacing any existing one for the employee.
	// New employees are appended to the iteration order.
	Set(ctx context.Context, w WeeklyAssignment) error

	// Update applies fn to a copy of the current assignment and stores the
	// result atomically. If fn returns an error nothing is written.
	Update(ctx context.Context, id EmployeeID, fn func(*WeeklyAssignment) error) (WeeklyAssignment, error)

	// All returns every assignment in insertion order.
	All(ctx context.Context) ([]WeeklyAssignment, error)
}

// EventLog stores applied absence transitions. Append-only.
type EventLog interface {
	AppendEvent(ctx context.Context, e Event) error
	ListEvents(ctx context.Context, id EmployeeID) ([]Event, error)
}
