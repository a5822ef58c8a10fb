/*
Package sqlite provides a SQLite-backed implementation of the schedule stores.

PURPOSE:
  Implements schedule.Store and schedule.EventLog using SQLite, so a week's
  schedule and its absence history survive a restart of the console or the
  HTTP server.

INTERFACES IMPLEMENTED:
  schedule.Store:    Weekly assignments (Get, Set, Update, All)
  schedule.EventLog: Absence transition history

KEY TABLES:
  employees:      Roster snapshot (id, name, insertion order)
  assignments:    One row per employee: mon..sun day labels + total_hours
  absence_events: Append-only log of applied absence transitions

ATOMIC UPDATES:
  Update() reads the row, runs the caller's function and writes the result
  inside one SQL transaction, under the store mutex. If the function fails
  the transaction is rolled back and the row is unchanged.

ORDERING:
  assignments.seq is an autoincrement column assigned on first insert and
  kept by upserts, so All() returns rows in roster insertion order.

USAGE:
  store, err := sqlite.New("./data/schedule.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - schedule/store.go: Interface definitions
  - schedule/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/shift-engine/schedule"
)

// Store implements the schedule storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ schedule.Store    = (*Store)(nil)
	_ schedule.EventLog = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		position INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS assignments (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL UNIQUE,
		mon TEXT NOT NULL,
		tue TEXT NOT NULL,
		wed TEXT NOT NULL,
		thu TEXT NOT NULL,
		fri TEXT NOT NULL,
		sat TEXT NOT NULL,
		sun TEXT NOT NULL,
		total_hours INTEGER NOT NULL CHECK (total_hours >= 0),
		updated_at TEXT NOT NULL
	);

	-- Append-only history of applied absence transitions
	CREATE TABLE IF NOT EXISTS absence_events (
		id TEXT PRIMARY KEY,
		employee_id INTEGER NOT NULL,
		day TEXT NOT NULL,
		command TEXT NOT NULL,
		changed_json TEXT NOT NULL,
		hours_delta INTEGER NOT NULL,
		total_hours INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_absence_events_employee
		ON absence_events(employee_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ASSIGNMENT STORE (schedule.Store interface)
// =============================================================================

const assignmentColumns = `employee_id, mon, tue, wed, thu, fri, sat, sun, total_hours`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Get returns the assignment for an employee.
func (s *Store) Get(ctx context.Context, id schedule.EmployeeID) (schedule.WeeklyAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getTx(ctx, s.db, id)
}

func (s *Store) getTx(ctx context.Context, db queryer, id schedule.EmployeeID) (schedule.WeeklyAssignment, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+assignmentColumns+" FROM assignments WHERE employee_id = ?", int(id))

	w, err := scanAssignment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.WeeklyAssignment{}, &schedule.NotFoundError{EmployeeID: id}
	}
	return w, err
}

// Set inserts or replaces an assignment.
func (s *Store) Set(ctx context.Context, w schedule.WeeklyAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.putTx(ctx, s.db, w)
}

func (s *Store) putTx(ctx context.Context, db execer, w schedule.WeeklyAssignment) error {
	labels := w.Labels()
	query := `
		INSERT INTO assignments (` + assignmentColumns + `, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id) DO UPDATE SET
			mon = excluded.mon,
			tue = excluded.tue,
			wed = excluded.wed,
			thu = excluded.thu,
			fri = excluded.fri,
			sat = excluded.sat,
			sun = excluded.sun,
			total_hours = excluded.total_hours,
			updated_at = excluded.updated_at
	`

	_, err := db.ExecContext(ctx, query,
		int(w.EmployeeID),
		labels[0], labels[1], labels[2], labels[3], labels[4], labels[5], labels[6],
		w.TotalHours,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save assignment for employee %d: %w", w.EmployeeID, err)
	}
	return nil
}

// Update runs fn against the stored assignment inside a transaction.
func (s *Store) Update(ctx context.Context, id schedule.EmployeeID, fn func(*schedule.WeeklyAssignment) error) (schedule.WeeklyAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return schedule.WeeklyAssignment{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	draft, err := s.getTx(ctx, sqlTx, id)
	if err != nil {
		return schedule.WeeklyAssignment{}, err
	}
	if err := fn(&draft); err != nil {
		return schedule.WeeklyAssignment{}, err
	}
	draft.EmployeeID = id

	if err := s.putTx(ctx, sqlTx, draft); err != nil {
		return schedule.WeeklyAssignment{}, err
	}
	if err := sqlTx.Commit(); err != nil {
		return schedule.WeeklyAssignment{}, fmt.Errorf("failed to commit assignment update: %w", err)
	}
	return draft, nil
}

// All returns every assignment in insertion order.
func (s *Store) All(ctx context.Context) ([]schedule.WeeklyAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+assignmentColumns+" FROM assignments ORDER BY seq ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var weeks []schedule.WeeklyAssignment
	for rows.Next() {
		w, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	return weeks, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row scanner) (schedule.WeeklyAssignment, error) {
	var (
		w      schedule.WeeklyAssignment
		id     int
		labels [schedule.DaysInWeek]string
	)

	err := row.Scan(&id,
		&labels[0], &labels[1], &labels[2], &labels[3], &labels[4], &labels[5], &labels[6],
		&w.TotalHours,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return w, err
	}
	if err != nil {
		return w, fmt.Errorf("failed to scan assignment: %w", err)
	}

	w.EmployeeID = schedule.EmployeeID(id)
	for i, l := range labels {
		state, err := schedule.ParseDayState(l)
		if err != nil {
			return w, fmt.Errorf("employee %d %s: %w", id, schedule.Weekdays[i], err)
		}
		w.Days[i] = state
	}
	return w, nil
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

// SaveRoster writes the roster snapshot, replacing names for existing ids.
func (s *Store) SaveRoster(ctx context.Context, employees []schedule.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	query := `
		INSERT INTO employees (id, name, position, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			position = excluded.position
	`
	now := time.Now().UTC().Format(time.RFC3339)
	for i, e := range employees {
		if _, err := sqlTx.ExecContext(ctx, query, int(e.ID), e.Name, i, now); err != nil {
			return fmt.Errorf("failed to save employee %d: %w", e.ID, err)
		}
	}
	return sqlTx.Commit()
}

// ListEmployees returns the stored roster in position order.
func (s *Store) ListEmployees(ctx context.Context) ([]schedule.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM employees ORDER BY position, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []schedule.Employee
	for rows.Next() {
		var (
			id   int
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		employees = append(employees, schedule.Employee{ID: schedule.EmployeeID(id), Name: name})
	}
	return employees, rows.Err()
}

// =============================================================================
// EVENT LOG (schedule.EventLog interface)
// =============================================================================

func (s *Store) AppendEvent(ctx context.Context, e schedule.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := make([]string, len(e.Changed))
	for i, d := range e.Changed {
		changed[i] = d.String()
	}
	changedJSON, err := json.Marshal(changed)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO absence_events
		(id, employee_id, day, command, changed_json, hours_delta, total_hours, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID, int(e.EmployeeID), e.Day.String(), string(e.Command),
		string(changedJSON), e.HoursDelta, e.TotalHours,
		e.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append absence event: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, id schedule.EmployeeID) ([]schedule.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, day, command, changed_json, hours_delta, total_hours, created_at
		FROM absence_events
		WHERE employee_id = ?
		ORDER BY rowid ASC
	`, int(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query absence events: %w", err)
	}
	defer rows.Close()

	var events []schedule.Event
	for rows.Next() {
		var (
			e           schedule.Event
			empID       int
			day         string
			command     string
			changedJSON string
			createdAt   string
		)
		if err := rows.Scan(&e.ID, &empID, &day, &command, &changedJSON,
			&e.HoursDelta, &e.TotalHours, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan absence event: %w", err)
		}

		e.EmployeeID = schedule.EmployeeID(empID)
		if e.Day, err = schedule.ParseWeekday(day); err != nil {
			return nil, err
		}
		e.Command = schedule.Command(command)

		var changed []string
		if err := json.Unmarshal([]byte(changedJSON), &changed); err != nil {
			return nil, fmt.Errorf("failed to decode changed days: %w", err)
		}
		for _, c := range changed {
			d, err := schedule.ParseWeekday(c)
			if err != nil {
				return nil, err
			}
			e.Changed = append(e.Changed, d)
		}
		if e.At, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse time of absence event %s: %w", e.ID, err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset clears all data. Used when a new week is started from scratch.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"absence_events", "assignments", "employees"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
