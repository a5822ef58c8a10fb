package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Options configures New.
type Options struct {
	Roster *Roster
	Store  Store
	Rules  Rules

	// Random defaults to a time-seeded source.
	Random Random

	// Events is optional.
	Events EventLog

	Logger *slog.Logger
}

// Entry pairs an employee with their current week.
type Entry struct {
	Employee   Employee
	Assignment WeeklyAssignment
}

// Schedule is the context object shared by the console, the HTTP API and the
// exporters. It is built once at startup.
type Schedule struct {
	roster *Roster
	store  Store
	rules  Rules
	engine *Engine
	events EventLog
	logger *slog.Logger
}

// New validates the rules and makes sure every roster employee has a week in
// the store. Employees that already have one (from a persistent store) keep it.
func New(ctx context.Context, opts Options) (*Schedule, error) {
	if opts.Roster == nil {
		return nil, errors.New("schedule: roster is required")
	}
	if opts.Store == nil {
		return nil, errors.New("schedule: store is required")
	}
	if err := opts.Rules.Validate(); err != nil {
		return nil, err
	}
	rnd := opts.Random
	if rnd == nil {
		rnd = NewTimeSeededRandom()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := NewEngine(opts.Store, opts.Rules, rnd)
	engine.Events = opts.Events

	s := &Schedule{
		roster: opts.Roster,
		store:  opts.Store,
		rules:  opts.Rules,
		engine: engine,
		events: opts.Events,
		logger: logger,
	}
	if err := s.seed(ctx, rnd); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Schedule) seed(ctx context.Context, rnd Random) error {
	generated := 0
	for _, emp := range s.roster.Employees() {
		existing, err := s.store.Get(ctx, emp.ID)
		switch {
		case err == nil:
			if err := existing.Check(s.rules.ShiftHours); err != nil {
				return fmt.Errorf("stored week for employee %d: %w", emp.ID, err)
			}
			if err := existing.CheckShifts(s.rules.Shifts); err != nil {
				return fmt.Errorf("stored week for employee %d: %w", emp.ID, err)
			}
			continue
		case !IsNotFound(err):
			return fmt.Errorf("failed to load week for employee %d: %w", emp.ID, err)
		}

		if err := s.store.Set(ctx, s.rules.Generate(emp.ID, rnd)); err != nil {
			return fmt.Errorf("failed to store week for employee %d: %w", emp.ID, err)
		}
		generated++
	}
	s.logger.Info("schedule ready", "employees", s.roster.Len(), "generated", generated)
	return nil
}

func (s *Schedule) Roster() *Roster { return s.roster }
func (s *Schedule) Rules() Rules { return s.rules }
func (s *Schedule) Engine() *Engine { return s.engine }
func (s *Schedule) Wages() WageCalculator { return s.rules.Wages() }

// Entry returns one employee's current week.
func (s *Schedule) Entry(ctx context.Context, id EmployeeID) (Entry, error) {
	emp, ok := s.roster.Get(id)
	if !ok {
		return Entry{}, &NotFoundError{EmployeeID: id}
	}
	w, err := s.store.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Employee: emp, Assignment: w}, nil
}

// Entries returns every roster employee's week in roster order. Store rows
// for ids no longer on the roster are skipped.
func (s *Schedule) Entries(ctx context.Context) ([]Entry, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[EmployeeID]WeeklyAssignment, len(all))
	for _, w := range all {
		byID[w.EmployeeID] = w
	}

	entries := make([]Entry, 0, s.roster.Len())
	for _, emp := range s.roster.Employees() {
		w, ok := byID[emp.ID]
		if !ok {
			return nil, &NotFoundError{EmployeeID: emp.ID}
		}
		entries = append(entries, Entry{Employee: emp, Assignment: w})
	}
	return entries, nil
}

// ParseAbsence validates raw absence input. Errors are reported for the
// employee first, then the day, then the status.
func (s *Schedule) ParseAbsence(id EmployeeID, day, status string) (Weekday, Command, error) {
	if !s.roster.Contains(id) {
		return 0, "", &NotFoundError{EmployeeID: id}
	}
	d, err := ParseWeekday(day)
	if err != nil {
		return 0, "", err
	}
	cmd, err := ParseCommand(status)
	if err != nil {
		return 0, "", err
	}
	return d, cmd, nil
}

// MarkAbsence applies an absence command through the engine. A committed
// change whose audit event could not be written is logged and reported as a
// success.
func (s *Schedule) MarkAbsence(ctx context.Context, id EmployeeID, day Weekday, cmd Command) (Outcome, error) {
	if !s.roster.Contains(id) {
		return Outcome{}, &NotFoundError{EmployeeID: id}
	}
	out, err := s.engine.Apply(ctx, id, day, cmd)
	if errors.Is(err, ErrAuditFailed) {
		s.logger.Error("absence applied but audit event not recorded",
			"employee", int(id), "day", day.String(), "status", string(cmd), "error", err)
		err = nil
	}
	if err != nil {
		s.logger.Warn("absence update rejected",
			"employee", int(id), "day", day.String(), "status", string(cmd), "error", err)
		return out, err
	}
	s.logger.Info("updated absence status",
		"employee", int(id),
		"day", day.String(),
		"status", string(cmd),
		"hours_delta", out.HoursDelta,
		"total_hours", out.Assignment.TotalHours,
		"noop", out.NoOp(),
	)
	return out, nil
}

// WageRecords recomputes wages from the current weeks, in roster order.
func (s *Schedule) WageRecords(ctx context.Context) ([]WageRecord, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	weeks := make([]WeeklyAssignment, len(entries))
	for i, e := range entries {
		weeks[i] = e.Assignment
	}
	return s.Wages().Records(weeks), nil
}

func (s *Schedule) WageFor(ctx context.Context, id EmployeeID) (WageRecord, error) {
	e, err := s.Entry(ctx, id)
	if err != nil {
		return WageRecord{}, err
	}
	return s.Wages().Record(e.Assignment), nil
}

// Events returns the audit trail for an employee, or nil when no event log
// is configured.
func (s *Schedule) Events(ctx context.Context, id EmployeeID) ([]Event, error) {
	if !s.roster.Contains(id) {
		return nil, &NotFoundError{EmployeeID: id}
	}
	if s.events == nil {
		return nil, nil
	}
	return s.events.ListEvents(ctx, id)
}
