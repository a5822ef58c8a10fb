/*
engine.go - Absence transition engine

PURPOSE:
  Applies the absence commands to one employee's week and keeps TotalHours
  consistent with Days. This is the only code that writes to a Store after
  the initial generation.

STATE MACHINE (per employee, per day):

  ┌─────────┐   out    ┌─────────┐
  │  Shift  │ ───────▶ │ Absent  │   -ShiftHours
  └─────────┘ ◀─────── └─────────┘
                 in                  +ShiftHours, label re-randomised

  Rest + out / in      → no-op
  Absent + out         → no-op
  Shift + in           → no-op
  full out (any day)   → all 7 days Absent, -ShiftHours per former Shift day

ORDER OF CHECKS:
  1. Employee exists      (ErrEmployeeNotFound)
  2. Day is Mon..Sun      (ErrInvalidDay)
  3. Command is known     (ErrInvalidCommand)
  4. Transition + hours recomputed inside Store.Update

  Nothing is written unless all checks pass.

SEE ALSO:
  - types.go: DayState and Command
  - store.go: Store.Update atomicity contract
*/
package schedule

import (
	"context"
	"fmt"
	"time"
)

// Outcome describes what one Apply call did.
type Outcome struct {
	Previous   WeeklyAssignment
	Assignment WeeklyAssignment
	Changed    []Weekday
	HoursDelta int
}

// NoOp reports whether the transition left the week untouched.
func (o Outcome) NoOp() bool { return len(o.Changed) == 0 }

// Engine validates and applies absence transitions.
type Engine struct {
	Store  Store
	Rules  Rules
	Random Random

	// Events is optional. Applied transitions are appended after the store
	// write succeeds.
	Events EventLog

	now func() time.Time
}

func NewEngine(store Store, rules Rules, rnd Random) *Engine {
	return &Engine{Store: store, Rules: rules, Random: rnd, now: time.Now}
}

// Apply runs one absence command. For CommandFullOut the day is validated but
// otherwise ignored. An error matching ErrAuditFailed comes with an applied
// Outcome: the week changed, only the event log append failed.
func (e *Engine) Apply(ctx context.Context, id EmployeeID, day Weekday, cmd Command) (Outcome, error) {
	if _, err := e.Store.Get(ctx, id); err != nil {
		return Outcome{}, err
	}
	if !day.Valid() {
		return Outcome{}, &InvalidDayError{Input: day.String()}
	}
	if !cmd.Valid() {
		return Outcome{}, &InvalidCommandError{Input: string(cmd)}
	}

	var out Outcome
	updated, err := e.Store.Update(ctx, id, func(w *WeeklyAssignment) error {
		before := *w
		changed, delta := e.transition(w, day, cmd)

		w.TotalHours = w.ExpectedHours(e.Rules.ShiftHours)
		if w.TotalHours != before.TotalHours+delta {
			return fmt.Errorf("%w: employee %d went from %d to %d hours with delta %d",
				ErrInvariantViolation, id, before.TotalHours, w.TotalHours, delta)
		}
		if w.TotalHours < 0 {
			return fmt.Errorf("%w: employee %d has negative hours", ErrInvariantViolation, id)
		}

		out = Outcome{Previous: before, Changed: changed, HoursDelta: delta}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	out.Assignment = updated

	if e.Events != nil && !out.NoOp() {
		if err := e.Events.AppendEvent(ctx, newEvent(out, day, cmd, e.clock())); err != nil {
			return out, fmt.Errorf("employee %d transition applied but %w: %w", id, ErrAuditFailed, err)
		}
	}
	return out, nil
}

// transition mutates w.Days and returns the changed days and the hours delta.
// TotalHours is left to the caller.
func (e *Engine) transition(w *WeeklyAssignment, day Weekday, cmd Command) ([]Weekday, int) {
	var changed []Weekday
	delta := 0

	switch cmd {
	case CommandOut:
		if w.Days[day].IsShift() {
			w.Days[day] = Absent()
			changed = append(changed, day)
			delta -= e.Rules.ShiftHours
		}
	case CommandIn:
		if w.Days[day].IsAbsent() {
			w.Days[day] = OnShift(chooseShift(e.Random, e.Rules.Shifts))
			changed = append(changed, day)
			delta += e.Rules.ShiftHours
		}
	case CommandFullOut:
		for _, d := range Weekdays {
			if w.Days[d].IsAbsent() {
				continue
			}
			if w.Days[d].IsShift() {
				delta -= e.Rules.ShiftHours
			}
			w.Days[d] = Absent()
			changed = append(changed, d)
		}
	}
	return changed, delta
}

func (e *Engine) clock() time.Time {
	if e.now == nil {
		return time.Now()
	}
	return e.now()
}
