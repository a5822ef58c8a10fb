/*
Package schedule provides the weekly shift scheduling core.

PURPOSE:
  This package owns the schedule/absence state machine: which day of the
  week an employee works, rests, or is absent, and how many hours that week
  adds up to. Everything else (exports, the command loop, HTTP, persistence
  backends) reads and writes through the types defined here.

KEY CONCEPTS IN THIS FILE (types.go):
  - Weekday: One of the 7 canonical keys Mon..Sun, in fixed order
  - DayState: Rest, a specific Shift, or Absent
  - WeeklyAssignment: 7 day-states plus the derived total hours
  - Command: The absence commands out / in / full out

INVARIANTS:
  1. TotalHours == ShiftHours * number of Shift days
  2. Exactly 7 days (enforced by the [7]DayState array)
  3. TotalHours >= 0

USAGE:
  day, err := schedule.ParseWeekday("mon")
  cmd, err := schedule.ParseCommand("out")
  outcome, err := engine.Apply(ctx, 1, day, cmd)

SEE ALSO:
  - engine.go: Absence transitions
  - generate.go: Random weekly assignment generation
  - store.go: ScheduleStore interface
*/
package schedule

import (
	"fmt"
	"slices"
	"strings"
)

// =============================================================================
// WEEKDAY
// =============================================================================

type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// DaysInWeek is the number of weekday keys in an assignment.
const DaysInWeek = 7

// Weekdays lists the weekday keys in canonical order.
var Weekdays = [DaysInWeek]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayKeys = [DaysInWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func (d Weekday) Valid() bool { return d >= Monday && d <= Sunday }

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayKeys[d]
}

// ParseWeekday accepts a weekday key in any letter case ("mon", "MON", "Mon")
// and returns its canonical value.
func ParseWeekday(s string) (Weekday, error) {
	key := strings.TrimSpace(s)
	for i, k := range weekdayKeys {
		if strings.EqualFold(k, key) {
			return Weekday(i), nil
		}
	}
	return 0, &InvalidDayError{Input: s}
}

func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, &InvalidDayError{Input: d.String()}
	}
	return []byte(d.String()), nil
}

func (d *Weekday) UnmarshalText(b []byte) error {
	parsed, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// DAY STATE
// =============================================================================

// ShiftLabel names one of the configured shifts, e.g. "11 am - 5 pm".
type ShiftLabel string

const (
	ShiftDay     ShiftLabel = "11 am - 5 pm"
	ShiftEvening ShiftLabel = "6 pm - 12 am"
)

// DefaultShifts are the two shifts of the reference roster.
var DefaultShifts = []ShiftLabel{ShiftDay, ShiftEvening}

type StateKind int

const (
	KindRest StateKind = iota
	KindShift
	KindAbsent
)

// Text forms of the non-shift states.
const (
	RestLabel   = "Rest"
	AbsentLabel = "Absent"
)

// DayState is what an employee does on one weekday. Shift is only set when
// Kind is KindShift.
type DayState struct {
	Kind  StateKind
	Shift ShiftLabel
}

func Rest() DayState { return DayState{Kind: KindRest} }
func Absent() DayState { return DayState{Kind: KindAbsent} }
func OnShift(label ShiftLabel) DayState { return DayState{Kind: KindShift, Shift: label} }

func (s DayState) IsRest() bool { return s.Kind == KindRest }
func (s DayState) IsShift() bool { return s.Kind == KindShift }
func (s DayState) IsAbsent() bool { return s.Kind == KindAbsent }

// String returns the report label: "Rest", "Absent" or the shift label.
func (s DayState) String() string {
	switch s.Kind {
	case KindRest:
		return RestLabel
	case KindAbsent:
		return AbsentLabel
	default:
		return string(s.Shift)
	}
}

// ParseDayState is the inverse of String. Any label other than Rest or
// Absent is taken as a shift label.
func ParseDayState(s string) (DayState, error) {
	switch s {
	case RestLabel:
		return Rest(), nil
	case AbsentLabel:
		return Absent(), nil
	case "":
		return DayState{}, fmt.Errorf("empty day state")
	default:
		return OnShift(ShiftLabel(s)), nil
	}
}

func (s DayState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *DayState) UnmarshalText(b []byte) error {
	parsed, err := ParseDayState(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// =============================================================================
// EMPLOYEE
// =============================================================================

type EmployeeID int

// Employee is immutable once added to a Roster.
type Employee struct {
	ID   EmployeeID
	Name string
}

// =============================================================================
// WEEKLY ASSIGNMENT
// =============================================================================

// WeeklyAssignment is one employee's week. It is a value type: copying it
// copies all 7 days, so a caller holding one never observes later writes.
type WeeklyAssignment struct {
	EmployeeID EmployeeID
	Days       [DaysInWeek]DayState
	TotalHours int
}

func (w WeeklyAssignment) Day(d Weekday) DayState { return w.Days[d] }

// WorkedDays counts the Shift days. Rest and Absent never count.
func (w WeeklyAssignment) WorkedDays() int {
	n := 0
	for _, s := range w.Days {
		if s.IsShift() {
			n++
		}
	}
	return n
}

// ExpectedHours is the total implied by Days alone.
func (w WeeklyAssignment) ExpectedHours(shiftHours int) int {
	return shiftHours * w.WorkedDays()
}

// Check verifies the hours invariant against the given shift duration.
func (w WeeklyAssignment) Check(shiftHours int) error {
	want := w.ExpectedHours(shiftHours)
	if w.TotalHours != want || w.TotalHours < 0 {
		return fmt.Errorf("%w: employee %d has %d hours, days imply %d",
			ErrInvariantViolation, w.EmployeeID, w.TotalHours, want)
	}
	return nil
}

// CheckShifts verifies that every Shift day carries one of the configured
// labels.
func (w WeeklyAssignment) CheckShifts(labels []ShiftLabel) error {
	for _, d := range Weekdays {
		s := w.Days[d]
		if s.IsShift() && !slices.Contains(labels, s.Shift) {
			return fmt.Errorf("%w: employee %d works unknown shift %q on %s",
				ErrInvariantViolation, w.EmployeeID, s.Shift, d)
		}
	}
	return nil
}

// Labels returns the report label for each day, Mon..Sun.
func (w WeeklyAssignment) Labels() [DaysInWeek]string {
	var out [DaysInWeek]string
	for i, s := range w.Days {
		out[i] = s.String()
	}
	return out
}

// =============================================================================
// COMMAND
// =============================================================================

type Command string

const (
	CommandOut     Command = "out"
	CommandIn      Command = "in"
	CommandFullOut Command = "full out"
)

// commandSpellings lists every accepted status text after lower-casing.
var commandSpellings = map[string]Command{
	"out":      CommandOut,
	"in":       CommandIn,
	"full out": CommandFullOut,
	"full_out": CommandFullOut,
	"full-out": CommandFullOut,
}

// ParseCommand is case-insensitive. Full out may be written "full out",
// "full_out" or "full-out"; nothing else is accepted.
func ParseCommand(s string) (Command, error) {
	if cmd, ok := commandSpellings[strings.ToLower(strings.TrimSpace(s))]; ok {
		return cmd, nil
	}
	return "", &InvalidCommandError{Input: s}
}

func (c Command) Valid() bool {
	return c == CommandOut || c == CommandIn || c == CommandFullOut
}
