/*
generate.go - Shift rules and random weekly assignment generation

PURPOSE:
  Rules holds the constants of the scheduling system (hours per shift, shift
  labels, work days per week, hourly rate). Generate builds a fresh
  WeeklyAssignment from those rules.

GENERATION:
  1. Sample WorkDays distinct weekdays without replacement
  2. Give each work day an independently chosen shift label
  3. Every other day is Rest
  4. TotalHours = WorkDays * ShiftHours (no day starts Absent)

EXAMPLE:
  rules := schedule.DefaultRules()
  week := rules.Generate(1, schedule.NewRandom(42))
  // week.WorkedDays() == 5, week.TotalHours == 30
*/
package schedule

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RULES
// =============================================================================

type Rules struct {
	ShiftHours int
	Shifts     []ShiftLabel
	WorkDays   int
	HourlyRate decimal.Decimal
}

// Reference values.
const (
	DefaultShiftHours = 6
	DefaultWorkDays   = 5
	DefaultHourlyRate = 15
)

func DefaultRules() Rules {
	return Rules{
		ShiftHours: DefaultShiftHours,
		Shifts:     append([]ShiftLabel(nil), DefaultShifts...),
		WorkDays:   DefaultWorkDays,
		HourlyRate: decimal.NewFromInt(DefaultHourlyRate),
	}
}

func (r Rules) Validate() error {
	if r.ShiftHours <= 0 {
		return fmt.Errorf("%w: shift hours must be positive, got %d", ErrInvalidRules, r.ShiftHours)
	}
	if len(r.Shifts) == 0 {
		return fmt.Errorf("%w: at least one shift label is required", ErrInvalidRules)
	}
	seen := make(map[ShiftLabel]bool, len(r.Shifts))
	for _, s := range r.Shifts {
		if s == "" || string(s) == RestLabel || string(s) == AbsentLabel {
			return fmt.Errorf("%w: shift label %q is reserved or empty", ErrInvalidRules, s)
		}
		if seen[s] {
			return fmt.Errorf("%w: duplicate shift label %q", ErrInvalidRules, s)
		}
		seen[s] = true
	}
	if r.WorkDays < 0 || r.WorkDays > DaysInWeek {
		return fmt.Errorf("%w: work days must be between 0 and %d, got %d", ErrInvalidRules, DaysInWeek, r.WorkDays)
	}
	if r.HourlyRate.IsNegative() {
		return fmt.Errorf("%w: hourly rate must not be negative", ErrInvalidRules)
	}
	return nil
}

// Wages returns the calculator for these rules.
func (r Rules) Wages() WageCalculator { return WageCalculator{HourlyRate: r.HourlyRate} }

// =============================================================================
// GENERATION
// =============================================================================

// Generate returns a new random week for the employee. Rules must be valid.
func (r Rules) Generate(id EmployeeID, rnd Random) WeeklyAssignment {
	w := WeeklyAssignment{EmployeeID: id}
	for i := range w.Days {
		w.Days[i] = Rest()
	}
	for _, d := range sampleWeekdays(rnd, r.WorkDays) {
		w.Days[d] = OnShift(chooseShift(rnd, r.Shifts))
	}
	w.TotalHours = r.WorkDays * r.ShiftHours
	return w
}
