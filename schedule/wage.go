package schedule

import "github.com/shopspring/decimal"

// WageRecord is derived from a WeeklyAssignment and never stored.
type WageRecord struct {
	EmployeeID EmployeeID
	TotalHours int
	Wage       decimal.Decimal
}

// Wage is total hours times the hourly rate.
func Wage(totalHours int, hourlyRate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(totalHours)).Mul(hourlyRate)
}

// WageCalculator holds the rate configuration and nothing else.
type WageCalculator struct {
	HourlyRate decimal.Decimal
}

func (c WageCalculator) Wage(totalHours int) decimal.Decimal {
	return Wage(totalHours, c.HourlyRate)
}

func (c WageCalculator) Record(w WeeklyAssignment) WageRecord {
	return WageRecord{
		EmployeeID: w.EmployeeID,
		TotalHours: w.TotalHours,
		Wage:       c.Wage(w.TotalHours),
	}
}

// Records computes one record per assignment, preserving order.
func (c WageCalculator) Records(weeks []WeeklyAssignment) []WageRecord {
	out := make([]WageRecord, len(weeks))
	for i, w := range weeks {
		out[i] = c.Record(w)
	}
	return out
}
