/*
Package report renders schedule state as tables and writes them to files.

PURPOSE:
  The report is a view, built on demand from schedule.Entry values. It is
  never stored or edited separately, so an export always matches the
  authoritative weekly assignments at the moment it is built.

COLUMNS:
  ID, Name, Mon, Tue, Wed, Thu, Fri, Sat, Sun, Total Hours [, Wages]

  The Wages column is present only when the table is built with a wage
  calculator.

FORMATS:
  csv:  encoding/csv
  xlsx: excelize workbook, one sheet
  json: array of row objects

SEE ALSO:
  - archive.go: Output directory and file naming
  - console/session.go: Builds tables for the interactive commands
*/
package report

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/warp/shift-engine/schedule"
)

// Kind names the two reports the system produces.
type Kind string

const (
	KindSchedule Kind = "schedule"
	KindWages    Kind = "wages"
)

// Row is one employee's line in a report.
type Row struct {
	ID         schedule.EmployeeID
	Name       string
	Days       [schedule.DaysInWeek]string
	TotalHours int
	Wage       *decimal.Decimal
}

type Table struct {
	Rows      []Row
	WithWages bool
}

// Build creates a table from entries in the order given. Pass a calculator to
// add the Wages column.
func Build(entries []schedule.Entry, wages *schedule.WageCalculator) Table {
	t := Table{Rows: make([]Row, len(entries)), WithWages: wages != nil}
	for i, e := range entries {
		row := Row{
			ID:         e.Employee.ID,
			Name:       e.Employee.Name,
			Days:       e.Assignment.Labels(),
			TotalHours: e.Assignment.TotalHours,
		}
		if wages != nil {
			w := wages.Wage(e.Assignment.TotalHours)
			row.Wage = &w
		}
		t.Rows[i] = row
	}
	return t
}

// Only returns a table holding just the given employee's row.
func (t Table) Only(id schedule.EmployeeID) (Table, bool) {
	for _, r := range t.Rows {
		if r.ID == id {
			return Table{Rows: []Row{r}, WithWages: t.WithWages}, true
		}
	}
	return Table{WithWages: t.WithWages}, false
}

func (t Table) Header() []string {
	h := []string{"ID", "Name"}
	for _, d := range schedule.Weekdays {
		h = append(h, d.String())
	}
	h = append(h, "Total Hours")
	if t.WithWages {
		h = append(h, "Wages")
	}
	return h
}

// Records returns the header followed by one string record per row.
func (t Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Header())
	for _, r := range t.Rows {
		rec := []string{strconv.Itoa(int(r.ID)), r.Name}
		rec = append(rec, r.Days[:]...)
		rec = append(rec, strconv.Itoa(r.TotalHours))
		if t.WithWages {
			rec = append(rec, formatWage(r.Wage))
		}
		out = append(out, rec)
	}
	return out
}

func formatWage(w *decimal.Decimal) string {
	if w == nil {
		return ""
	}
	return w.String()
}
