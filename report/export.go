package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/warp/shift-engine/schedule"
)

// Exporter writes a table in one file format.
type Exporter interface {
	Format() string
	ContentType() string
	Write(w io.Writer, t Table) error
}

// ExporterFor returns the exporter for "csv", "xlsx" or "json".
func ExporterFor(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "csv":
		return CSV{}, nil
	case "xlsx", "excel":
		return XLSX{}, nil
	case "json":
		return JSON{}, nil
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}

// =============================================================================
// CSV
// =============================================================================

type CSV struct{}

func (CSV) Format() string { return "csv" }
func (CSV) ContentType() string { return "text/csv" }

func (CSV) Write(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// =============================================================================
// XLSX
// =============================================================================

// XLSX writes a single-sheet workbook. Numeric columns are stored as numbers.
type XLSX struct{}

const sheetName = "Schedule"

func (XLSX) Format() string { return "xlsx" }
func (XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSX) Write(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := t.Header()
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range t.Rows {
		values := []any{int(r.ID), r.Name}
		for _, d := range r.Days {
			values = append(values, d)
		}
		values = append(values, r.TotalHours)
		if t.WithWages && r.Wage != nil {
			values = append(values, r.Wage.InexactFloat64())
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row for employee %d: %w", r.ID, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// =============================================================================
// JSON
// =============================================================================

type JSON struct{}

func (JSON) Format() string { return "json" }
func (JSON) ContentType() string { return "application/json" }

// RowJSON is the JSON form of a Row. Days keep Mon..Sun order.
type RowJSON struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	Days       DaysJSON `json:"days"`
	TotalHours int      `json:"total_hours"`
	Wage       *string  `json:"wage,omitempty"`
}

type DaysJSON struct {
	Mon string `json:"Mon"`
	Tue string `json:"Tue"`
	Wed string `json:"Wed"`
	Thu string `json:"Thu"`
	Fri string `json:"Fri"`
	Sat string `json:"Sat"`
	Sun string `json:"Sun"`
}

func daysJSON(d [schedule.DaysInWeek]string) DaysJSON {
	return DaysJSON{Mon: d[0], Tue: d[1], Wed: d[2], Thu: d[3], Fri: d[4], Sat: d[5], Sun: d[6]}
}

// ToJSON converts rows for JSON encoding. Used by the HTTP API as well.
func (t Table) ToJSON() []RowJSON {
	out := make([]RowJSON, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = RowJSON{
			ID:         int(r.ID),
			Name:       r.Name,
			Days:       daysJSON(r.Days),
			TotalHours: r.TotalHours,
		}
		if t.WithWages && r.Wage != nil {
			s := r.Wage.String()
			out[i].Wage = &s
		}
	}
	return out
}

func (JSON) Write(w io.Writer, t Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t.ToJSON())
}
