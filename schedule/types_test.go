package schedule_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-engine/schedule"
)

func TestParseWeekday(t *testing.T) {
	for input, want := range map[string]schedule.Weekday{
		"Mon":   schedule.Monday,
		"mon":   schedule.Monday,
		"TUE":   schedule.Tuesday,
		" wed ": schedule.Wednesday,
		"sun":   schedule.Sunday,
	} {
		got, err := schedule.ParseWeekday(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	for _, bad := range []string{"", "Someday", "monday", "M"} {
		_, err := schedule.ParseWeekday(bad)
		assert.ErrorIs(t, err, schedule.ErrInvalidDay, bad)
	}
}

func TestParseCommand(t *testing.T) {
	for input, want := range map[string]schedule.Command{
		"out":       schedule.CommandOut,
		"OUT":       schedule.CommandOut,
		"In":        schedule.CommandIn,
		"full out":  schedule.CommandFullOut,
		"full_out":  schedule.CommandFullOut,
		"Full-Out":  schedule.CommandFullOut,
		" in ":      schedule.CommandIn,
	} {
		got, err := schedule.ParseCommand(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	for _, bad := range []string{
		"", "absent", "fullout", "out now",
		"-in", "out_", "_-out-_", "in-", "full__out", "full  out", "full_-out", "full out-",
	} {
		_, err := schedule.ParseCommand(bad)
		assert.ErrorIs(t, err, schedule.ErrInvalidCommand, bad)
	}
}

func TestDayState_TextRoundTrip(t *testing.T) {
	w := weekdayWeek(4)
	w.Days[schedule.Tuesday] = schedule.Absent()

	labels := w.Labels()
	assert.Equal(t, "11 am - 5 pm", labels[schedule.Monday])
	assert.Equal(t, "Absent", labels[schedule.Tuesday])
	assert.Equal(t, "Rest", labels[schedule.Sunday])

	for _, l := range labels {
		s, err := schedule.ParseDayState(l)
		require.NoError(t, err)
		assert.Equal(t, l, s.String())
	}
}

func TestWeekday_JSONKey(t *testing.T) {
	b, err := json.Marshal(map[schedule.Weekday]string{schedule.Friday: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fri":"x"}`, string(b))
}

func TestRoster_InsertionOrderAndDuplicates(t *testing.T) {
	r, err := schedule.RosterFromNames("Alex", "Jordan", "Taylor")
	require.NoError(t, err)
	assert.Equal(t, []schedule.EmployeeID{1, 2, 3}, r.IDs())

	emp, ok := r.Get(2)
	require.True(t, ok)
	assert.Equal(t, "Jordan", emp.Name)

	_, err = schedule.NewRoster(
		schedule.Employee{ID: 1, Name: "A"},
		schedule.Employee{ID: 1, Name: "B"},
	)
	assert.ErrorIs(t, err, schedule.ErrDuplicateEmployee)
}

func TestWeeklyAssignment_CheckShifts(t *testing.T) {
	w := weekdayWeek(2)
	require.NoError(t, w.CheckShifts(schedule.DefaultShifts))

	w.Days[schedule.Friday] = schedule.OnShift(schedule.ShiftEvening)
	assert.Error(t, w.CheckShifts([]schedule.ShiftLabel{schedule.ShiftDay}))

	w.Days[schedule.Friday] = schedule.Absent()
	w.Days[schedule.Sunday] = schedule.Rest()
	assert.NoError(t, w.CheckShifts([]schedule.ShiftLabel{schedule.ShiftDay}), "rest and absent days carry no label")
}
