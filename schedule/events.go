package schedule

import (
	"time"

	"github.com/google/uuid"
)

// Event records one applied absence transition. No-op transitions are not
// recorded.
type Event struct {
	ID         string
	EmployeeID EmployeeID
	Day        Weekday
	Command    Command
	Changed    []Weekday
	HoursDelta int
	TotalHours int
	At         time.Time
}

func newEvent(o Outcome, day Weekday, cmd Command, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		EmployeeID: o.Assignment.EmployeeID,
		Day:        day,
		Command:    cmd,
		Changed:    append([]Weekday(nil), o.Changed...),
		HoursDelta: o.HoursDelta,
		TotalHours: o.Assignment.TotalHours,
		At:         at.UTC(),
	}
}
