package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-engine/schedule"
	"github.com/warp/shift-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func fixedWeek(id schedule.EmployeeID) schedule.WeeklyAssignment {
	w := schedule.WeeklyAssignment{EmployeeID: id}
	w.Days = [schedule.DaysInWeek]schedule.DayState{
		schedule.OnShift(schedule.ShiftDay),
		schedule.OnShift(schedule.ShiftEvening),
		schedule.Rest(),
		schedule.OnShift(schedule.ShiftDay),
		schedule.Absent(),
		schedule.OnShift(schedule.ShiftEvening),
		schedule.Rest(),
	}
	w.TotalHours = w.ExpectedHours(6)
	return w
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

func TestStore_SetGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := fixedWeek(4)
	require.NoError(t, store.Set(ctx, want))

	got, err := store.Get(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 24, got.TotalHours)
}

func TestStore_GetMissing_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), 42)
	assert.ErrorIs(t, err, schedule.ErrEmployeeNotFound)
}

func TestStore_All_InsertionOrder(t *testing.T) {
	// GIVEN: Employees inserted as 5, 2, 9, then 2 overwritten
	// THEN: All() still lists 5, 2, 9

	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []schedule.EmployeeID{5, 2, 9} {
		require.NoError(t, store.Set(ctx, fixedWeek(id)))
	}
	updated := fixedWeek(2)
	updated.Days[schedule.Monday] = schedule.Absent()
	updated.TotalHours -= 6
	require.NoError(t, store.Set(ctx, updated))

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, schedule.EmployeeID(5), all[0].EmployeeID)
	assert.Equal(t, schedule.EmployeeID(2), all[1].EmployeeID)
	assert.Equal(t, schedule.EmployeeID(9), all[2].EmployeeID)
	assert.Equal(t, 18, all[1].TotalHours)
}

func TestStore_Update_RollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, fixedWeek(1)))

	boom := errors.New("boom")
	_, err := store.Update(ctx, 1, func(w *schedule.WeeklyAssignment) error {
		w.Days[schedule.Monday] = schedule.Absent()
		w.TotalHours = 0
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, fixedWeek(1), got)
}

func TestStore_NegativeHoursRejectedByDatabase(t *testing.T) {
	store := newTestStore(t)
	w := fixedWeek(1)
	w.TotalHours = -6

	assert.Error(t, store.Set(context.Background(), w))
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.db")
	ctx := context.Background()

	store, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, fixedWeek(3)))
	require.NoError(t, store.Close())

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, fixedWeek(3), got)
}

// =============================================================================
// ENGINE OVER SQLITE
// =============================================================================

func TestStore_EngineTransitions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, fixedWeek(1)))

	engine := schedule.NewEngine(store, schedule.DefaultRules(), schedule.NewRandom(3))
	engine.Events = store

	out, err := engine.Apply(ctx, 1, schedule.Friday, schedule.CommandIn)
	require.NoError(t, err)
	assert.Equal(t, 30, out.Assignment.TotalHours)

	out, err = engine.Apply(ctx, 1, schedule.Friday, schedule.CommandFullOut)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Assignment.TotalHours)

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, out.Assignment, got)

	events, err := store.ListEvents(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, schedule.CommandIn, events[0].Command)
	assert.Equal(t, []schedule.Weekday{schedule.Friday}, events[0].Changed)
	assert.Equal(t, schedule.CommandFullOut, events[1].Command)
	assert.Equal(t, -30, events[1].HoursDelta)
	assert.WithinDuration(t, time.Now(), events[1].At, time.Minute)
}

func TestStore_ListEvents_BadTimestamp(t *testing.T) {
	// GIVEN: An event row whose created_at is not RFC 3339
	// WHEN: The employee's events are listed
	// THEN: The parse error is returned instead of a zero time

	path := filepath.Join(t.TempDir(), "schedule.db")
	ctx := context.Background()

	store, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, store.AppendEvent(ctx, schedule.Event{
		ID:         "evt-1",
		EmployeeID: 2,
		Day:        schedule.Monday,
		Command:    schedule.CommandOut,
		Changed:    []schedule.Weekday{schedule.Monday},
		HoursDelta: -6,
		TotalHours: 24,
		At:         time.Now(),
	}))
	require.NoError(t, store.Close())

	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = raw.Exec(`UPDATE absence_events SET created_at = 'last tuesday' WHERE id = 'evt-1'`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()

	events, err := reopened.ListEvents(ctx, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evt-1")
	assert.Nil(t, events)
}

// =============================================================================
// ROSTER AND RESET
// =============================================================================

func TestStore_SaveRosterAndReset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	roster, err := schedule.RosterFromNames("Alex", "Jordan")
	require.NoError(t, err)
	require.NoError(t, store.SaveRoster(ctx, roster.Employees()))
	require.NoError(t, store.Set(ctx, fixedWeek(1)))

	employees, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Equal(t, roster.Employees(), employees)

	require.NoError(t, store.Reset(ctx))
	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
