/*
handlers_test.go - HTTP API tests

Tests for:
- Roster and schedule reads
- Absence updates, error mapping and the audit trail
- Wage lines and report downloads
- Snapshot scheduler
*/
package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/shift-engine/metrics"
	"github.com/warp/shift-engine/report"
	"github.com/warp/shift-engine/schedule"
	"github.com/warp/shift-engine/schedule/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	handler *Handler
	router  http.Handler
	mem     *store.Memory
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// newTestServer seeds the reference roster and pins employee 1 to a known
// Mon-Fri day-shift week.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	mem := store.NewMemory()
	day := schedule.OnShift(schedule.ShiftDay)
	rest := schedule.Rest()
	require.NoError(t, mem.Set(ctx, schedule.WeeklyAssignment{
		EmployeeID: 1,
		Days:       [schedule.DaysInWeek]schedule.DayState{day, day, day, day, day, rest, rest},
		TotalHours: 30,
	}))

	roster, err := schedule.RosterFromNames("Alex", "Jordan", "Taylor", "Morgan", "Casey", "Riley")
	require.NoError(t, err)
	s, err := schedule.New(ctx, schedule.Options{
		Roster: roster,
		Store:  mem,
		Rules:  schedule.DefaultRules(),
		Random: schedule.NewRandom(5),
		Events: mem,
		Logger: quietLogger(),
	})
	require.NoError(t, err)

	h := NewHandler(s, metrics.New(), quietLogger())
	return &testServer{
		handler: h,
		router:  NewRouter(h, RouterOptions{Quiet: true}),
		mem:     mem,
	}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// =============================================================================
// READS
// =============================================================================

func TestListEmployees(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/employees", "")
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[[]EmployeeDTO](t, w)
	require.Len(t, got, 6)
	assert.Equal(t, EmployeeDTO{ID: 1, Name: "Alex"}, got[0])
	assert.Equal(t, EmployeeDTO{ID: 6, Name: "Riley"}, got[5])
}

func TestGetSchedule(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/schedules/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	row := decode[report.RowJSON](t, w)
	assert.Equal(t, "Alex", row.Name)
	assert.Equal(t, 30, row.TotalHours)
	assert.Equal(t, "11 am - 5 pm", row.Days.Mon)
	assert.Equal(t, "Rest", row.Days.Sun)
	assert.Nil(t, row.Wage)
}

func TestListSchedules_RosterOrder(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/schedules", "")
	require.Equal(t, http.StatusOK, w.Code)

	rows := decode[[]report.RowJSON](t, w)
	require.Len(t, rows, 6)
	for i, row := range rows {
		assert.Equal(t, i+1, row.ID)
		assert.Equal(t, 30, row.TotalHours)
	}
}

func TestGetSchedule_Errors(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/schedules/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, w).Code)

	w = ts.do(t, http.MethodGet, "/api/schedules/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// ABSENCES
// =============================================================================

func TestMarkAbsence_ReferenceScenario(t *testing.T) {
	// GIVEN: Alex works Mon-Fri day shifts, 30 hours
	// WHEN: out Mon, in Mon, then full out
	// THEN: 24, 30, then 0 hours with every day Absent

	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/schedules/1/absences", `{"day":"Mon","status":"out"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[MarkAbsenceResponse](t, w)
	assert.Equal(t, 24, resp.Schedule.TotalHours)
	assert.Equal(t, "Absent", resp.Schedule.Days.Mon)
	assert.Equal(t, []string{"Mon"}, resp.Changed)
	assert.Equal(t, -6, resp.HoursDelta)
	assert.False(t, resp.NoOp)

	w = ts.do(t, http.MethodPost, "/api/schedules/1/absences", `{"day":"mon","status":"IN"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[MarkAbsenceResponse](t, w)
	assert.Equal(t, 30, resp.Schedule.TotalHours)
	assert.Contains(t, []string{"11 am - 5 pm", "6 pm - 12 am"}, resp.Schedule.Days.Mon)

	w = ts.do(t, http.MethodPost, "/api/schedules/1/absences", `{"day":"Wed","status":"full out"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[MarkAbsenceResponse](t, w)
	assert.Equal(t, 0, resp.Schedule.TotalHours)
	assert.Equal(t, -30, resp.HoursDelta)
	assert.Equal(t, "Absent", resp.Schedule.Days.Sat)

	rec := ts.handler.Metrics
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Transitions(schedule.CommandFullOut, "changed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(rec.Hours(1)))
}

func TestMarkAbsence_NoOpOnRestDay(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/schedules/1/absences", `{"day":"Sat","status":"out"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[MarkAbsenceResponse](t, w)
	assert.True(t, resp.NoOp)
	assert.Empty(t, resp.Changed)
	assert.Equal(t, 30, resp.Schedule.TotalHours)
}

func TestMarkAbsence_Errors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown employee", "/api/schedules/42/absences", `{"day":"Mon","status":"out"}`, http.StatusNotFound, "not_found"},
		{"unknown employee wins over bad day", "/api/schedules/42/absences", `{"day":"Funday","status":"nope"}`, http.StatusNotFound, "not_found"},
		{"bad day", "/api/schedules/1/absences", `{"day":"Funday","status":"out"}`, http.StatusBadRequest, "invalid_day"},
		{"bad status", "/api/schedules/1/absences", `{"day":"Mon","status":"sideways"}`, http.StatusBadRequest, "invalid_command"},
		{"malformed body", "/api/schedules/1/absences", `{"day":`, http.StatusBadRequest, ""},
		{"bad id", "/api/schedules/x/absences", `{"day":"Mon","status":"out"}`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			before, err := ts.mem.All(context.Background())
			require.NoError(t, err)

			w := ts.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, decode[ErrorResponse](t, w).Code)
			}

			after, err := ts.mem.All(context.Background())
			require.NoError(t, err)
			assert.Equal(t, before, after, "store must be unchanged")
		})
	}
}

// failingEvents rejects every append.
type failingEvents struct{}

func (failingEvents) AppendEvent(context.Context, schedule.Event) error {
	return errors.New("events table locked")
}

func (failingEvents) ListEvents(context.Context, schedule.EmployeeID) ([]schedule.Event, error) {
	return nil, nil
}

func TestMarkAbsence_AuditFailureStillReportsApplied(t *testing.T) {
	// GIVEN: A schedule whose event log cannot be written
	// WHEN: An absence is posted
	// THEN: 200 with the new week, counted as a change and not as a rejection

	ctx := context.Background()
	mem := store.NewMemory()
	roster, err := schedule.RosterFromNames("Alex")
	require.NoError(t, err)
	s, err := schedule.New(ctx, schedule.Options{
		Roster: roster,
		Store:  mem,
		Rules:  schedule.DefaultRules(),
		Random: schedule.NewRandom(5),
		Events: failingEvents{},
		Logger: quietLogger(),
	})
	require.NoError(t, err)
	h := NewHandler(s, metrics.New(), quietLogger())
	ts := &testServer{handler: h, router: NewRouter(h, RouterOptions{Quiet: true}), mem: mem}

	w := ts.do(t, http.MethodPost, "/api/schedules/1/absences", `{"day":"Mon","status":"full out"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 0, decode[MarkAbsenceResponse](t, w).Schedule.TotalHours)

	stored, err := mem.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.TotalHours)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.Metrics.Transitions(schedule.CommandFullOut, "changed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(h.Metrics.Rejections("internal")))
}

func TestMarkAbsence_ExportsWhenArchiveSet(t *testing.T) {
	ts := newTestServer(t)
	dir := t.TempDir()
	ts.handler.Archive = report.NewArchive(dir, report.CSV{}, quietLogger())

	w := ts.do(t, http.MethodPost, "/api/schedules/1/absences", `{"day":"Tue","status":"out"}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[MarkAbsenceResponse](t, w)
	assert.Equal(t, filepath.Join(dir, "employee_schedule.csv"), resp.ExportedTo)
	b, err := os.ReadFile(resp.ExportedTo)
	require.NoError(t, err)
	assert.Contains(t, string(b), "1,Alex,11 am - 5 pm,Absent,")
}

func TestListEvents(t *testing.T) {
	ts := newTestServer(t)

	ts.do(t, http.MethodPost, "/api/schedules/1/absences", `{"day":"Mon","status":"out"}`)
	ts.do(t, http.MethodPost, "/api/schedules/1/absences", `{"day":"Mon","status":"out"}`)
	ts.do(t, http.MethodPost, "/api/schedules/1/absences", `{"day":"Mon","status":"in"}`)

	w := ts.do(t, http.MethodGet, "/api/schedules/1/events", "")
	require.Equal(t, http.StatusOK, w.Code)

	events := decode[[]EventDTO](t, w)
	require.Len(t, events, 2, "the repeated out is a no-op and not recorded")
	assert.Equal(t, "out", events[0].Status)
	assert.Equal(t, 24, events[0].TotalHours)
	assert.Equal(t, "in", events[1].Status)
	assert.Equal(t, 30, events[1].TotalHours)
	assert.NotEmpty(t, events[0].ID)

	w = ts.do(t, http.MethodGet, "/api/schedules/2/events", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]EventDTO](t, w))
}

// =============================================================================
// WAGES & REPORTS
// =============================================================================

func TestListWages(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodPost, "/api/schedules/1/absences", `{"day":"Mon","status":"out"}`)

	w := ts.do(t, http.MethodGet, "/api/wages", "")
	require.Equal(t, http.StatusOK, w.Code)

	wages := decode[[]WageDTO](t, w)
	require.Len(t, wages, 6)
	assert.Equal(t, WageDTO{EmployeeID: 1, Name: "Alex", TotalHours: 24, HourlyRate: "15", Wage: "360"}, wages[0])
	assert.Equal(t, "450", wages[1].Wage)
}

func TestGetReport_CSV(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/reports/wages?format=csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="employee_wages.csv"`)

	records, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 7)
	assert.Equal(t, "Wages", records[0][10])
	assert.Equal(t, []string{"1", "Alex", "11 am - 5 pm", "11 am - 5 pm", "11 am - 5 pm", "11 am - 5 pm", "11 am - 5 pm", "Rest", "Rest", "30", "450"}, records[1])

	m := ts.do(t, http.MethodGet, "/metrics", "")
	assert.Contains(t, m.Body.String(), `shift_scheduler_exports_total{format="csv",kind="wages"} 1`)
}

func TestGetReport_XLSX(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/reports/SCHEDULE?format=xlsx", "")
	require.Equal(t, http.StatusOK, w.Code)

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Schedule")
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, "Total Hours", rows[0][len(rows[0])-1])
}

func TestGetReport_Errors(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/reports/payroll", "").Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/reports/schedule?format=pdf", "").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	ts.do(t, http.MethodPost, "/api/schedules/1/absences", `{"day":"Fri","status":"out"}`)
	w = ts.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `shift_scheduler_absence_transitions_total{command="out",result="changed"} 1`)
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

func TestSnapshotScheduler_WritesOnStart(t *testing.T) {
	ts := newTestServer(t)
	dir := t.TempDir()
	snaps := NewSnapshotScheduler(ts.handler.Schedule, report.NewArchive(dir, report.JSON{}, quietLogger()), quietLogger())
	snaps.Interval = time.Hour

	snaps.Start()
	require.Eventually(t, func() bool {
		runs, _ := snaps.Runs()
		return runs >= 1
	}, 5*time.Second, 10*time.Millisecond)
	snaps.Stop()
	snaps.Stop()

	runs, err := snaps.Runs()
	assert.Equal(t, 1, runs)
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "employee_schedule.json"))
	require.NoError(t, err)
	var rows []report.RowJSON
	require.NoError(t, json.Unmarshal(b, &rows))
	assert.Len(t, rows, 6)
}

func TestSnapshotScheduler_DisabledWithoutInterval(t *testing.T) {
	ts := newTestServer(t)
	snaps := NewSnapshotScheduler(ts.handler.Schedule, report.NewArchive(t.TempDir(), report.CSV{}, quietLogger()), quietLogger())
	snaps.Interval = 0

	snaps.Start()
	snaps.Stop()

	runs, _ := snaps.Runs()
	assert.Zero(t, runs)
}
