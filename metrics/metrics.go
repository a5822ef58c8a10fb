// Package metrics exposes Prometheus instrumentation for the scheduler.
package metrics

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/shift-engine/schedule"
)

const namespace = "shift_scheduler"

// Recorder holds the scheduler's collectors. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	hours       *prometheus.GaugeVec
	exports     *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "absence_transitions_total",
			Help:      "Absence commands applied, by command and whether they changed the week.",
		}, []string{"command", "result"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "absence_rejections_total",
			Help:      "Absence commands rejected before any write, by error kind.",
		}, []string{"reason"}),
		hours: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "employee_week_hours",
			Help:      "Current total hours scheduled for each employee this week.",
		}, []string{"employee"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Reports exported, by report kind and format.",
		}, []string{"kind", "format"}),
	}
	r.registry.MustRegister(r.transitions, r.rejections, r.hours, r.exports)
	return r
}

// ObserveOutcome counts an applied command and updates the hours gauge.
func (r *Recorder) ObserveOutcome(cmd schedule.Command, o schedule.Outcome) {
	if r == nil {
		return
	}
	result := "changed"
	if o.NoOp() {
		result = "noop"
	}
	r.transitions.WithLabelValues(string(cmd), result).Inc()
	r.SetHours(o.Assignment)
}

// ObserveRejection counts a failed command by error kind.
func (r *Recorder) ObserveRejection(err error) {
	if r == nil || err == nil {
		return
	}
	r.rejections.WithLabelValues(Reason(err)).Inc()
}

func (r *Recorder) SetHours(w schedule.WeeklyAssignment) {
	if r == nil {
		return
	}
	r.hours.WithLabelValues(strconv.Itoa(int(w.EmployeeID))).Set(float64(w.TotalHours))
}

func (r *Recorder) ObserveExport(kind, format string) {
	if r == nil {
		return
	}
	r.exports.WithLabelValues(kind, format).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests and for callers adding their own collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Transitions returns the counter for tests.
func (r *Recorder) Transitions(cmd schedule.Command, result string) prometheus.Counter {
	return r.transitions.WithLabelValues(string(cmd), result)
}

// Rejections returns the counter for tests.
func (r *Recorder) Rejections(reason string) prometheus.Counter {
	return r.rejections.WithLabelValues(reason)
}

// Hours returns the gauge for tests.
func (r *Recorder) Hours(id schedule.EmployeeID) prometheus.Gauge {
	return r.hours.WithLabelValues(strconv.Itoa(int(id)))
}

// Reason maps an error to its rejection label.
func Reason(err error) string {
	switch {
	case errors.Is(err, schedule.ErrEmployeeNotFound):
		return "not_found"
	case errors.Is(err, schedule.ErrInvalidDay):
		return "invalid_day"
	case errors.Is(err, schedule.ErrInvalidCommand):
		return "invalid_command"
	case errors.Is(err, schedule.ErrInvariantViolation):
		return "invariant"
	default:
		return "internal"
	}
}
