package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is safe to use through a nil pointer; every method is a no-op then.
type Metrics struct {
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	statusTransitions *prometheus.CounterVec
	seriesUpdates     *prometheus.CounterVec
	partialFailures   *prometheus.CounterVec
	conflicts         *prometheus.CounterVec
	timeBlocksCreated prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calendar",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "calendar",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		statusTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calendar",
			Name:      "appointment_status_transitions_total",
			Help:      "Appointment status changes that were written.",
		}, []string{"from", "to"}),
		seriesUpdates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calendar",
			Name:      "series_updates_total",
			Help:      "Series progress writes by kind (advance, rollback, complete).",
		}, []string{"kind"}),
		partialFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calendar",
			Name:      "partial_failures_total",
			Help:      "Primary writes that succeeded while the dependent series write failed.",
		}, []string{"action"}),
		conflicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calendar",
			Name:      "booking_conflicts_total",
			Help:      "Bookings and reschedules refused because the time was taken.",
		}, []string{"operation"}),
		timeBlocksCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: "calendar",
			Name:      "time_blocks_created_total",
			Help:      "Time block rows created, after multi-day fan-out.",
		}),
	}
}

func (m *Metrics) ObserveHTTP(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *Metrics) StatusTransition(from, to string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) SeriesUpdate(kind string) {
	if m == nil {
		return
	}
	m.seriesUpdates.WithLabelValues(kind).Inc()
}

func (m *Metrics) PartialFailure(action string) {
	if m == nil {
		return
	}
	m.partialFailures.WithLabelValues(action).Inc()
}

func (m *Metrics) Conflict(operation string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(operation).Inc()
}

func (m *Metrics) TimeBlocksCreated(n int) {
	if m == nil {
		return
	}
	m.timeBlocksCreated.Add(float64(n))
}
