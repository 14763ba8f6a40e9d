package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Backend API metrics
	BackendRequests *prometheus.CounterVec
	BackendLatency  *prometheus.HistogramVec

	// Session store metrics
	SessionOperations *prometheus.CounterVec

	// Client state metrics
	StaleResponses *prometheus.CounterVec
	GateDecisions  *prometheus.CounterVec
}

// NewMetrics creates all application metrics and registers them with reg.
func NewMetrics(namespace, subsystem string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BackendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "backend_requests_total",
			Help:      "Total number of calls to the booking backend",
		}, []string{"operation", "outcome"}),
		BackendLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "backend_request_duration_seconds",
			Help:      "Duration of calls to the booking backend",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		SessionOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "session_operations_total",
			Help:      "Total number of session store operations",
		}, []string{"operation", "status"}),
		StaleResponses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stale_responses_total",
			Help:      "Responses discarded because a newer request superseded them",
		}, []string{"field"}),
		GateDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "auth_gate_decisions_total",
			Help:      "Auth gate outcomes on protected pages",
		}, []string{"state"}),
	}
}

func (m *Metrics) ObserveBackend(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.BackendRequests.WithLabelValues(operation, outcome).Inc()
	m.BackendLatency.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) SessionOp(operation string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SessionOperations.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) Stale(field string) {
	if m == nil {
		return
	}
	m.StaleResponses.WithLabelValues(field).Inc()
}

func (m *Metrics) Gate(state string) {
	if m == nil {
		return
	}
	m.GateDecisions.WithLabelValues(state).Inc()
}
