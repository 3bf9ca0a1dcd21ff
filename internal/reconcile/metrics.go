package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gantry-sh/gantry/internal/graph"
)

// Metrics counts provider interactions per resource kind. A nil *Metrics
// is valid and counts nothing.
type Metrics struct {
	ensureCalls   *prometheus.CounterVec
	tearDownCalls *prometheus.CounterVec
	retries       *prometheus.CounterVec
	failures      *prometheus.CounterVec
}

// NewMetrics creates and registers reconciliation counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ensureCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gantry_ensure_calls_total",
			Help: "Provider ensure calls issued, by resource kind.",
		}, []string{"kind"}),
		tearDownCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gantry_teardown_calls_total",
			Help: "Provider teardown calls issued, by resource kind.",
		}, []string{"kind"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gantry_retries_total",
			Help: "Transient provider failures retried, by resource kind.",
		}, []string{"kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gantry_node_failures_total",
			Help: "Nodes that ended a run in the Failed state, by resource kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.ensureCalls, m.tearDownCalls, m.retries, m.failures)
	return m
}

func (m *Metrics) ensure(kind graph.Kind) {
	if m != nil {
		m.ensureCalls.WithLabelValues(string(kind)).Inc()
	}
}

func (m *Metrics) tearDown(kind graph.Kind) {
	if m != nil {
		m.tearDownCalls.WithLabelValues(string(kind)).Inc()
	}
}

func (m *Metrics) retry(kind graph.Kind) {
	if m != nil {
		m.retries.WithLabelValues(string(kind)).Inc()
	}
}

func (m *Metrics) failure(kind graph.Kind) {
	if m != nil {
		m.failures.WithLabelValues(string(kind)).Inc()
	}
}
