package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// outcomeOK is the outcome label of a successful action. Failures use the
// error kind ("invalid_input", "query_failed", ...).
const outcomeOK = "ok"

// unknownAction is the action label of every name outside the route table,
// so callers cannot mint new series.
const unknownAction = "unknown"

// Metrics records one sample per dispatched action.
type Metrics struct {
	actions  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the dispatcher collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dbagent",
			Name:      "actions_total",
			Help:      "Dispatched actions by action, backend and outcome.",
		}, []string{"action", "backend", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dbagent",
			Name:      "action_duration_seconds",
			Help:      "Wall time of dispatched actions, connection included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action", "backend"}),
	}
	if reg != nil {
		reg.MustRegister(m.actions, m.duration)
	}
	return m
}

func (m *Metrics) observe(action, backend, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, backend, outcome).Inc()
	m.duration.WithLabelValues(action, backend).Observe(elapsed.Seconds())
}
