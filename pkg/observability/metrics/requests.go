package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RequestMetrics tracks the per-operation request lifecycle.
type RequestMetrics struct {
	transitions *prometheus.CounterVec
	stale       *prometheus.CounterVec
}

func newRequestMetrics(factory promauto.Factory) *RequestMetrics {
	return &RequestMetrics{
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "request_state_transitions_total",
				Help:      "Request lifecycle transitions, by operation and target state",
			},
			[]string{"operation", "state"},
		),
		stale: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "request_stale_results_total",
				Help:      "Results discarded because a newer request for the same operation was issued",
			},
			[]string{"operation"},
		),
	}
}

// Transition counts a move of operation into state.
func (m *RequestMetrics) Transition(operation, state string) {
	m.transitions.WithLabelValues(operation, state).Inc()
}

// Stale counts a discarded out-of-date result.
func (m *RequestMetrics) Stale(operation string) {
	m.stale.WithLabelValues(operation).Inc()
}
