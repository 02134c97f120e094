package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// DomainRecorder is what services report queries and mutations to.
type DomainRecorder interface {
	ObserveQuery(entity string, pageSize, matched int, duration time.Duration)
	ObserveMutation(entity, operation string, err error)
}

// DomainMetrics counts collection queries and mutations per entity.
type DomainMetrics struct {
	queries       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	pageSize      *prometheus.HistogramVec
	matched       *prometheus.HistogramVec
	mutations     *prometheus.CounterVec
}

func newDomainMetrics(factory promauto.Factory) *DomainMetrics {
	return &DomainMetrics{
		queries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Collection queries served, by entity",
			},
			[]string{"entity"},
		),
		queryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Time spent running a collection query, including simulated backend latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"entity"},
		),
		pageSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_page_size",
				Help:      "Requested page size per query",
				Buckets:   []float64{1, 5, 10, 20, 50, 100},
			},
			[]string{"entity"},
		),
		matched: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_matched_records",
				Help:      "Records left after filter and search, before pagination",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"entity"},
		),
		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_total",
				Help:      "Record mutations, by entity, operation and outcome",
			},
			[]string{"entity", "operation", "outcome"},
		),
	}
}

// ObserveQuery records one paginated query.
func (m *DomainMetrics) ObserveQuery(entity string, pageSize, matched int, duration time.Duration) {
	m.queries.WithLabelValues(entity).Inc()
	m.queryDuration.WithLabelValues(entity).Observe(duration.Seconds())
	m.pageSize.WithLabelValues(entity).Observe(float64(pageSize))
	m.matched.WithLabelValues(entity).Observe(float64(matched))
}

// ObserveMutation records one create, update or delete attempt.
func (m *DomainMetrics) ObserveMutation(entity, operation string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.mutations.WithLabelValues(entity, operation, outcome).Inc()
}

// NopRecorder discards every observation.
type NopRecorder struct{}

// ObserveQuery does nothing.
func (NopRecorder) ObserveQuery(string, int, int, time.Duration) {}

// ObserveMutation does nothing.
func (NopRecorder) ObserveMutation(string, string, error) {}
