// Package metrics provides the Prometheus instrumentation for tutoradmin.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tutoradmin"

// Registry owns a Prometheus registry and the collectors registered on it.
// Every process builds one and passes it to the components that record.
type Registry struct {
	registry *prometheus.Registry

	HTTP     *HTTPMetrics
	Domain   *DomainMetrics
	Requests *RequestMetrics
}

// NewRegistry creates a registry with the HTTP, domain and request-lifecycle
// collectors plus the Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)
	return &Registry{
		registry: reg,
		HTTP:     newHTTPMetrics(factory),
		Domain:   newDomainMetrics(factory),
		Requests: newRequestMetrics(factory),
	}
}

// Register registers an additional collector.
func (r *Registry) Register(collector prometheus.Collector) error {
	return r.registry.Register(collector)
}

// Handler returns an HTTP handler that exposes metrics in Prometheus format.
// It is mounted on the management server at /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Gatherer returns the underlying prometheus.Gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
