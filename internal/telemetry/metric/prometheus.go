// Package metric provides Prometheus metrics for quiesced.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Connection metrics
	ConnectionsOpen  prometheus.Gauge
	ConnectionsTotal prometheus.Counter

	// Request metrics
	RequestsTotal *prometheus.CounterVec

	// Lifecycle metrics: 0 accepting, 1 draining, 2 terminated.
	LifecycleState prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		ConnectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quiesced_connections_open",
			Help: "Number of currently open client connections.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiesced_connections_total",
			Help: "Total number of accepted client connections.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiesced_requests_total",
			Help: "Total number of HTTP requests served.",
		}, []string{"path"}),
		LifecycleState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quiesced_lifecycle_state",
			Help: "Shutdown coordinator state (0 accepting, 1 draining, 2 terminated).",
		}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.ConnectionsOpen,
		r.ConnectionsTotal,
		r.RequestsTotal,
		r.LifecycleState,
	)

	return r
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
