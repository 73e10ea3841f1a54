// Package metrics exposes relay counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "botrelay"

// Metrics holds the relay's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	updates        *prometheus.CounterVec
	dispatchErrors *prometheus.CounterVec
	registrations  *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Webhook updates received, by route.",
		}, []string{"route"}),
		dispatchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_errors_total",
			Help:      "Webhook updates whose handling failed, by route.",
		}, []string{"route"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Sub-bot registration attempts, by source and outcome.",
		}, []string{"source", "outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.updates,
		m.dispatchErrors,
		m.registrations,
	)
	return m
}

// UpdateReceived counts an inbound update on route.
func (m *Metrics) UpdateReceived(route string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(route).Inc()
}

// DispatchFailed counts an update whose handler returned an error.
func (m *Metrics) DispatchFailed(route string) {
	if m == nil {
		return
	}
	m.dispatchErrors.WithLabelValues(route).Inc()
}

// Registration counts a registration attempt.
func (m *Metrics) Registration(source, outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(source, outcome).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
