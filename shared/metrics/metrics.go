package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors exported by the server.
type Metrics struct {
	registry *prometheus.Registry

	AuthEvents      *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	MailDispatch    *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		AuthEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Authentication events by kind and outcome.",
		}, []string{"event", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		MailDispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_dispatch_total",
			Help:      "Outbound emails by template and outcome.",
		}, []string{"template", "outcome"}),
	}

	registry.MustRegister(
		m.AuthEvents,
		m.RequestDuration,
		m.MailDispatch,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// AuthEvent counts a single authentication event. Safe on a nil receiver.
func (m *Metrics) AuthEvent(event string, err error) {
	if m == nil {
		return
	}
	m.AuthEvents.WithLabelValues(event, outcome(err)).Inc()
}

// MailSent counts a single outbound email. Safe on a nil receiver.
func (m *Metrics) MailSent(template string, err error) {
	if m == nil {
		return
	}
	m.MailDispatch.WithLabelValues(template, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
