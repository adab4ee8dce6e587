// Package metrics exposes prometheus counters for agent requests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics groups the trader's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Broadcasts      *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_requests_total",
			Help: "Requests handled by the agent, by kind and outcome",
		}, []string{"kind", "outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trader_request_duration_seconds",
			Help:    "Time spent handling agent requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		Broadcasts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_broadcasts_total",
			Help: "Signed transactions accepted by the node",
		}, []string{"kind"}),
		gatherer: reg,
	}
}

// ObserveRequest records one handled request.
func (m *Metrics) ObserveRequest(kind string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.Requests.WithLabelValues(kind, outcome).Inc()
	m.RequestDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

// ObserveBroadcast records a transaction accepted by the node.
func (m *Metrics) ObserveBroadcast(kind string) {
	if m == nil {
		return
	}
	m.Broadcasts.WithLabelValues(kind).Inc()
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
