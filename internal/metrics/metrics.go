// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Outcome label values for transitions.
const (
	OutcomeApplied         = "applied"
	OutcomeInvalid         = "invalid_transition"
	OutcomeCommentRequired = "comment_required"
	OutcomeNotFound        = "not_found"
	OutcomeConflict        = "conflict"
	OutcomeError           = "error"
)

type Metrics struct {
	Registry    *prometheus.Registry
	Transitions *prometheus.CounterVec
	Comments    prometheus.Counter
	TxDuration  *prometheus.HistogramVec
	HTTP        *prometheus.CounterVec
}

// New builds a private registry with process and Go collectors plus the
// service collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gestor_transitions_total",
			Help: "Case state transitions by target state and outcome.",
		}, []string{"to_state", "outcome"}),
		Comments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gestor_comments_total",
			Help: "Plain comments appended to case timelines.",
		}),
		TxDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gestor_tx_duration_seconds",
			Help:    "Duration of write transactions by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		HTTP: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gestor_http_requests_total",
			Help: "HTTP requests by method and status.",
		}, []string{"method", "status"}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Transitions, m.Comments, m.TxDuration, m.HTTP,
	)
	return m
}
