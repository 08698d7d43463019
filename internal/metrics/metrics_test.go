package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"gestor/internal/metrics"
)

func TestCountersAreRegistered(t *testing.T) {
	m := metrics.New()
	m.Transitions.WithLabelValues("2", metrics.OutcomeApplied).Inc()
	m.Transitions.WithLabelValues("2", metrics.OutcomeApplied).Inc()
	m.Comments.Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("2", metrics.OutcomeApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Comments))
	n, err := testutil.GatherAndCount(m.Registry, "gestor_transitions_total", "gestor_comments_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
}
