package filter

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	decisionContinue = "continue"
	decisionReject   = "reject"
	decisionError    = "error"
	decisionExcluded = "excluded"
)

// Metrics holds Prometheus metrics for filter decisions.
type Metrics struct {
	decisionsTotal *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	refreshesTotal *prometheus.CounterVec
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// GetMetrics returns the singleton filter metrics instance.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = newMetrics()
	})
	return metricsInstance
}

func newMetrics() *Metrics {
	return &Metrics{
		decisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "filter",
				Name:      "decisions_total",
				Help:      "Filter stage decisions by stage and decision",
			},
			[]string{"stage", "decision"},
		),
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gateway",
				Subsystem: "filter",
				Name:      "stage_duration_seconds",
				Help:      "Filter stage duration in seconds",
				Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 3},
			},
			[]string{"stage"},
		),
		refreshesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "filter",
				Name:      "credential_refreshes_total",
				Help:      "Transparent credential refresh attempts by result",
			},
			[]string{"result"},
		),
	}
}

// MustRegister registers the collectors with the gateway registry.
func (m *Metrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(m.decisionsTotal, m.stageDuration, m.refreshesTotal)
}

// Init pre-populates label combinations with zero values.
func (m *Metrics) Init() {
	for _, stage := range []string{StageHeader, StageVerify, StageIdentity, StageRole} {
		for _, d := range []string{decisionContinue, decisionReject, decisionError} {
			m.decisionsTotal.WithLabelValues(stage, d)
		}
	}
}
