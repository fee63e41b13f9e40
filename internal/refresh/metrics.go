package refresh

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ClientMetrics holds Prometheus metrics for reissue calls.
type ClientMetrics struct {
	requestsTotal      *prometheus.CounterVec
	requestDuration    prometheus.Histogram
	breakerTransitions *prometheus.CounterVec
}

var (
	clientMetricsInstance *ClientMetrics
	clientMetricsOnce     sync.Once
)

// GetClientMetrics returns the singleton refresh client metrics instance.
func GetClientMetrics() *ClientMetrics {
	clientMetricsOnce.Do(func() {
		clientMetricsInstance = newClientMetrics()
	})
	return clientMetricsInstance
}

// MustRegister registers the collectors with the gateway registry.
func (m *ClientMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(m.requestsTotal, m.requestDuration, m.breakerTransitions)
}

// Init pre-populates label combinations with zero values.
func (m *ClientMetrics) Init() {
	for _, result := range []string{resultSuccess, resultFailure, resultRejected} {
		m.requestsTotal.WithLabelValues(result)
	}
}

func newClientMetrics() *ClientMetrics {
	return &ClientMetrics{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "refresh",
				Name:      "requests_total",
				Help:      "Total number of credential reissue calls by result",
			},
			[]string{"result"},
		),
		requestDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "gateway",
				Subsystem: "refresh",
				Name:      "request_duration_seconds",
				Help:      "Duration of credential reissue calls in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 3, 5},
			},
		),
		breakerTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "refresh",
				Name:      "circuit_breaker_transitions_total",
				Help:      "Circuit breaker state transitions for the reissue endpoint",
			},
			[]string{"from", "to"},
		),
	}
}
