package middleware

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MiddlewareMetrics holds Prometheus metrics for middleware operations.
type MiddlewareMetrics struct {
	panicsRecovered   prometheus.Counter
	requestIDsIssued  prometheus.Counter
	requestIDsIgnored prometheus.Counter
}

var (
	middlewareMetrics     *MiddlewareMetrics
	middlewareMetricsOnce sync.Once
)

// GetMiddlewareMetrics returns the singleton middleware metrics instance.
func GetMiddlewareMetrics() *MiddlewareMetrics {
	middlewareMetricsOnce.Do(func() {
		middlewareMetrics = &MiddlewareMetrics{
			panicsRecovered: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "middleware",
				Name:      "panics_recovered_total",
				Help:      "Total number of panics recovered",
			}),
			requestIDsIssued: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "middleware",
				Name:      "request_ids_generated_total",
				Help:      "Total number of request ids generated by the gateway",
			}),
			requestIDsIgnored: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "middleware",
				Name:      "request_ids_rejected_total",
				Help:      "Total number of inbound request ids replaced because they were malformed",
			}),
		}
	})
	return middlewareMetrics
}

// MustRegister registers the collectors with the gateway registry.
func (m *MiddlewareMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(m.panicsRecovered, m.requestIDsIssued, m.requestIDsIgnored)
}
