package revocation

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StoreMetrics holds Prometheus metrics for revocation store operations.
type StoreMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

var (
	storeMetricsInstance *StoreMetrics
	storeMetricsOnce     sync.Once
)

// GetStoreMetrics returns the singleton store metrics instance.
func GetStoreMetrics() *StoreMetrics {
	storeMetricsOnce.Do(func() {
		storeMetricsInstance = newStoreMetrics()
	})
	return storeMetricsInstance
}

// MustRegister registers the collectors with the gateway registry. promauto
// puts them in the default registry, but /metrics serves a custom one.
func (m *StoreMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(m.operationsTotal, m.operationDuration)
}

// Init pre-populates label combinations with zero values.
func (m *StoreMetrics) Init() {
	for _, op := range []string{opIsRevoked, opLookupRefresh} {
		m.operationDuration.WithLabelValues(op)
		for _, result := range []string{resultHit, resultMiss, resultError} {
			m.operationsTotal.WithLabelValues(op, result)
		}
	}
}

func newStoreMetrics() *StoreMetrics {
	return &StoreMetrics{
		operationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gateway",
				Subsystem: "revocation",
				Name:      "operations_total",
				Help:      "Total number of revocation store operations by result",
			},
			[]string{"operation", "result"},
		),
		operationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gateway",
				Subsystem: "revocation",
				Name:      "operation_duration_seconds",
				Help:      "Duration of revocation store operations in seconds",
				Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 3},
			},
			[]string{"operation"},
		),
	}
}
