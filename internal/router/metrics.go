package router

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// routerMetrics contains Prometheus metrics for route matching.
type routerMetrics struct {
	matchesTotal  *prometheus.CounterVec
	notFoundTotal prometheus.Counter
	routesLoaded  prometheus.Gauge
}

var (
	routerMetricsInstance *routerMetrics
	routerMetricsOnce     sync.Once
)

// getRouterMetrics returns the singleton router metrics instance.
func getRouterMetrics() *routerMetrics {
	routerMetricsOnce.Do(func() {
		routerMetricsInstance = &routerMetrics{
			matchesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "gateway",
					Subsystem: "router",
					Name:      "matches_total",
					Help:      "Total number of requests matched per route",
				},
				[]string{"route"},
			),
			notFoundTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "gateway",
					Subsystem: "router",
					Name:      "not_found_total",
					Help:      "Total number of requests that matched no route",
				},
			),
			routesLoaded: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "gateway",
					Subsystem: "router",
					Name:      "routes",
					Help:      "Number of routes currently loaded",
				},
			),
		}
	})
	return routerMetricsInstance
}

// MustRegisterMetrics registers the router collectors with registry.
func MustRegisterMetrics(registry *prometheus.Registry) {
	m := getRouterMetrics()
	registry.MustRegister(m.matchesTotal, m.notFoundTotal, m.routesLoaded)
}
