package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/vyrodovalexey/authgw/internal/auth/jwt"
	"github.com/vyrodovalexey/authgw/internal/filter"
	"github.com/vyrodovalexey/authgw/internal/health"
	"github.com/vyrodovalexey/authgw/internal/middleware"
	"github.com/vyrodovalexey/authgw/internal/observability"
	"github.com/vyrodovalexey/authgw/internal/proxy"
	"github.com/vyrodovalexey/authgw/internal/refresh"
	"github.com/vyrodovalexey/authgw/internal/revocation"
	"github.com/vyrodovalexey/authgw/internal/router"
)

// registerMetrics bridges the package level collectors into the registry
// served on /metrics.
func registerMetrics(metrics *observability.Metrics, jwtMetrics *jwt.Metrics) {
	registry := metrics.Registry()

	jwtMetrics.MustRegister(registry)
	jwtMetrics.Init()

	storeMetrics := revocation.GetStoreMetrics()
	storeMetrics.MustRegister(registry)
	storeMetrics.Init()

	refreshMetrics := refresh.GetClientMetrics()
	refreshMetrics.MustRegister(registry)
	refreshMetrics.Init()

	filterMetrics := filter.GetMetrics()
	filterMetrics.MustRegister(registry)
	filterMetrics.Init()

	healthMetrics := health.GetHealthMetrics()
	healthMetrics.MustRegister(registry)
	healthMetrics.Init()

	middleware.GetMiddlewareMetrics().MustRegister(registry)
	router.MustRegisterMetrics(registry)
	proxy.MustRegisterMetrics(registry)
}

// createMetricsServer creates the metrics and health HTTP server.
func createMetricsServer(
	port int,
	path string,
	metrics *observability.Metrics,
	healthChecker *health.Checker,
	logger observability.Logger,
) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, metrics.Handler())
	mux.HandleFunc("/health", healthChecker.HealthHandler())
	mux.HandleFunc("/ready", healthChecker.ReadinessHandler())
	mux.HandleFunc("/live", healthChecker.LivenessHandler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info("starting metrics server",
		observability.String("address", addr),
		observability.String("metrics_path", path),
	)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// runMetricsServer runs the metrics HTTP server.
func runMetricsServer(server *http.Server, logger observability.Logger) {
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server error", observability.Error(err))
	}
}

// startMetricsServerIfEnabled starts the metrics server if enabled.
func startMetricsServerIfEnabled(app *application, logger observability.Logger) {
	obs := app.config.Spec.Observability
	if obs == nil || obs.Metrics == nil || !obs.Metrics.Enabled {
		return
	}

	app.metricsServer = createMetricsServer(obs.Metrics.Port, obs.Metrics.Path, app.metrics, app.healthChecker, logger)
	go runMetricsServer(app.metricsServer, logger)
}
