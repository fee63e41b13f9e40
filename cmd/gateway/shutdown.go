package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vyrodovalexey/authgw/internal/observability"
)

// shutdownTimeout bounds graceful shutdown after a signal.
const shutdownTimeout = 30 * time.Second

// runGateway runs the gateway and handles shutdown.
func runGateway(app *application, logger observability.Logger) {
	if err := app.gateway.Start(context.Background()); err != nil {
		fatalWithSync(logger, "failed to start gateway", observability.Error(err))
		return
	}

	startMetricsServerIfEnabled(app, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", observability.String("signal", sig.String()))

	shutdown(app, logger)
}

// shutdown stops components in reverse dependency order.
func shutdown(app *application, logger observability.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if app.metricsServer != nil {
		logger.Info("stopping metrics server")
		if err := app.metricsServer.Shutdown(ctx); err != nil {
			logger.Error("failed to stop metrics server gracefully", observability.Error(err))
		}
	}

	if app.gateway.IsRunning() {
		if err := app.gateway.Stop(ctx); err != nil {
			logger.Error("failed to stop gateway gracefully", observability.Error(err))
		}
	}

	// in-flight requests may still query the store until listeners drain
	if app.store != nil {
		if err := app.store.Close(); err != nil {
			logger.Error("failed to close revocation store", observability.Error(err))
		}
	}

	if err := app.tracer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	logger.Info("gateway stopped")
}
