// Package observability provides logging, metrics, and tracing
// for the gateway.
//
// Logging goes through the Logger interface backed by zap. Metrics live in
// a dedicated Prometheus registry exposed by Metrics.Handler; components
// register their own collectors into it. Tracing uses OpenTelemetry with
// an optional OTLP gRPC exporter.
//
//	logger, err := observability.NewLogger(observability.DefaultLogConfig())
//	if err != nil {
//	    return err
//	}
//	defer func() { _ = logger.Sync() }()
//
//	logger.Info("filter chain built",
//	    observability.String("route", "user-management"),
//	    observability.Int("stages", 4),
//	)
package observability
