package refresh

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/authgw/internal/config"
	"github.com/vyrodovalexey/authgw/internal/observability"
)

const breakerName = "refresh"

// defaultBreakerTimeout is the open state duration when none is configured.
const defaultBreakerTimeout = 30 * time.Second

func newBreaker(cfg *config.CircuitBreakerConfig, logger observability.Logger) *gobreaker.CircuitBreaker {
	threshold := safeIntToUint32(cfg.Threshold)
	halfOpen := threshold
	if cfg.HalfOpenRequests > 0 {
		halfOpen = safeIntToUint32(cfg.HalfOpenRequests)
	}
	timeout := cfg.Timeout.OrDefault(defaultBreakerTimeout)

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: halfOpen,
		Interval:    timeout,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= threshold && failureRatio >= 0.5
		},
		// a 4xx answer means the auth service is up and rejected the token
		IsSuccessful: func(err error) bool {
			var rf *ReissueFailedError
			if errors.As(err, &rf) {
				return rf.StatusCode >= http.StatusBadRequest && rf.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)

			GetClientMetrics().breakerTransitions.WithLabelValues(from.String(), to.String()).Inc()

			_, span := tracer().Start(context.Background(),
				"refresh.circuitbreaker.state_change",
				trace.WithSpanKind(trace.SpanKindInternal),
			)
			span.AddEvent("state_change", trace.WithAttributes(
				attribute.String("circuitbreaker.name", name),
				attribute.String("circuitbreaker.from", from.String()),
				attribute.String("circuitbreaker.to", to.String()),
			))
			span.End()
		},
	})
}

func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	if n > int(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n) //nolint:gosec // bounds checked above
}
