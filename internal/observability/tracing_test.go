package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracer_Disabled(t *testing.T) {
	t.Parallel()

	tracer, err := NewTracer(TracerConfig{ServiceName: "authgw"})
	require.NoError(t, err)

	_, span := tracer.StartSpan(context.Background(), "op")
	span.End()

	assert.NoError(t, tracer.Shutdown(context.Background()))
}

func TestNewTracer_EnabledWithoutExporter(t *testing.T) {
	tracer, err := NewTracer(TracerConfig{ServiceName: "authgw", Enabled: true, SamplingRate: 1})
	require.NoError(t, err)
	defer func() { _ = tracer.Shutdown(context.Background()) }()

	var traceID string
	handler := TracingMiddleware(tracer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = TraceIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user/me", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, traceID)
}

func TestNewTracer_EnabledWithExporter(t *testing.T) {
	tracer, err := NewTracer(TracerConfig{
		ServiceName:  "authgw",
		Enabled:      true,
		SamplingRate: 1,
		OTLPEndpoint: "localhost:4317",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = tracer.Shutdown(ctx)
}

func TestCreateSampler(t *testing.T) {
	t.Parallel()

	assert.Contains(t, createSampler(1).Description(), "AlwaysOn")
	assert.Contains(t, createSampler(0).Description(), "AlwaysOff")
	assert.Contains(t, createSampler(0.5).Description(), "TraceIDRatioBased")
}
