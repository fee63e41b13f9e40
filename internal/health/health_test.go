package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/authgw/internal/config"
	"github.com/vyrodovalexey/authgw/internal/revocation"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestChecker_Health(t *testing.T) {
	t.Parallel()

	c := NewChecker("1.2.3", nil)
	rec := httptest.NewRecorder()
	c.HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentTypeJSON, rec.Header().Get(HeaderContentType))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestChecker_Liveness(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	NewChecker("", nil).LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestChecker_Readiness(t *testing.T) {
	t.Parallel()

	failing := pingFunc(func(context.Context) error { return errors.New("connection refused") })
	healthy := pingFunc(func(context.Context) error { return nil })

	tests := []struct {
		name       string
		checks     []*DependencyCheck
		wantStatus Status
		wantCode   int
	}{
		{
			name:       "no checks",
			wantStatus: StatusHealthy,
			wantCode:   http.StatusOK,
		},
		{
			name:       "all healthy",
			checks:     []*DependencyCheck{PingCheck("redis", healthy)},
			wantStatus: StatusHealthy,
			wantCode:   http.StatusOK,
		},
		{
			name:       "critical failure",
			checks:     []*DependencyCheck{PingCheck("redis", failing), PingCheck("other", healthy)},
			wantStatus: StatusUnhealthy,
			wantCode:   http.StatusServiceUnavailable,
		},
		{
			name:       "non critical failure degrades",
			checks:     []*DependencyCheck{PingCheck("auth", failing, WithCritical(false))},
			wantStatus: StatusDegraded,
			wantCode:   http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewChecker("", nil)
			for _, dc := range tt.checks {
				c.Register(dc)
			}

			rec := httptest.NewRecorder()
			c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var resp ReadinessResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Len(t, resp.Checks, len(tt.checks))
		})
	}
}

func TestChecker_RegisterReplaces(t *testing.T) {
	t.Parallel()

	c := NewChecker("", nil)
	c.Register(PingCheck("redis", pingFunc(func(context.Context) error { return errors.New("down") })))
	c.Register(PingCheck("redis", pingFunc(func(context.Context) error { return nil })))

	resp := c.Readiness(context.Background())
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Len(t, resp.Checks, 1)
}

func TestDependencyCheck_Timeout(t *testing.T) {
	t.Parallel()

	slow := pingFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	dc := PingCheck("slow", slow, WithCheckTimeout(20*time.Millisecond))

	err := dc.Check(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPingCheck_NilClient(t *testing.T) {
	t.Parallel()

	err := PingCheck("redis", nil).Check(context.Background())
	assert.EqualError(t, err, "client is nil")
}

func TestReadiness_RevocationStore(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	store := revocation.NewFromClient(client, &config.RevocationConfig{}, nil)
	t.Cleanup(func() { _ = store.Close() })

	c := NewChecker("", nil)
	c.Register(PingCheck("revocation-store", store))

	assert.Equal(t, StatusHealthy, c.Readiness(context.Background()).Status)

	mr.SetError("LOADING")
	resp := c.Readiness(context.Background())
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Contains(t, resp.Checks["revocation-store"].Message, "revocation-store ping failed")
}
