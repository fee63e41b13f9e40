package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *GatewayConfig {
	cfg := &GatewayConfig{
		APIVersion: "gateway.authgw.io/v1",
		Kind:       KindGateway,
		Metadata:   Metadata{Name: "test"},
		Spec: GatewaySpec{
			Listeners:  []Listener{{Name: "http", Port: 8080}},
			JWT:        JWTConfig{Secret: "secret"},
			Revocation: RevocationConfig{URL: "redis://localhost:6379"},
			Refresh:    RefreshConfig{URL: "http://auth/api/auth/reissue"},
			Backends:   []Backend{{Name: "USER-MANAGEMENT", URL: "http://users:8080"}},
			Routes:     []Route{{Name: "users", Path: "/api/user/**", Backend: "USER-MANAGEMENT"}},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*GatewayConfig)
		wantPath string
	}{
		{name: "valid"},
		{name: "wrong api version", mutate: func(c *GatewayConfig) { c.APIVersion = "v1" }, wantPath: "apiVersion"},
		{name: "missing kind", mutate: func(c *GatewayConfig) { c.Kind = "" }, wantPath: "kind"},
		{name: "wrong kind", mutate: func(c *GatewayConfig) { c.Kind = "Route" }, wantPath: "kind"},
		{name: "missing name", mutate: func(c *GatewayConfig) { c.Metadata.Name = "" }, wantPath: "metadata.name"},
		{name: "no listeners", mutate: func(c *GatewayConfig) { c.Spec.Listeners = nil }, wantPath: "spec.listeners"},
		{
			name: "duplicate port",
			mutate: func(c *GatewayConfig) {
				c.Spec.Listeners = append(c.Spec.Listeners, Listener{Name: "other", Port: 8080})
			},
			wantPath: "spec.listeners[1].port",
		},
		{name: "no key source", mutate: func(c *GatewayConfig) { c.Spec.JWT.Secret = "" }, wantPath: "spec.jwt"},
		{name: "two key sources", mutate: func(c *GatewayConfig) { c.Spec.JWT.PublicKey = "abc" }, wantPath: "spec.jwt"},
		{
			name: "vault path without vault",
			mutate: func(c *GatewayConfig) {
				c.Spec.JWT.Secret = ""
				c.Spec.JWT.VaultPath = "secret/jwt"
			},
			wantPath: "spec.jwt.vaultPath",
		},
		{
			name:     "bad refresh source",
			mutate:   func(c *GatewayConfig) { c.Spec.Filter.RefreshTokenSource = "cookie" },
			wantPath: "spec.filter.refreshTokenSource",
		},
		{
			name:     "bad invalid status",
			mutate:   func(c *GatewayConfig) { c.Spec.Filter.InvalidTokenStatus = 403 },
			wantPath: "spec.filter.invalidTokenStatus",
		},
		{
			name:     "bad pattern",
			mutate:   func(c *GatewayConfig) { c.Spec.Filter.ProtectedPathPattern = "(" },
			wantPath: "spec.filter.protectedPathPattern",
		},
		{
			name:     "redis scheme",
			mutate:   func(c *GatewayConfig) { c.Spec.Revocation.URL = "http://redis" },
			wantPath: "spec.revocation.url",
		},
		{name: "missing refresh url", mutate: func(c *GatewayConfig) { c.Spec.Refresh.URL = "" }, wantPath: "spec.refresh.url"},
		{
			name: "breaker threshold",
			mutate: func(c *GatewayConfig) {
				c.Spec.Refresh.CircuitBreaker = &CircuitBreakerConfig{Enabled: true}
			},
			wantPath: "spec.refresh.circuitBreaker.threshold",
		},
		{
			name: "rate limit",
			mutate: func(c *GatewayConfig) {
				c.Spec.Refresh.RateLimit = &RateLimitConfig{Enabled: true}
			},
			wantPath: "spec.refresh.rateLimit.requestsPerSecond",
		},
		{
			name:     "unknown backend",
			mutate:   func(c *GatewayConfig) { c.Spec.Routes[0].Backend = "NOPE" },
			wantPath: "spec.routes[0].backend",
		},
		{
			name:     "inner wildcard",
			mutate:   func(c *GatewayConfig) { c.Spec.Routes[0].Path = "/api/*/x" },
			wantPath: "spec.routes[0].path",
		},
		{
			name:     "unknown filter",
			mutate:   func(c *GatewayConfig) { c.Spec.Routes[0].Filters = []string{"header", "acl"} },
			wantPath: "spec.routes[0].filters",
		},
		{
			name:     "identity without verify",
			mutate:   func(c *GatewayConfig) { c.Spec.Routes[0].Filters = []string{"header", "identity"} },
			wantPath: "spec.routes[0].filters",
		},
		{
			name: "tracing rate",
			mutate: func(c *GatewayConfig) {
				c.Spec.Observability = &ObservabilityConfig{Tracing: &TracingConfig{SamplingRate: 2}}
			},
			wantPath: "spec.observability.tracing.samplingRate",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}

			err := ValidateConfig(cfg)
			if tt.wantPath == "" {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))

			paths := make([]string, 0, len(verrs))
			for _, e := range verrs {
				paths = append(paths, e.Path)
			}
			assert.Contains(t, paths, tt.wantPath)
		})
	}
}

func TestValidateConfig_Nil(t *testing.T) {
	t.Parallel()

	err := ValidateConfig(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration is nil")
}

func TestValidationErrors_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "no validation errors", ValidationErrors{}.Error())
	assert.Equal(t, "a: b", ValidationErrors{{Path: "a", Message: "b"}}.Error())
	assert.Contains(t, ValidationErrors{{Message: "x"}, {Message: "y"}}.Error(), "2 validation errors")
}
