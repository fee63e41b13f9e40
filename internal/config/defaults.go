package config

import (
	"net/http"
	"time"
)

// Default values applied by ApplyDefaults.
const (
	DefaultListenerPort         = 8080
	DefaultMetricsPort          = 9090
	DefaultMetricsPath          = "/metrics"
	DefaultTokenPrefix          = "Bearer"
	DefaultUserIDClaim          = "userId"
	DefaultAuthorityClaim       = "authority"
	DefaultRefreshTokenHeader   = "Refresh-Token"
	DefaultUserIDHeader         = "X-USER-ID"
	DefaultProtectedPathPattern = "/api/.*/admin/.*"
	DefaultPrivilegedRole       = "ROLE_ADMIN"
	DefaultStoreTimeout         = 3 * time.Second
	DefaultRefreshTimeout       = 3 * time.Second
	DefaultServiceName          = "authgw"
)

// AllFilters lists every filter stage in execution order.
var AllFilters = []string{FilterHeader, FilterVerify, FilterIdentity, FilterRole}

// ApplyDefaults fills unset optional fields in place.
func ApplyDefaults(cfg *GatewayConfig) {
	spec := &cfg.Spec

	for i := range spec.Listeners {
		if spec.Listeners[i].Port == 0 {
			spec.Listeners[i].Port = DefaultListenerPort
		}
	}

	applyJWTDefaults(&spec.JWT)
	applyFilterDefaults(&spec.Filter)

	if spec.Revocation.DialTimeout == 0 {
		spec.Revocation.DialTimeout = Duration(DefaultStoreTimeout)
	}
	if spec.Revocation.ReadTimeout == 0 {
		spec.Revocation.ReadTimeout = Duration(DefaultStoreTimeout)
	}
	if spec.Revocation.WriteTimeout == 0 {
		spec.Revocation.WriteTimeout = Duration(DefaultStoreTimeout)
	}
	if spec.Refresh.Timeout == 0 {
		spec.Refresh.Timeout = Duration(DefaultRefreshTimeout)
	}

	for i := range spec.Routes {
		if len(spec.Routes[i].Filters) == 0 {
			spec.Routes[i].Filters = append([]string(nil), AllFilters...)
		}
	}

	if obs := spec.Observability; obs != nil {
		if obs.Metrics != nil {
			if obs.Metrics.Port == 0 {
				obs.Metrics.Port = DefaultMetricsPort
			}
			if obs.Metrics.Path == "" {
				obs.Metrics.Path = DefaultMetricsPath
			}
		}
		if obs.Tracing != nil && obs.Tracing.ServiceName == "" {
			obs.Tracing.ServiceName = DefaultServiceName
		}
	}
}

func applyJWTDefaults(jwt *JWTConfig) {
	if jwt.TokenPrefix == "" {
		jwt.TokenPrefix = DefaultTokenPrefix
	}
	if jwt.UserIDClaim == "" {
		jwt.UserIDClaim = DefaultUserIDClaim
	}
	if jwt.AuthorityClaim == "" {
		jwt.AuthorityClaim = DefaultAuthorityClaim
	}
}

func applyFilterDefaults(f *FilterConfig) {
	if f.RefreshTokenSource == "" {
		f.RefreshTokenSource = RefreshTokenSourceHeader
	}
	if f.RefreshTokenHeader == "" {
		f.RefreshTokenHeader = DefaultRefreshTokenHeader
	}
	if f.UserIDHeader == "" {
		f.UserIDHeader = DefaultUserIDHeader
	}
	if f.InvalidTokenStatus == 0 {
		f.InvalidTokenStatus = http.StatusUnauthorized
	}
	if f.ProtectedPathPattern == "" {
		f.ProtectedPathPattern = DefaultProtectedPathPattern
	}
	if f.PrivilegedRole == "" {
		f.PrivilegedRole = DefaultPrivilegedRole
	}
}
