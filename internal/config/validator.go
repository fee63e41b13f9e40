package config

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates gateway configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{errors: make(ValidationErrors, 0)}
}

// ValidateConfig validates a gateway configuration.
func ValidateConfig(config *GatewayConfig) error {
	return NewValidator().Validate(config)
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *GatewayConfig) error {
	v.errors = make(ValidationErrors, 0)

	if config == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateRoot(config)
	v.validateSpec(&config.Spec)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateRoot(config *GatewayConfig) {
	if config.APIVersion == "" {
		v.addError("apiVersion", "apiVersion is required")
	} else if !strings.HasPrefix(config.APIVersion, APIVersionPrefix) {
		v.addError("apiVersion", "apiVersion must start with '"+APIVersionPrefix+"'")
	}

	if config.Kind == "" {
		v.addError("kind", "kind is required")
	} else if config.Kind != KindGateway {
		v.addError("kind", "kind must be '"+KindGateway+"'")
	}

	if config.Metadata.Name == "" {
		v.addError("metadata.name", "name is required")
	}
}

func (v *Validator) validateSpec(spec *GatewaySpec) {
	if len(spec.Listeners) == 0 {
		v.addError("spec.listeners", "at least one listener is required")
	}
	v.validateListeners(spec.Listeners)
	v.validateJWT(&spec.JWT, spec.Vault != nil)
	v.validateFilter(&spec.Filter)
	v.validateRevocation(&spec.Revocation, spec.Vault != nil)
	v.validateRefresh(&spec.Refresh)

	if spec.Vault != nil && spec.Vault.Address == "" {
		v.addError("spec.vault.address", "address is required")
	}

	v.validateBackends(spec.Backends)
	v.validateRoutes(spec.Routes, spec)

	if spec.Observability != nil {
		v.validateObservability(spec.Observability)
	}
}

func (v *Validator) validateListeners(listeners []Listener) {
	names := make(map[string]bool)
	ports := make(map[int]string)

	for i, l := range listeners {
		path := fmt.Sprintf("spec.listeners[%d]", i)
		if l.Name == "" {
			v.addError(path+".name", "name is required")
		} else if names[l.Name] {
			v.addError(path+".name", fmt.Sprintf("duplicate listener name '%s'", l.Name))
		}
		names[l.Name] = true

		if l.Port < 1 || l.Port > 65535 {
			v.addError(path+".port", "port must be between 1 and 65535")
		} else if other, ok := ports[l.Port]; ok {
			v.addError(path+".port", fmt.Sprintf("port %d already used by listener '%s'", l.Port, other))
		}
		ports[l.Port] = l.Name
	}
}

func (v *Validator) validateJWT(jwt *JWTConfig, vaultConfigured bool) {
	sources := 0
	for _, s := range []string{jwt.PublicKey, jwt.PublicKeyFile, jwt.Secret, jwt.JWKSURL, jwt.VaultPath} {
		if s != "" {
			sources++
		}
	}
	switch {
	case sources == 0:
		v.addError("spec.jwt", "one of publicKey, publicKeyFile, secret, jwksUrl or vaultPath is required")
	case sources > 1:
		v.addError("spec.jwt", "only one key source may be configured")
	}

	if jwt.JWKSURL != "" {
		v.validateURL(jwt.JWKSURL, "spec.jwt.jwksUrl")
	}
	if jwt.VaultPath != "" {
		if !vaultConfigured {
			v.addError("spec.jwt.vaultPath", "spec.vault must be configured")
		}
		if !strings.Contains(strings.Trim(jwt.VaultPath, "/"), "/") {
			v.addError("spec.jwt.vaultPath", "must be of the form <mount>/<path>")
		}
	}
	if jwt.Leeway < 0 {
		v.addError("spec.jwt.leeway", "leeway must not be negative")
	}
}

func (v *Validator) validateFilter(f *FilterConfig) {
	switch f.RefreshTokenSource {
	case RefreshTokenSourceHeader, RefreshTokenSourceStore:
	default:
		v.addError("spec.filter.refreshTokenSource",
			fmt.Sprintf("must be '%s' or '%s'", RefreshTokenSourceHeader, RefreshTokenSourceStore))
	}

	if f.InvalidTokenStatus != http.StatusUnauthorized && f.InvalidTokenStatus != http.StatusBadRequest {
		v.addError("spec.filter.invalidTokenStatus", "must be 400 or 401")
	}

	if _, err := regexp.Compile(f.ProtectedPathPattern); err != nil {
		v.addError("spec.filter.protectedPathPattern", fmt.Sprintf("invalid regular expression: %v", err))
	}

	if http.CanonicalHeaderKey(f.UserIDHeader) == "" {
		v.addError("spec.filter.userIdHeader", "header name is required")
	}
}

func (v *Validator) validateRevocation(r *RevocationConfig, vaultConfigured bool) {
	if r.URL == "" {
		v.addError("spec.revocation.url", "url is required")
	} else if !strings.HasPrefix(r.URL, "redis://") && !strings.HasPrefix(r.URL, "rediss://") {
		v.addError("spec.revocation.url", "url must use redis:// or rediss:// scheme")
	}
	if r.PoolSize < 0 {
		v.addError("spec.revocation.poolSize", "poolSize must not be negative")
	}
	if r.PasswordVaultPath != "" && !vaultConfigured {
		v.addError("spec.revocation.passwordVaultPath", "spec.vault must be configured")
	}
}

func (v *Validator) validateRefresh(r *RefreshConfig) {
	if r.URL == "" {
		v.addError("spec.refresh.url", "url is required")
	} else {
		v.validateURL(r.URL, "spec.refresh.url")
	}

	if cb := r.CircuitBreaker; cb != nil && cb.Enabled && cb.Threshold <= 0 {
		v.addError("spec.refresh.circuitBreaker.threshold", "threshold must be positive")
	}
	if rl := r.RateLimit; rl != nil && rl.Enabled && rl.RequestsPerSecond <= 0 {
		v.addError("spec.refresh.rateLimit.requestsPerSecond", "requestsPerSecond must be positive")
	}
}

func (v *Validator) validateBackends(backends []Backend) {
	names := make(map[string]bool)
	for i, b := range backends {
		path := fmt.Sprintf("spec.backends[%d]", i)
		if b.Name == "" {
			v.addError(path+".name", "name is required")
		} else if names[b.Name] {
			v.addError(path+".name", fmt.Sprintf("duplicate backend name '%s'", b.Name))
		}
		names[b.Name] = true
		v.validateURL(b.URL, path+".url")
	}
}

func (v *Validator) validateRoutes(routes []Route, spec *GatewaySpec) {
	if len(routes) == 0 {
		v.addError("spec.routes", "at least one route is required")
	}

	names := make(map[string]bool)
	for i := range routes {
		route := &routes[i]
		path := fmt.Sprintf("spec.routes[%d]", i)

		if route.Name == "" {
			v.addError(path+".name", "name is required")
		} else if names[route.Name] {
			v.addError(path+".name", fmt.Sprintf("duplicate route name '%s'", route.Name))
		}
		names[route.Name] = true

		if !strings.HasPrefix(route.Path, "/") {
			v.addError(path+".path", "path must start with '/'")
		} else if strings.Contains(strings.TrimSuffix(route.Path, "/**"), "*") {
			v.addError(path+".path", "only a trailing '/**' wildcard is supported")
		}

		if _, ok := spec.BackendURL(route.Backend); !ok {
			v.addError(path+".backend", fmt.Sprintf("unknown backend '%s'", route.Backend))
		}

		v.validateRouteFilters(route, path)
	}
}

func (v *Validator) validateRouteFilters(route *Route, path string) {
	seen := make(map[string]bool)
	for _, f := range route.Filters {
		switch f {
		case FilterHeader, FilterVerify, FilterIdentity, FilterRole:
		default:
			v.addError(path+".filters", fmt.Sprintf("unknown filter '%s'", f))
		}
		if seen[f] {
			v.addError(path+".filters", fmt.Sprintf("duplicate filter '%s'", f))
		}
		seen[f] = true
	}

	if !seen[FilterVerify] {
		for _, dep := range []string{FilterIdentity, FilterRole} {
			if seen[dep] {
				v.addError(path+".filters", fmt.Sprintf("filter '%s' requires '%s'", dep, FilterVerify))
			}
		}
	}
}

func (v *Validator) validateObservability(obs *ObservabilityConfig) {
	if m := obs.Metrics; m != nil && m.Enabled && (m.Port < 1 || m.Port > 65535) {
		v.addError("spec.observability.metrics.port", "port must be between 1 and 65535")
	}
	if t := obs.Tracing; t != nil && (t.SamplingRate < 0 || t.SamplingRate > 1) {
		v.addError("spec.observability.tracing.samplingRate", "samplingRate must be between 0 and 1")
	}
}

func (v *Validator) validateURL(raw, path string) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		v.addError(path, fmt.Sprintf("invalid URL '%s'", raw))
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		v.addError(path, "URL scheme must be http or https")
	}
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}
