// Package config defines the gateway configuration document, loads it from
// YAML and validates it.
//
// The configuration is read once at startup and treated as immutable for
// the lifetime of the process. Components receive the parts they need
// explicitly; nothing reads configuration through globals.
package config

// APIVersionPrefix is the required prefix of the apiVersion field.
const APIVersionPrefix = "gateway.authgw.io/"

// KindGateway is the only supported kind.
const KindGateway = "Gateway"

// Filter stage names accepted in Route.Filters.
const (
	FilterHeader   = "header"
	FilterVerify   = "verify"
	FilterIdentity = "identity"
	FilterRole     = "role"
)

// Refresh token sources.
const (
	RefreshTokenSourceHeader = "header"
	RefreshTokenSourceStore  = "store"
)

// GatewayConfig is the root configuration document.
type GatewayConfig struct {
	APIVersion string      `yaml:"apiVersion" json:"apiVersion"`
	Kind       string      `yaml:"kind" json:"kind"`
	Metadata   Metadata    `yaml:"metadata" json:"metadata"`
	Spec       GatewaySpec `yaml:"spec" json:"spec"`
}

// Metadata identifies the gateway instance.
type Metadata struct {
	Name   string            `yaml:"name" json:"name"`
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

// GatewaySpec holds the gateway specification.
type GatewaySpec struct {
	Listeners     []Listener           `yaml:"listeners" json:"listeners"`
	JWT           JWTConfig            `yaml:"jwt" json:"jwt"`
	Filter        FilterConfig         `yaml:"filter" json:"filter"`
	Revocation    RevocationConfig     `yaml:"revocation" json:"revocation"`
	Refresh       RefreshConfig        `yaml:"refresh" json:"refresh"`
	Vault         *VaultConfig         `yaml:"vault,omitempty" json:"vault,omitempty"`
	Backends      []Backend            `yaml:"backends" json:"backends"`
	Routes        []Route              `yaml:"routes" json:"routes"`
	Observability *ObservabilityConfig `yaml:"observability,omitempty" json:"observability,omitempty"`
}

// Listener configures an inbound HTTP listener.
type Listener struct {
	Name         string   `yaml:"name" json:"name"`
	Port         int      `yaml:"port" json:"port"`
	Bind         string   `yaml:"bind,omitempty" json:"bind,omitempty"`
	ReadTimeout  Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	WriteTimeout Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`
	IdleTimeout  Duration `yaml:"idleTimeout,omitempty" json:"idleTimeout,omitempty"`
}

// JWTConfig describes how access and refresh credentials are verified.
// Exactly one key source must be set.
type JWTConfig struct {
	// PublicKey is a base64 encoded DER SubjectPublicKeyInfo or a PEM block.
	PublicKey string `yaml:"publicKey,omitempty" json:"publicKey,omitempty"`
	// PublicKeyFile points to a PEM encoded public key.
	PublicKeyFile string `yaml:"publicKeyFile,omitempty" json:"publicKeyFile,omitempty"`
	// Secret is an HMAC shared secret.
	Secret string `yaml:"secret,omitempty" json:"secret,omitempty"`
	// JWKSURL is fetched once at startup.
	JWKSURL string `yaml:"jwksUrl,omitempty" json:"jwksUrl,omitempty"`
	// VaultPath is "<mount>/<path>" of a KV v2 secret holding publicKey or secret.
	VaultPath string `yaml:"vaultPath,omitempty" json:"vaultPath,omitempty"`

	// Algorithms restricts accepted signing algorithms. Empty means the
	// algorithms that fit the key type.
	Algorithms     []string `yaml:"algorithms,omitempty" json:"algorithms,omitempty"`
	TokenPrefix    string   `yaml:"tokenPrefix,omitempty" json:"tokenPrefix,omitempty"`
	Leeway         Duration `yaml:"leeway,omitempty" json:"leeway,omitempty"`
	UserIDClaim    string   `yaml:"userIdClaim,omitempty" json:"userIdClaim,omitempty"`
	AuthorityClaim string   `yaml:"authorityClaim,omitempty" json:"authorityClaim,omitempty"`
}

// FilterConfig configures the authentication filter chain.
type FilterConfig struct {
	// ExcludePaths is a comma separated list of exact request paths that
	// bypass authentication.
	ExcludePaths         string `yaml:"excludePaths,omitempty" json:"excludePaths,omitempty"`
	RefreshTokenSource   string `yaml:"refreshTokenSource,omitempty" json:"refreshTokenSource,omitempty"`
	RefreshTokenHeader   string `yaml:"refreshTokenHeader,omitempty" json:"refreshTokenHeader,omitempty"`
	UserIDHeader         string `yaml:"userIdHeader,omitempty" json:"userIdHeader,omitempty"`
	InvalidTokenStatus   int    `yaml:"invalidTokenStatus,omitempty" json:"invalidTokenStatus,omitempty"`
	ProtectedPathPattern string `yaml:"protectedPathPattern,omitempty" json:"protectedPathPattern,omitempty"`
	PrivilegedRole       string `yaml:"privilegedRole,omitempty" json:"privilegedRole,omitempty"`
}

// RevocationConfig configures the Redis backed revocation store.
type RevocationConfig struct {
	URL               string   `yaml:"url" json:"url"`
	Password          string   `yaml:"password,omitempty" json:"password,omitempty"`
	PasswordVaultPath string   `yaml:"passwordVaultPath,omitempty" json:"passwordVaultPath,omitempty"`
	KeyPrefix         string   `yaml:"keyPrefix,omitempty" json:"keyPrefix,omitempty"`
	RefreshKeyPrefix  string   `yaml:"refreshKeyPrefix,omitempty" json:"refreshKeyPrefix,omitempty"`
	PoolSize          int      `yaml:"poolSize,omitempty" json:"poolSize,omitempty"`
	DialTimeout       Duration `yaml:"dialTimeout,omitempty" json:"dialTimeout,omitempty"`
	ReadTimeout       Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	WriteTimeout      Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`
}

// RefreshConfig configures the credential refresh client.
type RefreshConfig struct {
	URL            string                `yaml:"url" json:"url"`
	Timeout        Duration              `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	CircuitBreaker *CircuitBreakerConfig `yaml:"circuitBreaker,omitempty" json:"circuitBreaker,omitempty"`
	RateLimit      *RateLimitConfig      `yaml:"rateLimit,omitempty" json:"rateLimit,omitempty"`
}

// CircuitBreakerConfig configures the breaker in front of the refresh endpoint.
type CircuitBreakerConfig struct {
	Enabled          bool     `yaml:"enabled" json:"enabled"`
	Threshold        int      `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Timeout          Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	HalfOpenRequests int      `yaml:"halfOpenRequests,omitempty" json:"halfOpenRequests,omitempty"`
}

// RateLimitConfig bounds the rate of reissue calls.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" json:"enabled"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond" json:"requestsPerSecond"`
	Burst             int     `yaml:"burst,omitempty" json:"burst,omitempty"`
}

// VaultConfig configures access to HashiCorp Vault.
type VaultConfig struct {
	Address   string   `yaml:"address" json:"address"`
	Token     string   `yaml:"token,omitempty" json:"token,omitempty"`
	Namespace string   `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Timeout   Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// Backend maps a logical service name to a base URL.
type Backend struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// Route maps a path pattern to a backend and the filter stages to run.
// Path is either an exact path or a prefix ending in "/**".
type Route struct {
	Name    string   `yaml:"name" json:"name"`
	Path    string   `yaml:"path" json:"path"`
	Backend string   `yaml:"backend" json:"backend"`
	Filters []string `yaml:"filters,omitempty" json:"filters,omitempty"`
}

// HasFilter reports whether the route enables the named filter stage.
func (r *Route) HasFilter(name string) bool {
	for _, f := range r.Filters {
		if f == name {
			return true
		}
	}
	return false
}

// ObservabilityConfig groups metrics and tracing settings.
type ObservabilityConfig struct {
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	Tracing *TracingConfig `yaml:"tracing,omitempty" json:"tracing,omitempty"`
}

// MetricsConfig configures the metrics and health endpoint server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port,omitempty" json:"port,omitempty"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	SamplingRate float64 `yaml:"samplingRate,omitempty" json:"samplingRate,omitempty"`
	OTLPEndpoint string  `yaml:"otlpEndpoint,omitempty" json:"otlpEndpoint,omitempty"`
	ServiceName  string  `yaml:"serviceName,omitempty" json:"serviceName,omitempty"`
}

// BackendURL returns the URL configured for the named backend.
func (s *GatewaySpec) BackendURL(name string) (string, bool) {
	for _, b := range s.Backends {
		if b.Name == name {
			return b.URL, true
		}
	}
	return "", false
}
