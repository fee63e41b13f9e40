package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/vyrodovalexey/authgw/internal/observability"
)

// Status represents the health status.
type Status string

const (
	// StatusHealthy indicates the service is healthy.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy indicates the service is unhealthy.
	StatusUnhealthy Status = "unhealthy"
	// StatusDegraded indicates the service is degraded but operational.
	StatusDegraded Status = "degraded"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadinessResponse represents the readiness check response.
type ReadinessResponse struct {
	Status    Status           `json:"status"`
	Checks    map[string]Check `json:"checks,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Check represents an individual health check result.
type Check struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Checker provides health and readiness checking functionality.
type Checker struct {
	version   string
	startTime time.Time
	logger    observability.Logger

	mu     sync.RWMutex
	checks []*DependencyCheck
}

// NewChecker creates a new health checker.
func NewChecker(version string, logger observability.Logger) *Checker {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Checker{
		version:   version,
		startTime: time.Now(),
		logger:    logger,
	}
}

// Register adds a dependency check. Registering a name twice replaces it.
func (c *Checker) Register(check *DependencyCheck) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.checks {
		if existing.Name() == check.Name() {
			c.checks[i] = check
			return
		}
	}
	c.checks = append(c.checks, check)
}

// Health returns the health status.
func (c *Checker) Health() HealthResponse {
	GetHealthMetrics().checksTotal.WithLabelValues("liveness").Inc()
	return HealthResponse{
		Status:    StatusHealthy,
		Version:   c.version,
		Uptime:    time.Since(c.startTime).Round(time.Second).String(),
		Timestamp: time.Now(),
	}
}

// Readiness runs every registered check concurrently.
func (c *Checker) Readiness(ctx context.Context) ReadinessResponse {
	GetHealthMetrics().checksTotal.WithLabelValues("readiness").Inc()

	c.mu.RLock()
	checks := append([]*DependencyCheck(nil), c.checks...)
	c.mu.RUnlock()

	results := make([]Check, len(checks))
	var wg sync.WaitGroup
	for i, dc := range checks {
		wg.Add(1)
		go func(i int, dc *DependencyCheck) {
			defer wg.Done()
			results[i] = c.run(ctx, dc)
		}(i, dc)
	}
	wg.Wait()

	response := ReadinessResponse{
		Status:    StatusHealthy,
		Checks:    make(map[string]Check, len(checks)),
		Timestamp: time.Now(),
	}
	for i, dc := range checks {
		check := results[i]
		response.Checks[dc.Name()] = check

		if check.Status == StatusUnhealthy {
			response.Status = StatusUnhealthy
		} else if check.Status == StatusDegraded && response.Status != StatusUnhealthy {
			response.Status = StatusDegraded
		}
	}

	GetHealthMetrics().setStatus("overall", response.Status != StatusUnhealthy)
	return response
}

func (c *Checker) run(ctx context.Context, dc *DependencyCheck) Check {
	err := dc.Check(ctx)
	if err == nil {
		return Check{Status: StatusHealthy}
	}

	c.logger.Warn("dependency check failed",
		observability.String("check", dc.Name()),
		observability.Bool("critical", dc.IsCritical()),
		observability.Error(err),
	)
	if dc.IsCritical() {
		return Check{Status: StatusUnhealthy, Message: err.Error()}
	}
	return Check{Status: StatusDegraded, Message: err.Error()}
}

// HealthHandler returns an HTTP handler for the health endpoint.
func (c *Checker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.Health())
	}
}

// ReadinessHandler returns an HTTP handler for the readiness endpoint.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := c.Readiness(r.Context())

		statusCode := http.StatusOK
		if response.Status == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		writeJSON(w, statusCode, response)
	}
}

// LivenessHandler returns an HTTP handler for the liveness endpoint (simple ping).
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(HeaderContentType, ContentTypeJSON)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set(HeaderContentType, ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
