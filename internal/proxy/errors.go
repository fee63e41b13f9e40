package proxy

import (
	"errors"
	"fmt"
)

// Sentinel errors for proxy operations.
var (
	// ErrUnknownBackend indicates a route references a backend that is not configured.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrInvalidTargetURL indicates that the backend URL is invalid.
	ErrInvalidTargetURL = errors.New("invalid target URL")
)

// ProxyError represents a proxy-related error with details.
type ProxyError struct {
	Op      string // Operation that failed
	Route   string // Route name if applicable
	Target  string // Target URL if applicable
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ProxyError) Error() string {
	msg := fmt.Sprintf("proxy error [%s]", e.Op)
	if e.Route != "" {
		msg += " route=" + e.Route
	}
	if e.Target != "" {
		msg += " target=" + e.Target
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ProxyError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ProxyError) Is(target error) bool {
	_, ok := target.(*ProxyError)
	return ok
}

// NewUnknownBackendError creates an error for a route whose backend is missing.
func NewUnknownBackendError(route, backend string) *ProxyError {
	return &ProxyError{
		Op:      "resolve_backend",
		Route:   route,
		Message: fmt.Sprintf("backend %q is not configured", backend),
		Cause:   ErrUnknownBackend,
	}
}

// NewInvalidTargetError creates an error for invalid target URL.
func NewInvalidTargetError(backend, target string, cause error) *ProxyError {
	return &ProxyError{
		Op:      "parse_target",
		Target:  target,
		Message: fmt.Sprintf("invalid URL for backend %q", backend),
		Cause:   errors.Join(ErrInvalidTargetURL, cause),
	}
}
