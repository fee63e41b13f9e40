package proxy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/vyrodovalexey/authgw/internal/config"
	"github.com/vyrodovalexey/authgw/internal/observability"
	"github.com/vyrodovalexey/authgw/internal/router"
	"github.com/vyrodovalexey/authgw/internal/util"
)

// RouteMiddleware returns the middleware wrapping the forwarder of route.
type RouteMiddleware func(route *router.CompiledRoute) (func(http.Handler) http.Handler, error)

// ReverseProxy handles proxying requests to backend services.
type ReverseProxy struct {
	router          *router.Router
	logger          observability.Logger
	transport       http.RoundTripper
	flushInterval   time.Duration
	routeMiddleware RouteMiddleware
	handlers        map[string]http.Handler
}

// ProxyOption is a functional option for configuring the proxy.
type ProxyOption func(*ReverseProxy)

// WithProxyLogger sets the logger for the proxy.
func WithProxyLogger(logger observability.Logger) ProxyOption {
	return func(p *ReverseProxy) {
		p.logger = logger
	}
}

// WithTransport sets the transport for the proxy.
func WithTransport(transport http.RoundTripper) ProxyOption {
	return func(p *ReverseProxy) {
		p.transport = transport
	}
}

// WithRouteMiddleware installs per-route middleware in front of the backend.
func WithRouteMiddleware(mw RouteMiddleware) ProxyOption {
	return func(p *ReverseProxy) {
		p.routeMiddleware = mw
	}
}

// NewReverseProxy creates a reverse proxy for the routes loaded in r. Each
// route's handler chain is assembled here, once.
func NewReverseProxy(r *router.Router, backends []config.Backend, opts ...ProxyOption) (*ReverseProxy, error) {
	p := &ReverseProxy{
		router:        r,
		logger:        observability.NopLogger(),
		flushInterval: -1, // Immediate flush
		handlers:      make(map[string]http.Handler),
	}
	for _, opt := range opts {
		opt(p)
	}

	targets := make(map[string]*url.URL, len(backends))
	for _, b := range backends {
		target, err := url.Parse(b.URL)
		if err != nil || target.Scheme == "" || target.Host == "" {
			return nil, NewInvalidTargetError(b.Name, b.URL, err)
		}
		targets[b.Name] = target
	}

	for _, route := range r.GetRoutes() {
		target, ok := targets[route.Config.Backend]
		if !ok {
			return nil, NewUnknownBackendError(route.Name, route.Config.Backend)
		}

		var h http.Handler = p.newForwarder(route.Config.Backend, target)
		if p.routeMiddleware != nil {
			mw, err := p.routeMiddleware(route)
			if err != nil {
				return nil, err
			}
			h = mw(h)
		}
		p.handlers[route.Name] = h
	}

	return p, nil
}

// ServeHTTP implements http.Handler.
func (p *ReverseProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	result, err := p.router.Match(r)
	if err != nil {
		p.handleRouteNotFound(w, r, err)
		return
	}

	route := result.Route
	r = r.WithContext(util.ContextWithRoute(r.Context(), route.Name))

	p.handlers[route.Name].ServeHTTP(w, r)
}

// newForwarder builds the reverse proxy for one backend.
func (p *ReverseProxy) newForwarder(backend string, target *url.URL) http.Handler {
	rp := &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			director(req, target)
		},
		Transport:     p.transport,
		FlushInterval: p.flushInterval,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			p.handleBackendError(w, r, backend, err)
		},
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rp.ServeHTTP(w, r)
		getProxyMetrics().backendDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
	})
}

// director rewrites the outbound request to the backend.
func director(req *http.Request, target *url.URL) {
	origHost := req.Host

	req.URL.Scheme = target.Scheme
	req.URL.Host = target.Host
	req.URL.Path = joinPath(target.Path, req.URL.Path)
	if req.URL.RawPath != "" {
		req.URL.RawPath = joinPath(target.EscapedPath(), req.URL.RawPath)
	}
	if target.RawQuery != "" && req.URL.RawQuery != "" {
		req.URL.RawQuery = target.RawQuery + "&" + req.URL.RawQuery
	} else if target.RawQuery != "" {
		req.URL.RawQuery = target.RawQuery
	}

	// httputil appends the client address to X-Forwarded-For itself
	if req.TLS != nil {
		req.Header.Set("X-Forwarded-Proto", "https")
	} else {
		req.Header.Set("X-Forwarded-Proto", "http")
	}
	req.Header.Set("X-Forwarded-Host", origHost)

	req.Host = target.Host
}

func joinPath(base, path string) string {
	switch {
	case base == "" || base == "/":
		return path
	case path == "":
		return base
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}

// handleRouteNotFound handles route not found errors.
func (p *ReverseProxy) handleRouteNotFound(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Debug("route not found",
		observability.String("path", r.URL.Path),
		observability.String("method", r.Method),
		observability.Error(err),
	)
	util.WriteJSONError(w, http.StatusNotFound, "no matching route")
}

// handleBackendError reports a failed backend round trip.
func (p *ReverseProxy) handleBackendError(w http.ResponseWriter, r *http.Request, backend string, err error) {
	status, errType := http.StatusBadGateway, "bad_gateway"
	switch {
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful can be written
		getProxyMetrics().errorsTotal.WithLabelValues(backend, "canceled").Inc()
		return
	case errors.Is(err, context.DeadlineExceeded):
		status, errType = http.StatusGatewayTimeout, "timeout"
	}
	getProxyMetrics().errorsTotal.WithLabelValues(backend, errType).Inc()

	p.logger.WithContext(r.Context()).Error("proxy error",
		observability.String("backend", backend),
		observability.String("path", r.URL.Path),
		observability.String("method", r.Method),
		observability.Error(err),
	)

	util.WriteJSONError(w, status, "failed to proxy request")
}
