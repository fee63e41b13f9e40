package gateway

import (
	"fmt"
	"net/http"

	"github.com/vyrodovalexey/authgw/internal/config"
	"github.com/vyrodovalexey/authgw/internal/filter"
	"github.com/vyrodovalexey/authgw/internal/middleware"
	"github.com/vyrodovalexey/authgw/internal/observability"
	"github.com/vyrodovalexey/authgw/internal/proxy"
	"github.com/vyrodovalexey/authgw/internal/router"
)

// RouteFilters puts the authentication chain of each route in front of
// that route's forwarder.
func RouteFilters(b *filter.Builder) proxy.RouteMiddleware {
	return func(route *router.CompiledRoute) (func(http.Handler) http.Handler, error) {
		chain, err := b.Build(&route.Config)
		if err != nil {
			return nil, err
		}
		return chain.Handler, nil
	}
}

// HandlerDeps carries the collaborators NewHandler wires together.
type HandlerDeps struct {
	Builder *filter.Builder
	Logger  observability.Logger
	Metrics *observability.Metrics
	Tracer  *observability.Tracer

	// ProxyOptions are appended after the options NewHandler sets itself.
	ProxyOptions []proxy.ProxyOption
}

// NewHandler compiles the route table, builds one filter chain per route
// and wraps the proxy in the global middleware.
//
// Execution order (outermost first):
// Recovery -> RequestID -> Logging -> Tracing -> Metrics -> [route match]
// -> filter chain -> forwarder
func NewHandler(spec *config.GatewaySpec, deps HandlerDeps) (http.Handler, error) {
	logger := deps.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	r := router.New()
	if err := r.LoadRoutes(spec.Routes); err != nil {
		return nil, fmt.Errorf("failed to load routes: %w", err)
	}

	opts := []proxy.ProxyOption{proxy.WithProxyLogger(logger)}
	if deps.Builder != nil {
		opts = append(opts, proxy.WithRouteMiddleware(RouteFilters(deps.Builder)))
	}
	opts = append(opts, deps.ProxyOptions...)

	p, err := proxy.NewReverseProxy(r, spec.Backends, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy: %w", err)
	}

	var h http.Handler = p
	if deps.Metrics != nil {
		h = observability.MetricsMiddleware(deps.Metrics)(h)
	}
	if deps.Tracer != nil {
		h = observability.TracingMiddleware(deps.Tracer)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.RequestID()(h)
	h = middleware.Recovery(logger)(h)

	logger.Info("request handler built",
		observability.Int("routes", len(r.GetRoutes())),
		observability.Int("backends", len(spec.Backends)),
	)
	return h, nil
}
