package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/authgw/internal/config"
	"github.com/vyrodovalexey/authgw/internal/observability"
	"github.com/vyrodovalexey/authgw/internal/util"
)

// DefaultShutdownTimeout bounds Stop when the caller's context has no deadline.
const DefaultShutdownTimeout = 30 * time.Second

// State represents the gateway state.
type State int32

const (
	// StateStopped indicates the gateway is stopped.
	StateStopped State = iota
	// StateStarting indicates the gateway is starting.
	StateStarting
	// StateRunning indicates the gateway is running.
	StateRunning
	// StateStopping indicates the gateway is stopping.
	StateStopping
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Gateway is the main API Gateway struct.
type Gateway struct {
	config    *config.GatewayConfig
	logger    observability.Logger
	engine    *gin.Engine
	listeners []*Listener
	state     atomic.Int32
	startTime time.Time

	routeHandler    http.Handler
	shutdownTimeout time.Duration
}

// Option is a functional option for configuring the gateway.
type Option func(*Gateway)

// WithLogger sets the logger for the gateway.
func WithLogger(logger observability.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithShutdownTimeout sets the shutdown timeout.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		g.shutdownTimeout = timeout
	}
}

// WithRouteHandler sets the handler that serves every gateway request.
func WithRouteHandler(handler http.Handler) Option {
	return func(g *Gateway) {
		g.routeHandler = handler
	}
}

// New creates a new Gateway instance.
func New(cfg *config.GatewayConfig, opts ...Option) (*Gateway, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	g := &Gateway{
		config:          cfg,
		logger:          observability.NopLogger(),
		shutdownTimeout: DefaultShutdownTimeout,
	}

	for _, opt := range opts {
		opt(g)
	}

	g.state.Store(int32(StateStopped))

	return g, nil
}

// Start builds the engine and starts every configured listener.
func (g *Gateway) Start(ctx context.Context) error {
	if !g.state.CompareAndSwap(int32(StateStopped), int32(StateStarting)) {
		return ErrGatewayNotStopped
	}

	g.logger.Info("starting gateway",
		observability.String("name", g.config.Metadata.Name),
	)

	gin.SetMode(gin.ReleaseMode)
	g.engine = gin.New()
	g.setupRoutes()

	g.listeners = make([]*Listener, 0, len(g.config.Spec.Listeners))
	for _, listenerCfg := range g.config.Spec.Listeners {
		g.listeners = append(g.listeners, NewListener(listenerCfg, g.engine, WithListenerLogger(g.logger)))
	}

	for _, listener := range g.listeners {
		if err := listener.Start(ctx); err != nil {
			g.stopListeners(ctx)
			g.state.Store(int32(StateStopped))
			return fmt.Errorf("failed to start listener %s: %w", listener.Name(), err)
		}
	}

	g.startTime = time.Now()
	g.state.Store(int32(StateRunning))

	g.logger.Info("gateway started",
		observability.String("name", g.config.Metadata.Name),
		observability.Int("listeners", len(g.listeners)),
		observability.Int("routes", len(g.config.Spec.Routes)),
	)

	return nil
}

// Stop stops the gateway gracefully.
func (g *Gateway) Stop(ctx context.Context) error {
	if !g.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return ErrGatewayNotRunning
	}

	g.logger.Info("stopping gateway",
		observability.String("name", g.config.Metadata.Name),
	)

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.shutdownTimeout)
		defer cancel()
	}

	g.stopListeners(ctx)

	g.state.Store(int32(StateStopped))

	g.logger.Info("gateway stopped",
		observability.String("name", g.config.Metadata.Name),
		observability.Duration("uptime", time.Since(g.startTime)),
	)

	return nil
}

// State returns the current gateway state.
func (g *Gateway) State() State {
	return State(g.state.Load())
}

// IsRunning returns true if the gateway is running.
func (g *Gateway) IsRunning() bool {
	return g.State() == StateRunning
}

// Uptime returns the gateway uptime.
func (g *Gateway) Uptime() time.Duration {
	if g.startTime.IsZero() || !g.IsRunning() {
		return 0
	}
	return time.Since(g.startTime)
}

// Config returns the configuration the gateway was built with.
func (g *Gateway) Config() *config.GatewayConfig {
	return g.config
}

// Engine returns the gin engine. It is nil before Start.
func (g *Gateway) Engine() *gin.Engine {
	return g.engine
}

// Listeners returns the HTTP listeners.
func (g *Gateway) Listeners() []*Listener {
	return g.listeners
}

// setupRoutes sends every request to the route handler. Path matching is
// done by the router, not by gin.
func (g *Gateway) setupRoutes() {
	if g.routeHandler == nil {
		g.engine.NoRoute(func(c *gin.Context) {
			util.WriteJSONError(c.Writer, http.StatusNotFound, "no matching route")
		})
		return
	}
	g.engine.NoRoute(gin.WrapH(g.routeHandler))
}

func (g *Gateway) stopListeners(ctx context.Context) {
	var wg sync.WaitGroup
	for _, listener := range g.listeners {
		wg.Add(1)
		go func(l *Listener) {
			defer wg.Done()
			if err := l.Stop(ctx); err != nil {
				g.logger.Error("failed to stop listener",
					observability.String("name", l.Name()),
					observability.Error(err),
				)
			}
		}(listener)
	}
	wg.Wait()
}
