package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vyrodovalexey/authgw/internal/config"
	"github.com/vyrodovalexey/authgw/internal/observability"
)

// Listener server defaults, used when the listener config leaves them unset.
const (
	DefaultReadTimeout       = 30 * time.Second
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultWriteTimeout      = 30 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
	DefaultMaxHeaderBytes    = 1 << 20
)

// Listener represents an HTTP listener.
type Listener struct {
	config  config.Listener
	handler http.Handler
	logger  observability.Logger
	running atomic.Bool

	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
}

// ListenerOption is a functional option for configuring a listener.
type ListenerOption func(*Listener)

// WithListenerLogger sets the logger for the listener.
func WithListenerLogger(logger observability.Logger) ListenerOption {
	return func(l *Listener) {
		l.logger = logger
	}
}

// NewListener creates a new listener.
func NewListener(cfg config.Listener, handler http.Handler, opts ...ListenerOption) *Listener {
	l := &Listener{
		config:  cfg,
		handler: handler,
		logger:  observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Name returns the listener name.
func (l *Listener) Name() string {
	return l.config.Name
}

// Address returns the configured listen address.
func (l *Listener) Address() string {
	bind := l.config.Bind
	if bind == "" {
		bind = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d", bind, l.config.Port)
}

// BoundAddr returns the address actually bound, or nil before Start.
func (l *Listener) BoundAddr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addr
}

// Start binds the socket and serves in the background.
func (l *Listener) Start(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", ErrListenerRunning, l.config.Name)
	}

	addr := l.Address()
	server := &http.Server{
		Addr:              addr,
		Handler:           l.handler,
		ReadTimeout:       l.config.ReadTimeout.OrDefault(DefaultReadTimeout),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      l.config.WriteTimeout.OrDefault(DefaultWriteTimeout),
		IdleTimeout:       l.config.IdleTimeout.OrDefault(DefaultIdleTimeout),
		MaxHeaderBytes:    DefaultMaxHeaderBytes,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		l.running.Store(false)
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	l.mu.Lock()
	l.server = server
	l.addr = ln.Addr()
	l.mu.Unlock()

	l.logger.Info("listener started",
		observability.String("name", l.config.Name),
		observability.String("address", ln.Addr().String()),
	)

	go l.serve(server, ln)

	return nil
}

func (l *Listener) serve(server *http.Server, ln net.Listener) {
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.logger.Error("listener error",
			observability.String("name", l.config.Name),
			observability.Error(err),
		)
	}
	l.running.Store(false)
}

// Stop stops the listener gracefully.
func (l *Listener) Stop(ctx context.Context) error {
	l.mu.Lock()
	server := l.server
	l.mu.Unlock()

	if server == nil || !l.running.Load() {
		return nil
	}

	l.logger.Info("stopping listener",
		observability.String("name", l.config.Name),
	)

	if err := server.Shutdown(ctx); err != nil {
		if closeErr := server.Close(); closeErr != nil {
			return fmt.Errorf("failed to close listener: %w", closeErr)
		}
		return fmt.Errorf("failed to shutdown listener gracefully: %w", err)
	}

	l.running.Store(false)

	l.logger.Info("listener stopped",
		observability.String("name", l.config.Name),
	)

	return nil
}

// IsRunning returns true if the listener is running.
func (l *Listener) IsRunning() bool {
	return l.running.Load()
}
