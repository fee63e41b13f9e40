package util

import (
	"context"
	"sync"
)

// Context keys.
type ctxKey string

const (
	ctxKeyRequestID   ctxKey = "request_id"
	ctxKeyRoute       ctxKey = "route"
	ctxKeyRouteHolder ctxKey = "route_holder"
)

// ContextWithRequestID adds a request ID to the context.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// ContextWithRoute adds a route name to the context. If an outer
// middleware installed a RouteHolder, the name is published there too.
func ContextWithRoute(ctx context.Context, route string) context.Context {
	if h, ok := ctx.Value(ctxKeyRouteHolder).(*RouteHolder); ok {
		h.Set(route)
	}
	return context.WithValue(ctx, ctxKeyRoute, route)
}

// RouteFromContext extracts the route name from context.
func RouteFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRoute).(string); ok {
		return v
	}
	return ""
}

// RouteHolder carries the matched route name back up to middleware that
// wrapped the handler before routing happened.
type RouteHolder struct {
	mu     sync.Mutex
	name   string
	parent *RouteHolder
}

// NewRouteHolder creates an empty RouteHolder.
func NewRouteHolder() *RouteHolder {
	return &RouteHolder{}
}

// Set records the route name in h and every enclosing holder.
func (h *RouteHolder) Set(name string) {
	h.mu.Lock()
	h.name = name
	parent := h.parent
	h.mu.Unlock()
	if parent != nil {
		parent.Set(name)
	}
}

// Name returns the recorded route name.
func (h *RouteHolder) Name() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.name
}

// ContextWithRouteHolder installs a RouteHolder in the context.
func ContextWithRouteHolder(ctx context.Context, h *RouteHolder) context.Context {
	if outer, ok := ctx.Value(ctxKeyRouteHolder).(*RouteHolder); ok && outer != h {
		h.mu.Lock()
		h.parent = outer
		h.mu.Unlock()
	}
	return context.WithValue(ctx, ctxKeyRouteHolder, h)
}
