package router

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/vyrodovalexey/authgw/internal/config"
	"github.com/vyrodovalexey/authgw/internal/util"
)

// Route priority constants for calculating route matching order.
// Higher priority routes are matched first.
const (
	priorityExactMatch  = 1000
	priorityPrefixMatch = 500
)

// Router is the main routing engine.
type Router struct {
	routes   []*CompiledRoute
	routeMap map[string]*CompiledRoute
	mu       sync.RWMutex
}

// CompiledRoute is a pre-compiled route for efficient matching.
type CompiledRoute struct {
	Name        string
	Config      config.Route
	PathMatcher PathMatcher
	Priority    int
}

// MatchResult contains the result of a route match.
type MatchResult struct {
	Route   *CompiledRoute
	Backend string
}

// New creates a new router.
func New() *Router {
	return &Router{
		routes:   make([]*CompiledRoute, 0),
		routeMap: make(map[string]*CompiledRoute),
	}
}

// AddRoute adds a route to the router.
func (r *Router) AddRoute(route config.Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.routeMap[route.Name]; exists {
		return fmt.Errorf("duplicate route name: %s", route.Name)
	}
	if route.Path == "" {
		return fmt.Errorf("failed to compile route %s: empty path", route.Name)
	}

	compiled := &CompiledRoute{
		Name:        route.Name,
		Config:      route,
		PathMatcher: NewPathMatcher(route.Path),
	}
	compiled.Priority = calculatePriority(compiled.PathMatcher)

	r.routes = append(r.routes, compiled)
	r.routeMap[route.Name] = compiled

	// stable so equal priorities keep configuration order
	sort.SliceStable(r.routes, func(i, j int) bool {
		return r.routes[i].Priority > r.routes[j].Priority
	})

	getRouterMetrics().routesLoaded.Set(float64(len(r.routes)))
	return nil
}

// Match finds the route for a request.
func (r *Router) Match(req *http.Request) (*MatchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	path := req.URL.Path
	for _, route := range r.routes {
		if route.PathMatcher.Match(path) {
			getRouterMetrics().matchesTotal.WithLabelValues(route.Name).Inc()
			return &MatchResult{Route: route, Backend: route.Config.Backend}, nil
		}
	}

	getRouterMetrics().notFoundTotal.Inc()
	return nil, util.NewRouteNotFoundError(req.Method, path)
}

// calculatePriority ranks exact paths above prefixes and longer prefixes
// above shorter ones.
func calculatePriority(m PathMatcher) int {
	if m.Type() == "exact" {
		return priorityExactMatch + len(m.Pattern())
	}
	return priorityPrefixMatch + len(m.Pattern())
}

// GetRoute returns a route by name.
func (r *Router) GetRoute(name string) (*CompiledRoute, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	route, exists := r.routeMap[name]
	return route, exists
}

// GetRoutes returns all routes in matching order.
func (r *Router) GetRoutes() []*CompiledRoute {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make([]*CompiledRoute, len(r.routes))
	copy(routes, r.routes)
	return routes
}

// LoadRoutes loads routes from configuration.
func (r *Router) LoadRoutes(routes []config.Route) error {
	for _, route := range routes {
		if err := r.AddRoute(route); err != nil {
			return err
		}
	}
	return nil
}
