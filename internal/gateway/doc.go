// Package gateway owns the gateway lifecycle: the gin engine, the HTTP
// listeners and graceful shutdown.
//
// The request handler (global middleware, authentication filter chains and
// the reverse proxy) is assembled by the caller and handed to the gateway
// with WithRouteHandler. RouteFilters adapts a filter.Builder into the
// per-route middleware hook of the proxy.
//
// # Usage
//
//	gw, err := gateway.New(cfg,
//	    gateway.WithLogger(logger),
//	    gateway.WithRouteHandler(handler),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := gw.Start(ctx); err != nil {
//	    return err
//	}
//	defer gw.Stop(ctx)
package gateway
