// Package proxy forwards authenticated requests to backend services.
//
// Every request is matched against the route table, passed through the
// route's middleware (the authentication chain) and then reverse proxied to
// the base URL of the route's backend. Backend names are resolved from
// configuration once at startup.
//
// # Usage
//
//	p, err := proxy.NewReverseProxy(
//	    routerInstance,
//	    cfg.Spec.Backends,
//	    proxy.WithProxyLogger(logger),
//	    proxy.WithRouteMiddleware(chains),
//	)
//	if err != nil {
//	    return err
//	}
//
//	http.Handle("/", p)
package proxy
