// Package middleware provides the HTTP middleware that wraps every request
// before route matching: panic recovery, request ids and access logging.
//
// # Usage
//
// Middleware functions follow the standard Go pattern:
//
//	handler := middleware.Recovery(logger)(
//	    middleware.RequestID()(
//	        middleware.Logging(logger)(yourHandler),
//	    ),
//	)
package middleware
