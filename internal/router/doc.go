// Package router maps request paths to configured routes.
//
// A route path is either an exact path or a prefix ending in "/**". Exact
// routes win over prefix routes, and longer prefixes win over shorter ones,
// so the order of routes in the configuration does not matter.
package router
