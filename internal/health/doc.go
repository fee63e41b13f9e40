// Package health provides health, readiness and liveness endpoints.
//
// Liveness only reports that the process serves HTTP. Readiness runs every
// registered dependency check (the revocation store ping in practice) and
// answers 503 while a critical dependency is down.
package health
