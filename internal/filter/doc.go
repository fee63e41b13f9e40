// Package filter implements the per-route authentication chain.
//
// A Chain runs up to four stages in a fixed order: header presence,
// credential verification with transparent refresh, identity propagation
// and the privileged role check. Each stage either lets the exchange
// continue or rejects it with a bare status code; a rejection ends the
// chain and the backend is never called.
//
// Response headers produced by a stage, such as a reissued Authorization
// value, are staged on the Exchange and written when the response is
// committed.
package filter
