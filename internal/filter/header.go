package filter

import (
	"net/http"
	"strings"
)

// HeaderPresence rejects requests without an Authorization value.
type HeaderPresence struct{}

// NewHeaderPresence creates the header presence stage.
func NewHeaderPresence() *HeaderPresence {
	return &HeaderPresence{}
}

// Name implements Stage.
func (s *HeaderPresence) Name() string { return StageHeader }

// Order implements Stage.
func (s *HeaderPresence) Order() int { return 0 }

// Apply implements Stage.
func (s *HeaderPresence) Apply(ex *Exchange) Outcome {
	if strings.TrimSpace(ex.Request.Header.Get(AuthorizationHeader)) == "" {
		return Reject(http.StatusUnauthorized, "authorization header missing")
	}
	return Continue()
}
