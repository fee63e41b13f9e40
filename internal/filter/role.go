package filter

import (
	"fmt"
	"net/http"
	"regexp"
)

// RoleCheck requires the privileged role on paths matching the protected
// pattern. The pattern must match the whole path.
type RoleCheck struct {
	codec       CredentialCodec
	tokenPrefix string
	pattern     *regexp.Regexp
	role        string
}

// NewRoleCheck creates the role check stage. pattern is anchored at both ends.
func NewRoleCheck(codec CredentialCodec, tokenPrefix, pattern, role string) (*RoleCheck, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("invalid protected path pattern: %w", err)
	}
	return &RoleCheck{codec: codec, tokenPrefix: tokenPrefix, pattern: re, role: role}, nil
}

// Name implements Stage.
func (s *RoleCheck) Name() string { return StageRole }

// Order implements Stage.
func (s *RoleCheck) Order() int { return 3 }

// Protected reports whether path requires the privileged role.
func (s *RoleCheck) Protected(path string) bool {
	return s.pattern.MatchString(path)
}

// Apply implements Stage.
func (s *RoleCheck) Apply(ex *Exchange) Outcome {
	if !s.Protected(ex.Path()) {
		return Continue()
	}
	claims, err := s.codec.Claims(bearerToken(ex, s.tokenPrefix))
	if err != nil || claims.Authority != s.role {
		return Outcome{Status: http.StatusForbidden, Reason: "privileged role required", Err: ErrAuthorizationRejected}
	}
	return Continue()
}
