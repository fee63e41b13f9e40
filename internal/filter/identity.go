package filter

import (
	"errors"
	"fmt"

	"github.com/vyrodovalexey/authgw/internal/config"
)

// errMissingClaim is reported when a verified credential has no user id.
var errMissingClaim = errors.New("credential has no user id claim")

// Identity forwards the caller's user id to the backend in a trusted header.
// It reads the Authorization value left by verification, so a refreshed
// credential is the one that counts.
type Identity struct {
	codec       CredentialCodec
	tokenPrefix string
	header      string
}

// NewIdentity creates the identity stage.
func NewIdentity(codec CredentialCodec, tokenPrefix, header string) *Identity {
	if header == "" {
		header = config.DefaultUserIDHeader
	}
	return &Identity{codec: codec, tokenPrefix: tokenPrefix, header: header}
}

// Name implements Stage.
func (s *Identity) Name() string { return StageIdentity }

// Order implements Stage.
func (s *Identity) Order() int { return 2 }

// Apply implements Stage.
func (s *Identity) Apply(ex *Exchange) Outcome {
	claims, err := s.codec.Claims(bearerToken(ex, s.tokenPrefix))
	if err != nil {
		return Abort("identity extraction failed", fmt.Errorf("identity: %w", err))
	}
	if claims.UserID == "" {
		return Abort("identity extraction failed", errMissingClaim)
	}
	ex.Request.Header.Set(s.header, claims.UserID)
	return Continue()
}
