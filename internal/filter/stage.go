package filter

import (
	"context"
	"strings"

	"github.com/vyrodovalexey/authgw/internal/auth/jwt"
	"github.com/vyrodovalexey/authgw/internal/config"
	"github.com/vyrodovalexey/authgw/internal/refresh"
)

// Stage names, identical to the names accepted in route configuration.
const (
	StageHeader   = config.FilterHeader
	StageVerify   = config.FilterVerify
	StageIdentity = config.FilterIdentity
	StageRole     = config.FilterRole
)

// AuthorizationHeader carries the access credential in both directions.
const AuthorizationHeader = "Authorization"

// Stage is one step of the chain.
type Stage interface {
	// Name returns the stage name used in logs and metrics.
	Name() string
	// Order returns the position of the stage in the chain.
	Order() int
	// Apply inspects and possibly mutates the exchange.
	Apply(ex *Exchange) Outcome
}

// CredentialCodec verifies credentials and reads their claims.
type CredentialCodec interface {
	Verify(token string) (jwt.Outcome, error)
	Claims(token string) (*jwt.Claims, error)
}

// RevocationStore answers revocation and refresh token lookups.
type RevocationStore interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
	LookupRefreshToken(ctx context.Context, userID string) (string, bool, error)
}

// Reissuer exchanges a refresh credential for a new access credential.
type Reissuer interface {
	Reissue(ctx context.Context, userID, refreshToken string) (*refresh.AccessCredential, error)
}

// StripPrefix removes the token type prefix and the surrounding spaces from
// an Authorization value. A value without the prefix is returned trimmed.
func StripPrefix(value, prefix string) string {
	value = strings.TrimSpace(value)
	if prefix != "" && len(value) >= len(prefix) && strings.EqualFold(value[:len(prefix)], prefix) {
		rest := value[len(prefix):]
		if rest == "" || rest[0] == ' ' || rest[0] == '\t' {
			return strings.TrimSpace(rest)
		}
	}
	return value
}

func bearerToken(ex *Exchange, prefix string) string {
	return StripPrefix(ex.Request.Header.Get(AuthorizationHeader), prefix)
}
