package jwt

import (
	"strconv"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Claims is the projection of a credential's payload the gateway cares about.
type Claims struct {
	UserID    string
	Authority string
	ExpiresAt time.Time
	Raw       map[string]interface{}
}

func newClaims(mc gojwt.MapClaims, userIDClaim, authorityClaim string) *Claims {
	c := &Claims{
		UserID:    claimString(mc, userIDClaim),
		Authority: claimString(mc, authorityClaim),
		Raw:       mc,
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c
}

// claimString reads a claim as a string. Numeric ids are formatted without
// exponent so that 42 stays "42".
func claimString(mc gojwt.MapClaims, name string) string {
	switch v := mc[name].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
