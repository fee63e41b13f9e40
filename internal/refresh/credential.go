package refresh

import "github.com/vyrodovalexey/authgw/internal/config"

// AccessCredential is the auth service's answer to a reissue request.
type AccessCredential struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// HeaderValue renders the credential as an Authorization header value,
// "<tokenType> <accessToken>". A missing token type falls back to Bearer.
func (c *AccessCredential) HeaderValue() string {
	tokenType := c.TokenType
	if tokenType == "" {
		tokenType = config.DefaultTokenPrefix
	}
	return tokenType + " " + c.AccessToken
}
