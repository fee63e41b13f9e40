package jwt

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/vyrodovalexey/authgw/internal/config"
	"github.com/vyrodovalexey/authgw/internal/observability"
)

// Codec verifies signed credentials and reads their claims. It holds no
// mutable state after construction and is safe for concurrent use.
type Codec struct {
	keys           *KeySet
	leeway         time.Duration
	userIDClaim    string
	authorityClaim string
	now            func() time.Time
	logger         observability.Logger
	metrics        *Metrics

	verifier     *gojwt.Parser
	claimsReader *gojwt.Parser
}

// CodecOption is a functional option for the codec.
type CodecOption func(*Codec)

// WithCodecLogger sets the logger for the codec.
func WithCodecLogger(logger observability.Logger) CodecOption {
	return func(c *Codec) {
		c.logger = logger
	}
}

// WithCodecMetrics sets the metrics for the codec.
func WithCodecMetrics(metrics *Metrics) CodecOption {
	return func(c *Codec) {
		c.metrics = metrics
	}
}

// WithClock overrides the wall clock used for expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.now = now
	}
}

// WithLeeway sets the tolerated clock skew for exp and nbf.
func WithLeeway(leeway time.Duration) CodecOption {
	return func(c *Codec) {
		c.leeway = leeway
	}
}

// WithClaimNames overrides the claim names carrying the user id and authority.
func WithClaimNames(userID, authority string) CodecOption {
	return func(c *Codec) {
		if userID != "" {
			c.userIDClaim = userID
		}
		if authority != "" {
			c.authorityClaim = authority
		}
	}
}

// NewCodec creates a codec verifying tokens against keys.
func NewCodec(keys *KeySet, opts ...CodecOption) (*Codec, error) {
	if keys == nil || len(keys.Methods()) == 0 {
		return nil, NewKeyError("", "key set is required", ErrInvalidKey)
	}

	c := &Codec{
		keys:           keys,
		userIDClaim:    config.DefaultUserIDClaim,
		authorityClaim: config.DefaultAuthorityClaim,
		now:            time.Now,
		logger:         observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = NewMetrics("gateway")
	}

	// the clock is read on every parse, never cached
	clock := func() time.Time { return c.now() }

	c.verifier = gojwt.NewParser(
		gojwt.WithValidMethods(keys.Methods()),
		gojwt.WithTimeFunc(clock),
		gojwt.WithLeeway(c.leeway),
	)
	c.claimsReader = gojwt.NewParser(
		gojwt.WithValidMethods(keys.Methods()),
		gojwt.WithoutClaimsValidation(),
	)

	return c, nil
}

// NewCodecFromConfig creates a codec using the claim names and leeway in cfg.
func NewCodecFromConfig(keys *KeySet, cfg *config.JWTConfig, opts ...CodecOption) (*Codec, error) {
	base := []CodecOption{
		WithLeeway(cfg.Leeway.Duration()),
		WithClaimNames(cfg.UserIDClaim, cfg.AuthorityClaim),
	}
	return NewCodec(keys, append(base, opts...)...)
}

// Verify classifies token as valid, expired or invalid. A token that cannot
// be parsed at all yields a *MalformedCredentialError.
func (c *Codec) Verify(token string) (Outcome, error) {
	start := time.Now()

	_, err := c.verifier.Parse(token, c.keys.keyFunc)
	outcome, err := classify(err)
	if err != nil && c.onlySignatureUndecodable(token) {
		outcome, err = OutcomeInvalid, nil
	}

	label := outcome.String()
	if err != nil {
		label = "malformed"
	}
	c.metrics.RecordVerification(label, time.Since(start))

	return outcome, err
}

// onlySignatureUndecodable reports whether token has a well-formed header
// and payload but a signature segment that is not base64url. Such a token
// carries corrupted signature bytes and is rejected as invalid.
func (c *Codec) onlySignatureUndecodable(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[2] == "" {
		return false
	}
	for _, seg := range parts[:2] {
		raw, err := c.verifier.DecodeSegment(seg)
		if err != nil || !json.Valid(raw) {
			return false
		}
	}
	_, err := c.verifier.DecodeSegment(parts[2])
	return err != nil
}

func classify(err error) (Outcome, error) {
	switch {
	case err == nil:
		return OutcomeValid, nil
	case errors.Is(err, gojwt.ErrTokenMalformed):
		return OutcomeInvalid, &MalformedCredentialError{Cause: err}
	case errors.Is(err, gojwt.ErrTokenExpired):
		return OutcomeExpired, nil
	default:
		return OutcomeInvalid, nil
	}
}

// Claims returns the claims of a token whose signature verifies. Expiry is
// not enforced, so an expired but authentic token still yields its claims.
func (c *Codec) Claims(token string) (*Claims, error) {
	mc := gojwt.MapClaims{}
	_, err := c.claimsReader.ParseWithClaims(token, mc, c.keys.keyFunc)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenMalformed) {
			return nil, &MalformedCredentialError{Cause: err}
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}
	return newClaims(mc, c.userIDClaim, c.authorityClaim), nil
}

// ExtractUserID returns the user id claim of token.
func (c *Codec) ExtractUserID(token string) (string, error) {
	claims, err := c.Claims(token)
	if err != nil {
		return "", err
	}
	if claims.UserID == "" {
		return "", &ClaimError{Claim: c.userIDClaim}
	}
	return claims.UserID, nil
}

// ExtractAuthority returns the authority claim of token.
func (c *Codec) ExtractAuthority(token string) (string, error) {
	claims, err := c.Claims(token)
	if err != nil {
		return "", err
	}
	if claims.Authority == "" {
		return "", &ClaimError{Claim: c.authorityClaim}
	}
	return claims.Authority, nil
}

// Fingerprint returns a short, non-reversible identifier for logging a token.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:6])
}
