package filter

import (
	"net/http"
	"strings"

	"github.com/vyrodovalexey/authgw/internal/auth/jwt"
	"github.com/vyrodovalexey/authgw/internal/config"
	"github.com/vyrodovalexey/authgw/internal/observability"
)

const (
	refreshResultReissued = "reissued"
	refreshResultMissing  = "missing"
	refreshResultInvalid  = "invalid"
	refreshResultMismatch = "user_mismatch"
	refreshResultFailed   = "failed"
)

// Verification checks revocation, verifies the access credential and
// transparently refreshes an expired one.
type Verification struct {
	codec              CredentialCodec
	store              RevocationStore
	reissuer           Reissuer
	tokenPrefix        string
	refreshSource      string
	refreshHeader      string
	invalidTokenStatus int
	logger             observability.Logger
	metrics            *Metrics
}

// VerificationConfig holds the settings of the verification stage.
type VerificationConfig struct {
	TokenPrefix        string
	RefreshTokenSource string
	RefreshTokenHeader string
	InvalidTokenStatus int
}

// NewVerification creates the verification stage.
func NewVerification(
	codec CredentialCodec,
	store RevocationStore,
	reissuer Reissuer,
	cfg VerificationConfig,
	logger observability.Logger,
) *Verification {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if cfg.RefreshTokenSource == "" {
		cfg.RefreshTokenSource = config.RefreshTokenSourceHeader
	}
	if cfg.RefreshTokenHeader == "" {
		cfg.RefreshTokenHeader = config.DefaultRefreshTokenHeader
	}
	if cfg.InvalidTokenStatus == 0 {
		cfg.InvalidTokenStatus = http.StatusUnauthorized
	}
	return &Verification{
		codec:              codec,
		store:              store,
		reissuer:           reissuer,
		tokenPrefix:        cfg.TokenPrefix,
		refreshSource:      cfg.RefreshTokenSource,
		refreshHeader:      cfg.RefreshTokenHeader,
		invalidTokenStatus: cfg.InvalidTokenStatus,
		logger:             logger,
		metrics:            GetMetrics(),
	}
}

// Name implements Stage.
func (s *Verification) Name() string { return StageVerify }

// Order implements Stage.
func (s *Verification) Order() int { return 1 }

// Apply implements Stage.
func (s *Verification) Apply(ex *Exchange) Outcome {
	token := bearerToken(ex, s.tokenPrefix)
	if token == "" {
		return Reject(http.StatusUnauthorized, "empty credential")
	}

	// revocation is checked before the signature
	revoked, err := s.store.IsRevoked(ex.Context(), token)
	if err != nil {
		return Abort("revocation store unavailable", err)
	}
	if revoked {
		return Reject(http.StatusUnauthorized, "credential revoked")
	}

	outcome, err := s.codec.Verify(token)
	if err != nil {
		return Abort("malformed credential", err)
	}

	switch outcome {
	case jwt.OutcomeValid:
		return Continue()
	case jwt.OutcomeExpired:
		return s.refresh(ex, token)
	default:
		return Reject(s.invalidTokenStatus, "credential invalid")
	}
}

func (s *Verification) refresh(ex *Exchange, expired string) Outcome {
	ctx := ex.Context()

	accessClaims, err := s.codec.Claims(expired)
	if err != nil {
		return Reject(http.StatusUnauthorized, "expired credential unreadable")
	}

	refreshToken, out := s.refreshToken(ex, accessClaims.UserID)
	if out.Rejected() {
		return out
	}
	if refreshToken == "" {
		s.metrics.refreshesTotal.WithLabelValues(refreshResultMissing).Inc()
		return Reject(http.StatusUnauthorized, "refresh credential missing")
	}

	outcome, err := s.codec.Verify(refreshToken)
	if err != nil || outcome != jwt.OutcomeValid {
		s.metrics.refreshesTotal.WithLabelValues(refreshResultInvalid).Inc()
		return Reject(http.StatusUnauthorized, "refresh credential not valid")
	}
	refreshClaims, err := s.codec.Claims(refreshToken)
	if err != nil || refreshClaims.UserID == "" {
		s.metrics.refreshesTotal.WithLabelValues(refreshResultInvalid).Inc()
		return Reject(http.StatusUnauthorized, "refresh credential has no user")
	}
	if accessClaims.UserID != "" && accessClaims.UserID != refreshClaims.UserID {
		s.metrics.refreshesTotal.WithLabelValues(refreshResultMismatch).Inc()
		return Reject(http.StatusUnauthorized, "refresh credential belongs to another user")
	}

	cred, err := s.reissuer.Reissue(ctx, refreshClaims.UserID, refreshToken)
	if err != nil {
		s.metrics.refreshesTotal.WithLabelValues(refreshResultFailed).Inc()
		return Abort("credential reissue failed", err)
	}

	value := cred.HeaderValue()
	ex.Request.Header.Set(AuthorizationHeader, value)
	ex.StageResponseHeader(AuthorizationHeader, value)

	s.metrics.refreshesTotal.WithLabelValues(refreshResultReissued).Inc()
	s.logger.WithContext(ctx).Debug("access credential refreshed",
		observability.String("user_id", refreshClaims.UserID),
		observability.String("expired", jwt.Fingerprint(expired)),
		observability.String("reissued", jwt.Fingerprint(cred.AccessToken)),
	)
	return Continue()
}

func (s *Verification) refreshToken(ex *Exchange, userID string) (string, Outcome) {
	if s.refreshSource != config.RefreshTokenSourceStore {
		return strings.TrimSpace(ex.Request.Header.Get(s.refreshHeader)), Continue()
	}
	if userID == "" {
		return "", Continue()
	}
	token, found, err := s.store.LookupRefreshToken(ex.Context(), userID)
	if err != nil {
		return "", Abort("revocation store unavailable", err)
	}
	if !found {
		return "", Continue()
	}
	return token, Continue()
}
