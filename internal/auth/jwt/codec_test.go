package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func generateRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func signRS256(t *testing.T, key *rsa.PrivateKey, claims gojwt.MapClaims) string {
	t.Helper()
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func newTestCodec(t *testing.T, key *rsa.PrivateKey, opts ...CodecOption) *Codec {
	t.Helper()
	ks, err := NewStaticKeySet(&key.PublicKey)
	require.NoError(t, err)

	base := []CodecOption{WithClock(func() time.Time { return fixedNow })}
	codec, err := NewCodec(ks, append(base, opts...)...)
	require.NoError(t, err)
	return codec
}

func TestCodec_Verify(t *testing.T) {
	t.Parallel()

	key := generateRSAKey(t)
	otherKey := generateRSAKey(t)
	codec := newTestCodec(t, key)

	hmacToken, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"userId": "u1",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	corrupted := signRS256(t, key, gojwt.MapClaims{"userId": "u1", "exp": fixedNow.Add(time.Minute).Unix()})
	undecodableSig := corrupted[:len(corrupted)-1] + "!"
	flippedSig := corrupted[:len(corrupted)-2] + flipB64(corrupted[len(corrupted)-2]) + corrupted[len(corrupted)-1:]

	tests := []struct {
		name          string
		token         string
		want          Outcome
		wantMalformed bool
	}{
		{
			name:  "valid",
			token: signRS256(t, key, gojwt.MapClaims{"userId": "u1", "exp": fixedNow.Add(time.Minute).Unix()}),
			want:  OutcomeValid,
		},
		{
			name:  "valid without exp",
			token: signRS256(t, key, gojwt.MapClaims{"userId": "u1"}),
			want:  OutcomeValid,
		},
		{
			name:  "expired",
			token: signRS256(t, key, gojwt.MapClaims{"userId": "u1", "exp": fixedNow.Add(-time.Second).Unix()}),
			want:  OutcomeExpired,
		},
		{
			name:  "wrong key",
			token: signRS256(t, otherKey, gojwt.MapClaims{"userId": "u1", "exp": fixedNow.Add(time.Minute).Unix()}),
			want:  OutcomeInvalid,
		},
		{
			name:  "expired and wrong key",
			token: signRS256(t, otherKey, gojwt.MapClaims{"userId": "u1", "exp": fixedNow.Add(-time.Hour).Unix()}),
			want:  OutcomeInvalid,
		},
		{
			name:  "algorithm not allowed",
			token: hmacToken,
			want:  OutcomeInvalid,
		},
		{
			name:  "not yet valid",
			token: signRS256(t, key, gojwt.MapClaims{"userId": "u1", "nbf": fixedNow.Add(time.Hour).Unix()}),
			want:  OutcomeInvalid,
		},
		{name: "signature bytes flipped", token: flippedSig, want: OutcomeInvalid},
		{name: "signature not base64url", token: undecodableSig, want: OutcomeInvalid},
		{name: "garbage", token: "not-a-token", wantMalformed: true},
		{name: "empty", token: "", wantMalformed: true},
		{name: "bad base64", token: "a.b.c", wantMalformed: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			outcome, err := codec.Verify(tt.token)
			if tt.wantMalformed {
				require.Error(t, err)
				assert.True(t, IsMalformed(err))
				var merr *MalformedCredentialError
				assert.ErrorAs(t, err, &merr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome)
		})
	}
}

func TestCodec_Verify_ReadsClockPerCall(t *testing.T) {
	t.Parallel()

	key := generateRSAKey(t)
	now := fixedNow
	codec := newTestCodec(t, key, WithClock(func() time.Time { return now }))

	token := signRS256(t, key, gojwt.MapClaims{"userId": "u1", "exp": fixedNow.Add(time.Minute).Unix()})

	outcome, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, OutcomeValid, outcome)

	now = fixedNow.Add(2 * time.Minute)
	outcome, err = codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, OutcomeExpired, outcome)
}

func TestCodec_Verify_Leeway(t *testing.T) {
	t.Parallel()

	key := generateRSAKey(t)
	codec := newTestCodec(t, key, WithLeeway(30*time.Second))

	token := signRS256(t, key, gojwt.MapClaims{"exp": fixedNow.Add(-10 * time.Second).Unix()})
	outcome, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, OutcomeValid, outcome)
}

func TestCodec_Claims(t *testing.T) {
	t.Parallel()

	key := generateRSAKey(t)
	codec := newTestCodec(t, key)

	expired := signRS256(t, key, gojwt.MapClaims{
		"userId":    "u1",
		"authority": "ROLE_USER",
		"exp":       fixedNow.Add(-time.Hour).Unix(),
	})

	claims, err := codec.Claims(expired)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "ROLE_USER", claims.Authority)
	assert.Equal(t, fixedNow.Add(-time.Hour).Unix(), claims.ExpiresAt.Unix())

	forged := signRS256(t, generateRSAKey(t), gojwt.MapClaims{"userId": "u1"})
	_, err = codec.Claims(forged)
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = codec.Claims("x.y")
	assert.ErrorIs(t, err, ErrMalformedCredential)
}

func TestCodec_Extract(t *testing.T) {
	t.Parallel()

	key := generateRSAKey(t)
	codec := newTestCodec(t, key)

	tests := []struct {
		name          string
		claims        gojwt.MapClaims
		wantUserID    string
		wantAuthority string
	}{
		{
			name:          "admin",
			claims:        gojwt.MapClaims{"userId": "u1", "authority": "ROLE_ADMIN"},
			wantUserID:    "u1",
			wantAuthority: "ROLE_ADMIN",
		},
		{
			name:       "numeric user id",
			claims:     gojwt.MapClaims{"userId": 42},
			wantUserID: "42",
		},
		{
			name:   "no claims",
			claims: gojwt.MapClaims{"sub": "x"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			token := signRS256(t, key, tt.claims)

			userID, err := codec.ExtractUserID(token)
			if tt.wantUserID == "" {
				assert.ErrorIs(t, err, ErrClaimMissing)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantUserID, userID)
			}

			authority, err := codec.ExtractAuthority(token)
			if tt.wantAuthority == "" {
				assert.ErrorIs(t, err, ErrClaimMissing)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantAuthority, authority)
			}
		})
	}
}

func TestCodec_CustomClaimNames(t *testing.T) {
	t.Parallel()

	key := generateRSAKey(t)
	codec := newTestCodec(t, key, WithClaimNames("sub", "role"))

	token := signRS256(t, key, gojwt.MapClaims{"sub": "u9", "role": "ROLE_ADMIN"})

	userID, err := codec.ExtractUserID(token)
	require.NoError(t, err)
	assert.Equal(t, "u9", userID)

	authority, err := codec.ExtractAuthority(token)
	require.NoError(t, err)
	assert.Equal(t, "ROLE_ADMIN", authority)
}

func TestCodec_Metrics(t *testing.T) {
	t.Parallel()

	key := generateRSAKey(t)
	metrics := NewMetrics("test")
	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)
	metrics.MustRegister(registry)
	metrics.Init()

	codec := newTestCodec(t, key, WithCodecMetrics(metrics))

	_, _ = codec.Verify(signRS256(t, key, gojwt.MapClaims{"userId": "u1"}))
	_, _ = codec.Verify("garbage")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.verificationTotal.WithLabelValues("valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.verificationTotal.WithLabelValues("malformed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.verificationTotal.WithLabelValues("expired")))
}

func TestNewCodec_RequiresKeys(t *testing.T) {
	t.Parallel()

	_, err := NewCodec(nil)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestOutcome_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "valid", OutcomeValid.String())
	assert.Equal(t, "expired", OutcomeExpired.String())
	assert.Equal(t, "invalid", OutcomeInvalid.String())
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	fp := Fingerprint("token")
	assert.Len(t, fp, 12)
	assert.Equal(t, fp, Fingerprint("token"))
	assert.NotEqual(t, fp, Fingerprint("other"))
}

func TestErrors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "malformed credential", (&MalformedCredentialError{}).Error())
	assert.Contains(t, NewKeyError("k1", "missing", ErrKeyNotFound).Error(), "kid=k1")
	assert.ErrorIs(t, NewKeyError("", "x", ErrKeyNotFound), ErrKeyNotFound)
	assert.Contains(t, (&ClaimError{Claim: "userId"}).Error(), "userId")
}

func flipB64(c byte) string {
	if c == 'A' {
		return "B"
	}
	return "A"
}
