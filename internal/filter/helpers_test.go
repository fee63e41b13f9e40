package filter

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/authgw/internal/auth/jwt"
	"github.com/vyrodovalexey/authgw/internal/config"
	"github.com/vyrodovalexey/authgw/internal/refresh"
	"github.com/vyrodovalexey/authgw/internal/revocation"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var (
	keysOnce    sync.Once
	signingKey  *rsa.PrivateKey
	foreignKey  *rsa.PrivateKey
	keysInitErr error
)

func testKeys(t *testing.T) (*rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()
	keysOnce.Do(func() {
		if signingKey, keysInitErr = rsa.GenerateKey(rand.Reader, 2048); keysInitErr != nil {
			return
		}
		foreignKey, keysInitErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	require.NoError(t, keysInitErr)
	return signingKey, foreignKey
}

func mint(t *testing.T, key *rsa.PrivateKey, userID, authority string, exp time.Time) string {
	t.Helper()
	claims := gojwt.MapClaims{"exp": exp.Unix(), "iat": fixedNow.Add(-time.Hour).Unix()}
	if userID != "" {
		claims["userId"] = userID
	}
	if authority != "" {
		claims["authority"] = authority
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validToken(t *testing.T, userID, authority string) string {
	t.Helper()
	key, _ := testKeys(t)
	return mint(t, key, userID, authority, fixedNow.Add(time.Hour))
}

func expiredToken(t *testing.T, userID, authority string) string {
	t.Helper()
	key, _ := testKeys(t)
	return mint(t, key, userID, authority, fixedNow.Add(-5*time.Minute))
}

// countingCodec records how often Verify is called.
type countingCodec struct {
	CredentialCodec
	verifyCalls atomic.Int32
}

func (c *countingCodec) Verify(token string) (jwt.Outcome, error) {
	c.verifyCalls.Add(1)
	return c.CredentialCodec.Verify(token)
}

func newTestCodec(t *testing.T) *countingCodec {
	t.Helper()
	key, _ := testKeys(t)
	ks, err := jwt.NewStaticKeySet(&key.PublicKey)
	require.NoError(t, err)
	codec, err := jwt.NewCodec(ks, jwt.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return &countingCodec{CredentialCodec: codec}
}

type fakeReissuer struct {
	mu          sync.Mutex
	calls       int
	lastUser    string
	lastRefresh string
	cred        *refresh.AccessCredential
	err         error
}

func (f *fakeReissuer) Reissue(_ context.Context, userID, refreshToken string) (*refresh.AccessCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastUser = userID
	f.lastRefresh = refreshToken
	if f.err != nil {
		return nil, f.err
	}
	return f.cred, nil
}

func (f *fakeReissuer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeStore serves canned answers for cases miniredis cannot express.
type fakeStore struct {
	revoked   bool
	lookup    string
	lookupErr error
}

func (f *fakeStore) IsRevoked(context.Context, string) (bool, error) {
	return f.revoked, nil
}

func (f *fakeStore) LookupRefreshToken(context.Context, string) (string, bool, error) {
	if f.lookupErr != nil {
		return "", false, f.lookupErr
	}
	return f.lookup, f.lookup != "", nil
}

// backendRecorder stands in for the proxied service.
type backendRecorder struct {
	mu      sync.Mutex
	calls   int
	headers http.Header
}

func (b *backendRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.calls++
	b.headers = r.Header.Clone()
	b.mu.Unlock()
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (b *backendRecorder) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *backendRecorder) Header(name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.headers == nil {
		return ""
	}
	return b.headers.Get(name)
}

type harness struct {
	spec     *config.GatewaySpec
	codec    *countingCodec
	mr       *miniredis.Miniredis
	store    RevocationStore
	reissuer *fakeReissuer
	backend  *backendRecorder
	handler  http.Handler
}

func newHarness(t *testing.T, mutate func(*config.GatewaySpec)) *harness {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := &config.GatewayConfig{Spec: config.GatewaySpec{
		Filter: config.FilterConfig{ExcludePaths: "/api/auth/login, /api/auth/signup,/api/ops/admin/health"},
		Routes: []config.Route{{Name: "user-management", Path: "/api/**", Backend: "USER-MANAGEMENT"}},
	}}
	config.ApplyDefaults(cfg)
	if mutate != nil {
		mutate(&cfg.Spec)
	}

	store, err := revocation.New(context.Background(),
		&config.RevocationConfig{URL: "redis://" + mr.Addr()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	h := &harness{
		spec:     &cfg.Spec,
		codec:    newTestCodec(t),
		mr:       mr,
		store:    store,
		reissuer: &fakeReissuer{},
		backend:  &backendRecorder{},
	}
	h.rebuild(t)
	return h
}

// rebuild recreates the handler after a dependency was swapped.
func (h *harness) rebuild(t *testing.T) {
	t.Helper()
	b := NewBuilder(h.spec, h.codec, h.store, h.reissuer, nil)
	chain, err := b.Build(&h.spec.Routes[0])
	require.NoError(t, err)
	h.handler = chain.Handler(h.backend)
}

func (h *harness) do(method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}
