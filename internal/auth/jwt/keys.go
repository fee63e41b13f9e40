package jwt

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/vyrodovalexey/authgw/internal/config"
	"github.com/vyrodovalexey/authgw/internal/observability"
)

// DefaultJWKSFetchTimeout bounds the startup JWKS download.
const DefaultJWKSFetchTimeout = 10 * time.Second

// SecretReader resolves a string value from a secret store path.
type SecretReader interface {
	ReadFirstString(ctx context.Context, path string, keys ...string) (key, value string, err error)
}

// KeySet holds the verification keys and the algorithms they may be used with.
// Keys are looked up by the token's "kid" header; a token without kid uses
// the single key of a one-key set.
type KeySet struct {
	byKID   map[string]interface{}
	single  interface{}
	methods []string
}

// NewStaticKeySet creates a key set around one verification key. The key is
// an *rsa.PublicKey, *ecdsa.PublicKey, ed25519.PublicKey or an HMAC []byte.
func NewStaticKeySet(key interface{}) (*KeySet, error) {
	methods, err := methodsForKey(key)
	if err != nil {
		return nil, err
	}
	return &KeySet{single: key, methods: methods}, nil
}

// Methods returns the accepted signing algorithms.
func (s *KeySet) Methods() []string {
	return s.methods
}

// Len returns the number of keys in the set.
func (s *KeySet) Len() int {
	if s.single != nil {
		return 1
	}
	return len(s.byKID)
}

func (s *KeySet) restrict(algorithms []string) error {
	if len(algorithms) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(s.methods))
	for _, m := range s.methods {
		allowed[m] = true
	}
	restricted := make([]string, 0, len(algorithms))
	for _, a := range algorithms {
		if !allowed[a] {
			return NewKeyError("", fmt.Sprintf("algorithm %s does not fit the configured key", a), ErrInvalidKey)
		}
		restricted = append(restricted, a)
	}
	s.methods = restricted
	return nil
}

func (s *KeySet) keyFunc(token *gojwt.Token) (interface{}, error) {
	kid, _ := token.Header["kid"].(string)
	if kid != "" && s.byKID != nil {
		if key, ok := s.byKID[kid]; ok {
			return key, nil
		}
		return nil, NewKeyError(kid, "no key with this id", ErrKeyNotFound)
	}
	if s.single != nil {
		return s.single, nil
	}
	return nil, NewKeyError(kid, "token has no kid and the key set holds several keys", ErrKeyNotFound)
}

// ParseVerificationKey parses a public key given either as a PEM block or as
// base64 encoded DER SubjectPublicKeyInfo.
func ParseVerificationKey(material string) (interface{}, error) {
	material = strings.TrimSpace(material)
	if material == "" {
		return nil, NewKeyError("", "empty key material", ErrInvalidKey)
	}

	data := []byte(material)
	if !strings.HasPrefix(material, "-----BEGIN") {
		der, err := decodeBase64(material)
		if err != nil {
			return nil, NewKeyError("", "key is neither PEM nor base64", err)
		}
		data = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	}

	key, err := jwk.ParseKey(data, jwk.WithPEM(true))
	if err != nil {
		return nil, NewKeyError("", "failed to parse public key", err)
	}
	return rawPublicKey(key)
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

func rawPublicKey(key jwk.Key) (interface{}, error) {
	// a JWKS may publish private keys; only the public half is ever used
	pub, err := key.PublicKey()
	if err != nil {
		return nil, NewKeyError(key.KeyID(), "failed to derive public key", err)
	}

	var raw interface{}
	if err := pub.Raw(&raw); err != nil {
		return nil, NewKeyError(key.KeyID(), "failed to export key", err)
	}
	if _, err := methodsForKey(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func methodsForKey(key interface{}) ([]string, error) {
	switch k := key.(type) {
	case *rsa.PublicKey:
		return []string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512"}, nil
	case *ecdsa.PublicKey:
		return []string{"ES256", "ES384", "ES512"}, nil
	case ed25519.PublicKey:
		return []string{"EdDSA"}, nil
	case []byte:
		if len(k) == 0 {
			return nil, NewKeyError("", "empty HMAC secret", ErrInvalidKey)
		}
		return []string{"HS256", "HS384", "HS512"}, nil
	default:
		return nil, NewKeyError("", fmt.Sprintf("unsupported key type %T", key), ErrInvalidKey)
	}
}

// FetchJWKS downloads a JWKS document once and builds a kid indexed key set.
func FetchJWKS(ctx context.Context, url string, client *http.Client) (*KeySet, error) {
	if client == nil {
		client = &http.Client{Timeout: DefaultJWKSFetchTimeout}
	}

	set, err := jwk.Fetch(ctx, url, jwk.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrJWKSFetchFailed, url, err)
	}
	if set.Len() == 0 {
		return nil, fmt.Errorf("%w: %s: no keys", ErrJWKSFetchFailed, url)
	}

	ks := &KeySet{byKID: make(map[string]interface{}, set.Len())}
	seen := make(map[string]bool)
	for i := 0; i < set.Len(); i++ {
		key, ok := set.Key(i)
		if !ok {
			continue
		}
		raw, err := rawPublicKey(key)
		if err != nil {
			return nil, err
		}
		methods, _ := methodsForKey(raw)
		for _, m := range methods {
			if !seen[m] {
				seen[m] = true
				ks.methods = append(ks.methods, m)
			}
		}
		ks.byKID[key.KeyID()] = raw
		if set.Len() == 1 {
			ks.single = raw
		}
	}
	return ks, nil
}

// LoadKeySet builds the key set described by cfg. secrets may be nil when
// cfg.VaultPath is unset.
func LoadKeySet(
	ctx context.Context,
	cfg *config.JWTConfig,
	secrets SecretReader,
	logger observability.Logger,
) (*KeySet, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}

	ks, source, err := loadKeySet(ctx, cfg, secrets)
	if err != nil {
		return nil, err
	}
	if err := ks.restrict(cfg.Algorithms); err != nil {
		return nil, err
	}

	logger.Info("verification keys loaded",
		observability.String("source", source),
		observability.Int("keys", ks.Len()),
		observability.Strings("algorithms", ks.Methods()),
	)
	return ks, nil
}

func loadKeySet(ctx context.Context, cfg *config.JWTConfig, secrets SecretReader) (*KeySet, string, error) {
	switch {
	case cfg.PublicKey != "":
		key, err := ParseVerificationKey(cfg.PublicKey)
		if err != nil {
			return nil, "", err
		}
		ks, err := NewStaticKeySet(key)
		return ks, "publicKey", err

	case cfg.PublicKeyFile != "":
		data, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, "", NewKeyError("", "failed to read public key file", err)
		}
		key, err := ParseVerificationKey(string(data))
		if err != nil {
			return nil, "", err
		}
		ks, err := NewStaticKeySet(key)
		return ks, "publicKeyFile", err

	case cfg.Secret != "":
		ks, err := NewStaticKeySet([]byte(cfg.Secret))
		return ks, "secret", err

	case cfg.JWKSURL != "":
		fetchCtx, cancel := context.WithTimeout(ctx, DefaultJWKSFetchTimeout)
		defer cancel()
		ks, err := FetchJWKS(fetchCtx, cfg.JWKSURL, nil)
		return ks, "jwks", err

	case cfg.VaultPath != "":
		if secrets == nil {
			return nil, "", NewKeyError("", "vault path configured without a vault client", ErrInvalidKey)
		}
		field, value, err := secrets.ReadFirstString(ctx, cfg.VaultPath, "publicKey", "secret")
		if err != nil {
			return nil, "", NewKeyError("", "failed to read key from vault", err)
		}
		if field == "secret" {
			ks, err := NewStaticKeySet([]byte(value))
			return ks, "vault", err
		}
		key, err := ParseVerificationKey(value)
		if err != nil {
			return nil, "", err
		}
		ks, err := NewStaticKeySet(key)
		return ks, "vault", err

	default:
		return nil, "", NewKeyError("", "no key source configured", ErrInvalidKey)
	}
}
