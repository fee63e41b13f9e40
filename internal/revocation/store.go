// Package revocation queries the shared Redis store that records logged-out
// access tokens and the refresh token issued to each user.
//
// The store is written by the auth service; the gateway only reads it.
// Operations are never retried here: a failed lookup surfaces as
// ErrStoreUnavailable and the caller decides what to do.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/authgw/internal/config"
	"github.com/vyrodovalexey/authgw/internal/observability"
)

const tracerName = "github.com/vyrodovalexey/authgw/internal/revocation"

const (
	opIsRevoked     = "is_revoked"
	opLookupRefresh = "lookup_refresh_token"

	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

// pingTimeout bounds the startup connectivity check.
const pingTimeout = 5 * time.Second

// PasswordSource resolves the Redis password from a secret store.
type PasswordSource interface {
	ReadString(ctx context.Context, path, key string) (string, error)
}

// Store is a read-only client for the revocation store.
type Store struct {
	client           *redis.Client
	keyPrefix        string
	refreshKeyPrefix string
	logger           observability.Logger
}

// Option is a functional option for New.
type Option func(*storeOptions)

type storeOptions struct {
	passwords PasswordSource
	skipPing  bool
}

// WithPasswordSource resolves cfg.PasswordVaultPath through src.
func WithPasswordSource(src PasswordSource) Option {
	return func(o *storeOptions) {
		o.passwords = src
	}
}

// WithoutPing skips the startup connectivity check.
func WithoutPing() Option {
	return func(o *storeOptions) {
		o.skipPing = true
	}
}

// New connects to the store described by cfg.
func New(ctx context.Context, cfg *config.RevocationConfig, logger observability.Logger, opts ...Option) (*Store, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}
	o := &storeOptions{}
	for _, opt := range opts {
		opt(o)
	}

	redisURL := cfg.URL
	if cfg.PasswordVaultPath != "" {
		if o.passwords == nil {
			return nil, errors.New("redis password vault path configured without a vault client")
		}
		pw, err := o.passwords.ReadString(ctx, cfg.PasswordVaultPath, "password")
		if err != nil {
			return nil, fmt.Errorf("failed to read redis password from vault path %s: %w", cfg.PasswordVaultPath, err)
		}
		if redisURL, err = withPassword(redisURL, pw); err != nil {
			return nil, err
		}
		logger.Info("redis password resolved from vault",
			observability.String("vaultPath", cfg.PasswordVaultPath))
	}

	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	applyOptions(redisOpts, cfg)

	client := redis.NewClient(redisOpts)

	if !o.skipPing {
		if err := pingRedis(ctx, client); err != nil {
			_ = client.Close()
			return nil, unavailable("ping", err)
		}
	}

	s := NewFromClient(client, cfg, logger)
	logger.Info("revocation store connected",
		observability.String("addr", redisOpts.Addr),
		observability.Int("db", redisOpts.DB),
		observability.String("keyPrefix", s.keyPrefix),
		observability.String("refreshKeyPrefix", s.refreshKeyPrefix),
	)
	return s, nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client, cfg *config.RevocationConfig, logger observability.Logger) *Store {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Store{
		client:           client,
		keyPrefix:        cfg.KeyPrefix,
		refreshKeyPrefix: cfg.RefreshKeyPrefix,
		logger:           logger.With(observability.String("component", "revocation")),
	}
}

// applyOptions applies pool and timeout settings. MaxRetries is forced to
// -1 because go-redis retries three times by default.
func applyOptions(opts *redis.Options, cfg *config.RevocationConfig) {
	opts.MaxRetries = -1
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.DialTimeout = cfg.DialTimeout.OrDefault(config.DefaultStoreTimeout)
	opts.ReadTimeout = cfg.ReadTimeout.OrDefault(config.DefaultStoreTimeout)
	opts.WriteTimeout = cfg.WriteTimeout.OrDefault(config.DefaultStoreTimeout)
}

func withPassword(rawURL, password string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse redis URL: %w", err)
	}
	var username string
	if u.User != nil {
		username = u.User.Username()
	}
	u.User = url.UserPassword(username, password)
	return u.String(), nil
}

func pingRedis(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}

// IsRevoked reports whether token has been recorded as logged out.
func (s *Store) IsRevoked(ctx context.Context, token string) (bool, error) {
	ctx, span := startSpan(ctx, "revocation.IsRevoked")
	defer span.End()

	start := time.Now()
	defer observeDuration(opIsRevoked, start)

	n, err := s.client.Exists(ctx, s.keyPrefix+token).Result()
	if err != nil {
		recordFailure(span, opIsRevoked, err)
		s.logger.WithContext(ctx).Error("revocation lookup failed", observability.Error(err))
		return false, unavailable(opIsRevoked, err)
	}

	revoked := n > 0
	span.SetAttributes(attribute.Bool("revocation.revoked", revoked))
	GetStoreMetrics().operationsTotal.WithLabelValues(opIsRevoked, hitOrMiss(revoked)).Inc()
	return revoked, nil
}

// LookupRefreshToken returns the refresh token stored for userID. The bool
// is false when no record exists.
func (s *Store) LookupRefreshToken(ctx context.Context, userID string) (string, bool, error) {
	ctx, span := startSpan(ctx, "revocation.LookupRefreshToken")
	defer span.End()

	start := time.Now()
	defer observeDuration(opLookupRefresh, start)

	token, err := s.client.Get(ctx, s.refreshKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		GetStoreMetrics().operationsTotal.WithLabelValues(opLookupRefresh, resultMiss).Inc()
		return "", false, nil
	}
	if err != nil {
		recordFailure(span, opLookupRefresh, err)
		s.logger.WithContext(ctx).Error("refresh token lookup failed",
			observability.String("user_id", userID),
			observability.Error(err),
		)
		return "", false, unavailable(opLookupRefresh, err)
	}

	GetStoreMetrics().operationsTotal.WithLabelValues(opLookupRefresh, resultHit).Inc()
	return token, true, nil
}

// Ping checks connectivity. It backs the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.system", "redis")),
	)
}

func observeDuration(op string, start time.Time) {
	GetStoreMetrics().operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func recordFailure(span trace.Span, op string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	GetStoreMetrics().operationsTotal.WithLabelValues(op, resultError).Inc()
}

func hitOrMiss(hit bool) string {
	if hit {
		return resultHit
	}
	return resultMiss
}
