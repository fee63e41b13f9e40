// Package refresh calls the authorization service to reissue an access
// credential from a refresh credential.
//
// A reissue is attempted at most once per request. Any failure, including
// an open circuit breaker or an exhausted rate limit, is reported as
// ErrReissueFailed.
package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/vyrodovalexey/authgw/internal/config"
	"github.com/vyrodovalexey/authgw/internal/observability"
)

const tracerName = "github.com/vyrodovalexey/authgw/internal/refresh"

const (
	resultSuccess  = "success"
	resultFailure  = "failure"
	resultRejected = "rejected"
)

// maxResponseBytes caps how much of the auth service response is read.
const maxResponseBytes = 1 << 20

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// Client reissues access credentials.
type Client struct {
	url          string
	httpClient   *http.Client
	userIDHeader string
	breaker      *gobreaker.CircuitBreaker
	limiter      *rate.Limiter
	logger       observability.Logger
}

// Option is a functional option for New.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its timeout is left untouched.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// WithUserIDHeader sets the header carrying the user id to the auth service.
func WithUserIDHeader(name string) Option {
	return func(cl *Client) {
		cl.userIDHeader = name
	}
}

type reissueRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// New creates a client for the reissue endpoint described by cfg.
func New(cfg *config.RefreshConfig, opts ...Option) *Client {
	c := &Client{
		url:          cfg.URL,
		userIDHeader: config.DefaultUserIDHeader,
		logger:       observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: cfg.Timeout.OrDefault(config.DefaultRefreshTimeout)}
	}
	c.logger = c.logger.With(observability.String("component", "refresh"))

	if cb := cfg.CircuitBreaker; cb != nil && cb.Enabled {
		c.breaker = newBreaker(cb, c.logger)
	}
	if rl := cfg.RateLimit; rl != nil && rl.Enabled {
		burst := rl.Burst
		if burst <= 0 {
			burst = int(rl.RequestsPerSecond)
			if burst < 1 {
				burst = 1
			}
		}
		c.limiter = rate.NewLimiter(rate.Limit(rl.RequestsPerSecond), burst)
	}
	return c
}

// Reissue exchanges refreshToken for a new access credential on behalf of
// userID.
func (c *Client) Reissue(ctx context.Context, userID, refreshToken string) (*AccessCredential, error) {
	ctx, span := tracer().Start(ctx, "refresh.Reissue",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("enduser.id", userID)),
	)
	defer span.End()

	m := GetClientMetrics()
	start := time.Now()
	defer func() {
		m.requestDuration.Observe(time.Since(start).Seconds())
	}()

	if c.limiter != nil && !c.limiter.Allow() {
		m.requestsTotal.WithLabelValues(resultRejected).Inc()
		err := reissueFailed(0, "rate limit exceeded", nil)
		c.fail(ctx, span, userID, err)
		return nil, err
	}

	cred, err := c.execute(ctx, userID, refreshToken)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			m.requestsTotal.WithLabelValues(resultRejected).Inc()
			err = reissueFailed(0, "circuit breaker open", err)
		} else {
			m.requestsTotal.WithLabelValues(resultFailure).Inc()
		}
		c.fail(ctx, span, userID, err)
		return nil, err
	}

	m.requestsTotal.WithLabelValues(resultSuccess).Inc()
	c.logger.WithContext(ctx).Debug("access credential reissued",
		observability.String("user_id", userID),
		observability.Int64("expires_in", cred.ExpiresIn),
	)
	return cred, nil
}

func (c *Client) execute(ctx context.Context, userID, refreshToken string) (*AccessCredential, error) {
	if c.breaker == nil {
		return c.do(ctx, userID, refreshToken)
	}
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, userID, refreshToken)
	})
	if err != nil {
		return nil, err
	}
	return res.(*AccessCredential), nil
}

func (c *Client) do(ctx context.Context, userID, refreshToken string) (*AccessCredential, error) {
	body, err := json.Marshal(reissueRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, reissueFailed(0, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, reissueFailed(0, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(c.userIDHeader, userID)
	observability.InjectTraceContext(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, reissueFailed(0, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		return nil, reissueFailed(resp.StatusCode, "unexpected response", errors.New(truncate(respBody, 256)))
	}

	var cred AccessCredential
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&cred); err != nil {
		return nil, reissueFailed(resp.StatusCode, "failed to decode response", err)
	}
	if cred.AccessToken == "" {
		return nil, reissueFailed(resp.StatusCode, "response has no access token", nil)
	}
	return &cred, nil
}

func (c *Client) fail(ctx context.Context, span trace.Span, userID string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.logger.WithContext(ctx).Warn("credential reissue failed",
		observability.String("user_id", userID),
		observability.Error(err),
	)
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
