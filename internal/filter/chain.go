package filter

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/authgw/internal/config"
	"github.com/vyrodovalexey/authgw/internal/observability"
)

const tracerName = "github.com/vyrodovalexey/authgw/internal/filter"

// Chain runs the stages configured for one route.
type Chain struct {
	route        string
	stages       []Stage
	exclusions   *ExclusionSet
	userIDHeader string
	logger       observability.Logger
	metrics      *Metrics
}

// ChainOption is a functional option for NewChain.
type ChainOption func(*Chain)

// WithChainLogger sets the logger.
func WithChainLogger(logger observability.Logger) ChainOption {
	return func(c *Chain) {
		c.logger = logger
	}
}

// WithExclusions sets the public paths that bypass the chain.
func WithExclusions(set *ExclusionSet) ChainOption {
	return func(c *Chain) {
		c.exclusions = set
	}
}

// WithUserIDHeader sets the trusted header that inbound requests may not
// supply themselves.
func WithUserIDHeader(name string) ChainOption {
	return func(c *Chain) {
		c.userIDHeader = name
	}
}

// NewChain creates a chain for route. Stages are sorted into their fixed
// execution order whatever order they are passed in.
func NewChain(route string, stages []Stage, opts ...ChainOption) *Chain {
	sorted := append([]Stage(nil), stages...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order() < sorted[j].Order()
	})

	c := &Chain{
		route:        route,
		stages:       sorted,
		userIDHeader: config.DefaultUserIDHeader,
		logger:       observability.NopLogger(),
		metrics:      GetMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Route returns the route name.
func (c *Chain) Route() string {
	return c.route
}

// StageNames returns the stage names in execution order.
func (c *Chain) StageNames() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name()
	}
	return names
}

// Run applies the chain to r. It returns the exchange and the outcome of the
// first rejecting stage, or Continue.
func (c *Chain) Run(r *http.Request) (*Exchange, Outcome) {
	r.Header.Del(c.userIDHeader)
	ex := NewExchange(r)

	if c.exclusions.IsExcluded(r.URL.Path) {
		c.metrics.decisionsTotal.WithLabelValues("chain", decisionExcluded).Inc()
		return ex, Continue()
	}

	for _, stage := range c.stages {
		if out := c.apply(stage, ex); out.Rejected() {
			return ex, out
		}
	}
	return ex, Continue()
}

func (c *Chain) apply(stage Stage, ex *Exchange) Outcome {
	parent := ex.Context()
	ctx, span := otel.Tracer(tracerName).Start(parent, "filter."+stage.Name(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("filter.route", c.route),
			attribute.String("http.path", ex.Path()),
		),
	)
	defer span.End()
	ex.Request = ex.Request.WithContext(ctx)
	defer func() { ex.Request = ex.Request.WithContext(parent) }()

	start := time.Now()
	out := stage.Apply(ex)
	c.metrics.stageDuration.WithLabelValues(stage.Name()).Observe(time.Since(start).Seconds())
	c.metrics.decisionsTotal.WithLabelValues(stage.Name(), out.decision()).Inc()

	if !out.Rejected() {
		return out
	}

	span.SetAttributes(
		attribute.Int("filter.status", out.Status),
		attribute.String("filter.reason", out.Reason),
	)
	c.logDecision(ctx, stage, ex, out)
	if out.Err != nil {
		span.RecordError(out.Err)
		if out.Status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, out.Reason)
		}
	}
	return out
}

func (c *Chain) logDecision(ctx context.Context, stage Stage, ex *Exchange, out Outcome) {
	fields := []observability.Field{
		observability.String("stage", stage.Name()),
		observability.String("route", c.route),
		observability.String("path", ex.Path()),
		observability.Int("status", out.Status),
		observability.String("reason", out.Reason),
	}
	if out.Err != nil {
		fields = append(fields, observability.Error(out.Err))
	}

	logger := c.logger.WithContext(ctx)
	if out.Status >= http.StatusInternalServerError {
		logger.Error("filter chain aborted", fields...)
		return
	}
	logger.Debug("request rejected", fields...)
}

// Handler returns next wrapped by the chain. Rejections are written as a
// bare status with an empty body.
func (c *Chain) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ex, out := c.Run(r)
		cw := newCommitWriter(w, ex.StagedResponseHeaders())

		if out.Rejected() {
			cw.WriteHeader(out.Status)
			return
		}

		next.ServeHTTP(cw, ex.Request)
		// a handler that wrote nothing still gets the staged headers
		cw.commit()
	})
}

// Builder creates chains from configuration. The exclusion set and the
// protected path pattern are compiled once and shared by every chain.
type Builder struct {
	spec       *config.GatewaySpec
	codec      CredentialCodec
	store      RevocationStore
	reissuer   Reissuer
	exclusions *ExclusionSet
	logger     observability.Logger
}

// NewBuilder creates a chain builder.
func NewBuilder(
	spec *config.GatewaySpec,
	codec CredentialCodec,
	store RevocationStore,
	reissuer Reissuer,
	logger observability.Logger,
) *Builder {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Builder{
		spec:       spec,
		codec:      codec,
		store:      store,
		reissuer:   reissuer,
		exclusions: ParseExclusionSet(spec.Filter.ExcludePaths),
		logger:     logger.With(observability.String("component", "filter")),
	}
}

// Exclusions returns the shared exclusion set.
func (b *Builder) Exclusions() *ExclusionSet {
	return b.exclusions
}

// Build creates the chain for route.
func (b *Builder) Build(route *config.Route) (*Chain, error) {
	f := &b.spec.Filter
	prefix := b.spec.JWT.TokenPrefix

	stages := make([]Stage, 0, len(route.Filters))
	for _, name := range route.Filters {
		switch name {
		case config.FilterHeader:
			stages = append(stages, NewHeaderPresence())
		case config.FilterVerify:
			stages = append(stages, NewVerification(b.codec, b.store, b.reissuer, VerificationConfig{
				TokenPrefix:        prefix,
				RefreshTokenSource: f.RefreshTokenSource,
				RefreshTokenHeader: f.RefreshTokenHeader,
				InvalidTokenStatus: f.InvalidTokenStatus,
			}, b.logger))
		case config.FilterIdentity:
			stages = append(stages, NewIdentity(b.codec, prefix, f.UserIDHeader))
		case config.FilterRole:
			rc, err := NewRoleCheck(b.codec, prefix, f.ProtectedPathPattern, f.PrivilegedRole)
			if err != nil {
				return nil, err
			}
			stages = append(stages, rc)
		default:
			return nil, fmt.Errorf("route %s: unknown filter %q", route.Name, name)
		}
	}

	chain := NewChain(route.Name, stages,
		WithExclusions(b.exclusions),
		WithUserIDHeader(f.UserIDHeader),
		WithChainLogger(b.logger),
	)
	b.logger.Info("filter chain built",
		observability.String("route", route.Name),
		observability.Strings("stages", chain.StageNames()),
	)
	return chain, nil
}
