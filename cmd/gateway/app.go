package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vyrodovalexey/authgw/internal/auth/jwt"
	"github.com/vyrodovalexey/authgw/internal/config"
	"github.com/vyrodovalexey/authgw/internal/filter"
	"github.com/vyrodovalexey/authgw/internal/gateway"
	"github.com/vyrodovalexey/authgw/internal/health"
	"github.com/vyrodovalexey/authgw/internal/observability"
	"github.com/vyrodovalexey/authgw/internal/refresh"
	"github.com/vyrodovalexey/authgw/internal/revocation"
	"github.com/vyrodovalexey/authgw/internal/vault"
)

// application holds all application components.
type application struct {
	gateway       *gateway.Gateway
	healthChecker *health.Checker
	metrics       *observability.Metrics
	metricsServer *http.Server
	tracer        *observability.Tracer
	store         *revocation.Store
	config        *config.GatewayConfig
}

// initApplication wires every component. Failures here are fatal: the
// gateway never starts without keys, the store or a valid route table.
func initApplication(cfg *config.GatewayConfig, logger observability.Logger) (*application, error) {
	ctx := context.Background()
	spec := &cfg.Spec

	metrics := observability.NewMetrics("gateway")
	metrics.SetBuildInfo(version, gitCommit, buildTime)

	tracer, err := initTracer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	vaultClient, err := initVault(spec, logger)
	if err != nil {
		return nil, err
	}

	jwtMetrics := jwt.NewMetrics("gateway")
	codec, err := initCodec(ctx, spec, vaultClient, jwtMetrics, logger)
	if err != nil {
		return nil, err
	}

	storeOpts := []revocation.Option{}
	if vaultClient != nil {
		storeOpts = append(storeOpts, revocation.WithPasswordSource(vaultClient))
	}
	store, err := revocation.New(ctx, &spec.Revocation, logger, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect revocation store: %w", err)
	}

	refresher := refresh.New(&spec.Refresh,
		refresh.WithLogger(logger),
		refresh.WithUserIDHeader(spec.Filter.UserIDHeader),
	)

	healthChecker := health.NewChecker(version, logger)
	healthChecker.Register(health.PingCheck("revocation-store", store))

	registerMetrics(metrics, jwtMetrics)

	builder := filter.NewBuilder(spec, codec, store, refresher, logger)
	handler, err := gateway.NewHandler(spec, gateway.HandlerDeps{
		Builder: builder,
		Logger:  logger,
		Metrics: metrics,
		Tracer:  tracer,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	gw, err := gateway.New(cfg,
		gateway.WithLogger(logger),
		gateway.WithRouteHandler(handler),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Info("authentication filter configured",
		observability.Strings("excludedPaths", builder.Exclusions().Paths()),
		observability.String("protectedPathPattern", spec.Filter.ProtectedPathPattern),
		observability.String("privilegedRole", spec.Filter.PrivilegedRole),
	)

	return &application{
		gateway:       gw,
		healthChecker: healthChecker,
		metrics:       metrics,
		tracer:        tracer,
		store:         store,
		config:        cfg,
	}, nil
}

// initTracer initializes the tracer.
func initTracer(cfg *config.GatewayConfig) (*observability.Tracer, error) {
	tracerCfg := observability.TracerConfig{
		ServiceName:  config.DefaultServiceName,
		SamplingRate: 1.0,
	}

	if obs := cfg.Spec.Observability; obs != nil && obs.Tracing != nil {
		tracerCfg.Enabled = obs.Tracing.Enabled
		tracerCfg.SamplingRate = obs.Tracing.SamplingRate
		tracerCfg.OTLPEndpoint = obs.Tracing.OTLPEndpoint
		if obs.Tracing.ServiceName != "" {
			tracerCfg.ServiceName = obs.Tracing.ServiceName
		}
	}

	return observability.NewTracer(tracerCfg)
}

// initVault returns nil when no vault is configured.
func initVault(spec *config.GatewaySpec, logger observability.Logger) (*vault.Client, error) {
	if spec.Vault == nil {
		return nil, nil
	}
	client, err := vault.New(spec.Vault, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	return client, nil
}

func initCodec(
	ctx context.Context,
	spec *config.GatewaySpec,
	vaultClient *vault.Client,
	metrics *jwt.Metrics,
	logger observability.Logger,
) (*jwt.Codec, error) {
	var secrets jwt.SecretReader
	if vaultClient != nil {
		secrets = vaultClient
	}

	keys, err := jwt.LoadKeySet(ctx, &spec.JWT, secrets, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load verification keys: %w", err)
	}

	codec, err := jwt.NewCodecFromConfig(keys, &spec.JWT,
		jwt.WithCodecLogger(logger),
		jwt.WithCodecMetrics(metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential codec: %w", err)
	}
	return codec, nil
}
