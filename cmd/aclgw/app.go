package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"google.golang.org/grpc"

	"github.com/vyrodovalexey/aclgw/internal/audit"
	"github.com/vyrodovalexey/aclgw/internal/auth"
	"github.com/vyrodovalexey/aclgw/internal/auth/basic"
	"github.com/vyrodovalexey/aclgw/internal/config"
	grpcserver "github.com/vyrodovalexey/aclgw/internal/gateway/server/grpc"
	"github.com/vyrodovalexey/aclgw/internal/gateway/server/grpc/interceptor"
	httpserver "github.com/vyrodovalexey/aclgw/internal/gateway/server/http"
	"github.com/vyrodovalexey/aclgw/internal/gateway/server/http/middleware"
	"github.com/vyrodovalexey/aclgw/internal/health"
	"github.com/vyrodovalexey/aclgw/internal/observability"
	"github.com/vyrodovalexey/aclgw/internal/secrets"
)

const metricsNamespace = "gateway"

// healthPaths are served without credentials on every HTTP listener.
var healthPaths = []string{"/health", "/ready", "/live"}

// grpcHealthMethods are served without credentials on the gRPC listener.
const grpcHealthMethods = "/grpc.health.v1.Health/*"

// application holds all application components. config is the startup
// configuration with its inline secrets cleared; settings outside the
// client table are only read from it.
type application struct {
	config        *config.GatewayConfig
	logger        observability.Logger
	metrics       *observability.Metrics
	authMetrics   *auth.Metrics
	resolver      *secrets.Resolver
	cache         *basic.TicketCache
	authenticator *basic.Authenticator
	tracer        *observability.Tracer
	auditLogger   audit.Logger
	healthChecker *health.Checker
	httpServer    *httpserver.Server
	grpcServer    *grpcserver.Server
	metricsServer *http.Server
	rateLimiter   *middleware.RateLimiter
	watcher       *config.Watcher

	// reloadMu serializes registry rebuilds.
	reloadMu sync.Mutex
}

// newApplication builds every component from a validated configuration.
// A client table that cannot be resolved or validated is an error; nothing
// is served in that case.
func newApplication(ctx context.Context, cfg *config.GatewayConfig, logger observability.Logger) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		metrics: observability.NewMetrics(metricsNamespace),
	}
	app.metrics.SetBuildInfo(version, gitCommit, buildTime)

	if err := app.initRegistry(ctx); err != nil {
		return nil, err
	}

	tracer, err := initTracer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	app.tracer = tracer

	auditLogger, err := audit.NewLogger(cfg.Spec.Observability.Audit,
		audit.WithLoggerLogger(logger),
		audit.WithLoggerRegisterer(app.metrics.Registerer()),
	)
	if err != nil {
		_ = tracer.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize audit logger: %w", err)
	}
	app.auditLogger = auditLogger

	app.initHealth()
	app.initHTTPServer()
	if cfg.GRPCEnabled() {
		app.initGRPCServer()
	}
	app.initMetricsServer()

	return app, nil
}

// initRegistry resolves client secrets and publishes generation 0.
func (app *application) initRegistry(ctx context.Context) error {
	zl := observability.Zap(app.logger)

	resolver, err := secrets.NewResolverFromConfig(
		app.config.Spec.Secrets,
		zl,
		secrets.NewMetrics(metricsNamespace, app.metrics.Registerer()),
	)
	if err != nil {
		return err
	}
	app.resolver = resolver

	records, err := basic.RecordsFromConfig(ctx, app.config.Spec.ACL.Clients, resolver)
	if err != nil {
		return err
	}

	cache, err := basic.NewTicketCache(records)
	basic.WipeSecrets(records)
	if err != nil {
		return err
	}
	app.cache = cache
	app.config.ClearSecrets()

	app.authMetrics = auth.NewMetricsWithRegisterer(metricsNamespace, app.metrics.Registerer())
	app.authenticator = basic.NewAuthenticator(cache,
		basic.WithLogger(app.logger),
		basic.WithMetrics(app.authMetrics),
		basic.WithTimingSafeCompare(app.config.Spec.ACL.TimingSafeCompare),
	)

	snapshot := cache.Snapshot()
	app.authMetrics.SetRegistry(snapshot.Generation(), snapshot.Len())

	app.logger.Info("client registry published",
		observability.Uint64("generation", snapshot.Generation()),
		observability.Int("clients", snapshot.Len()),
		observability.Bool("timing_safe_compare", app.config.Spec.ACL.TimingSafeCompare),
	)
	app.logger.Debug("registered clients", observability.Strings("client_ids", snapshot.ClientIDs()))
	return nil
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

func (app *application) initHealth() {
	app.healthChecker = health.NewChecker(version, app.logger,
		health.WithMetrics(health.NewMetrics(metricsNamespace, app.metrics.Registerer())),
	)
	app.healthChecker.RegisterCheck("registry", health.RegistryCheck(app.registrySnapshot))
}

// registrySnapshot reports the published registry for the health check.
func (app *application) registrySnapshot() (uint64, int, bool) {
	if app.cache == nil {
		return 0, 0, false
	}
	snapshot := app.cache.Snapshot()
	return snapshot.Generation(), snapshot.Len(), true
}

// initHTTPServer builds the gin listener with the middleware chain
// RequestID, SecurityHeaders, Metrics, Tracing, Recovery, Logging,
// RateLimit, Auth.
func (app *application) initHTTPServer() {
	zl := observability.Zap(app.logger)
	spec := app.config.Spec

	srv := httpserver.NewServer(httpserver.ServerConfigFromListener(spec.Listeners.HTTP), zl)

	serviceName := config.DefaultServiceName
	if spec.Observability != nil && spec.Observability.Tracing != nil && spec.Observability.Tracing.ServiceName != "" {
		serviceName = spec.Observability.Tracing.ServiceName
	}

	srv.Use(
		middleware.RequestID(spec.Observability.TraceHeader),
		middleware.SecurityHeaders(),
		middleware.Metrics(middleware.NewHTTPMetrics(metricsNamespace, app.metrics.Registerer())),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: serviceName,
			SkipPaths:   healthPaths,
		}),
		middleware.Recovery(zl),
		middleware.LoggingWithConfig(middleware.LoggingConfig{
			Logger:          zl,
			SkipHealthCheck: true,
		}),
	)

	if rl := spec.RateLimit; rl != nil && rl.Enabled {
		app.rateLimiter = middleware.NewRateLimiter(rl, zl)
		app.rateLimiter.StartAutoCleanup()
		srv.Use(middleware.RateLimit(app.rateLimiter))
	}

	srv.Use(middleware.Auth(middleware.AuthConfig{
		Authenticator: app.authenticator,
		Anonymous:     auth.NewAnonymousSet(append(append([]string{}, healthPaths...), spec.ACL.AnonymousPaths...)),
		Realm:         spec.ACL.Realm,
		Logger:        zl,
		Audit:         app.auditLogger,
	}))

	srv.RegisterHealth(app.healthChecker)
	srv.RegisterAPI()

	app.httpServer = srv
}

// initGRPCServer builds the gRPC listener with the interceptor chain
// Recovery, Logging, Auth.
func (app *application) initGRPCServer() {
	zl := observability.Zap(app.logger)
	spec := app.config.Spec

	authConfig := interceptor.AuthConfig{
		Authenticator: app.authenticator,
		Anonymous:     auth.NewAnonymousSet(append([]string{grpcHealthMethods}, spec.ACL.AnonymousMethods...)),
		Logger:        zl,
		Audit:         app.auditLogger,
	}
	loggingConfig := interceptor.LoggingConfig{
		Logger:          zl,
		SkipHealthCheck: true,
		RequestIDHeader: spec.Observability.TraceHeader,
	}

	cfg := grpcserver.ServerConfigFromListener(spec.Listeners.GRPC)
	cfg.UnaryInterceptors = []grpc.UnaryServerInterceptor{
		interceptor.UnaryRecovery(zl),
		interceptor.UnaryLoggingWithConfig(loggingConfig),
		interceptor.UnaryAuth(authConfig),
	}
	cfg.StreamInterceptors = []grpc.StreamServerInterceptor{
		interceptor.StreamRecovery(zl),
		interceptor.StreamLoggingWithConfig(loggingConfig),
		interceptor.StreamAuth(authConfig),
	}

	app.grpcServer = grpcserver.NewServer(cfg, zl)
}
