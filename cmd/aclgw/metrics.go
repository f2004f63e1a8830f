package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vyrodovalexey/aclgw/internal/auth"
	"github.com/vyrodovalexey/aclgw/internal/config"
	"github.com/vyrodovalexey/aclgw/internal/observability"
)

// initMetricsServer creates the metrics listener when enabled. With
// metrics.authenticate set, the metrics path requires client credentials
// while the health endpoints stay anonymous.
func (app *application) initMetricsServer() {
	obs := app.config.Spec.Observability
	if obs == nil || obs.Metrics == nil || !obs.Metrics.Enabled {
		return
	}

	app.metricsServer = createMetricsServer(obs.Metrics, app)
}

// createMetricsServer creates the metrics HTTP server.
func createMetricsServer(cfg *config.MetricsConfig, app *application) *http.Server {
	path := cfg.Path
	if path == "" {
		path = config.DefaultMetricsPath
	}
	port := cfg.Port
	if port == 0 {
		port = config.DefaultMetricsPort
	}

	mux := http.NewServeMux()
	mux.Handle(path, app.metrics.Handler())
	mux.HandleFunc("/health", app.healthChecker.HealthHandler())
	mux.HandleFunc("/ready", app.healthChecker.ReadinessHandler())
	mux.HandleFunc("/live", app.healthChecker.LivenessHandler())

	var handler http.Handler = mux
	if cfg.Authenticate {
		handler = auth.HTTPMiddleware(app.authenticator,
			auth.WithRealm(app.config.Spec.ACL.Realm),
			auth.WithAnonymousPaths(auth.NewAnonymousSet(healthPaths)),
		)(mux)
	}

	addr := fmt.Sprintf(":%d", port)
	app.logger.Info("metrics server configured",
		observability.String("address", addr),
		observability.String("metrics_path", path),
		observability.Bool("authenticate", cfg.Authenticate),
	)

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// runMetricsServer runs the metrics HTTP server.
func runMetricsServer(server *http.Server, logger observability.Logger) {
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server error", observability.Error(err))
	}
}
