package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vyrodovalexey/aclgw/internal/observability"
)

// shutdownTimeout bounds the graceful drain of all listeners.
const shutdownTimeout = 30 * time.Second

// runGateway runs the gateway until a signal or a listener failure.
func runGateway(app *application, configPath string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := app.start(ctx)
	app.startConfigWatcher(ctx, configPath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		app.logger.Info("received shutdown signal", observability.String("signal", sig.String()))
	case err := <-errCh:
		app.logger.Error("listener failed, shutting down", observability.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	app.shutdown(shutdownCtx)
}

// start launches every listener. Listener failures are delivered on the
// returned channel.
func (app *application) start(ctx context.Context) <-chan error {
	errCh := make(chan error, 3)

	go func() {
		if err := app.httpServer.Start(ctx); err != nil {
			errCh <- fmt.Errorf("http listener: %w", err)
		}
	}()

	if app.grpcServer != nil {
		go func() {
			if err := app.grpcServer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("grpc listener: %w", err)
			}
		}()
	}

	if app.metricsServer != nil {
		go runMetricsServer(app.metricsServer, app.logger)
	}

	return errCh
}

// shutdown drains readiness first, then stops listeners, then releases
// background resources.
func (app *application) shutdown(ctx context.Context) {
	app.healthChecker.SetDraining(true)

	if app.watcher != nil {
		_ = app.watcher.Stop()
	}

	if app.grpcServer != nil {
		if err := app.grpcServer.Stop(ctx); err != nil {
			app.logger.Error("failed to stop gRPC server gracefully", observability.Error(err))
		}
	}

	if err := app.httpServer.Stop(ctx); err != nil {
		app.logger.Error("failed to stop HTTP server gracefully", observability.Error(err))
	}

	if app.metricsServer != nil {
		app.logger.Info("stopping metrics server")
		if err := app.metricsServer.Shutdown(ctx); err != nil {
			app.logger.Error("failed to stop metrics server gracefully", observability.Error(err))
		}
	}

	if app.rateLimiter != nil {
		app.rateLimiter.Stop()
	}

	if err := app.tracer.Shutdown(ctx); err != nil {
		app.logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	if err := app.auditLogger.Close(); err != nil {
		app.logger.Error("failed to close audit logger", observability.Error(err))
	}

	app.logger.Info("gateway stopped")
}
