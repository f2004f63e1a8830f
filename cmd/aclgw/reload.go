package main

import (
	"context"
	"reflect"
	"time"

	"github.com/vyrodovalexey/aclgw/internal/auth/basic"
	"github.com/vyrodovalexey/aclgw/internal/config"
	"github.com/vyrodovalexey/aclgw/internal/observability"
)

// reloadTimeout bounds secret resolution during a registry rebuild.
const reloadTimeout = 30 * time.Second

// reloadRegistry rebuilds the client registry from cfg. On any error the
// current generation stays published. cfg's inline secrets are cleared
// before returning.
func (app *application) reloadRegistry(ctx context.Context, cfg *config.GatewayConfig) error {
	app.reloadMu.Lock()
	defer app.reloadMu.Unlock()
	defer cfg.ClearSecrets()

	ctx, span := app.tracer.StartSpan(ctx, "registry.rebuild")
	defer span.End()
	ctx = observability.ContextWithSpan(ctx, span)
	logger := app.logger.WithContext(ctx)

	// compared with the startup configuration: nothing outside the client
	// table is ever applied
	if fields := restartRequired(app.config, cfg); len(fields) > 0 {
		logger.Warn("configuration changes require a restart and were not applied",
			observability.Strings("fields", fields),
		)
	}

	ctx, cancel := context.WithTimeout(ctx, reloadTimeout)
	defer cancel()

	start := time.Now()

	records, err := basic.RecordsFromConfig(ctx, cfg.Spec.ACL.Clients, app.resolver)
	if err != nil {
		app.rebuildFailed(ctx, logger, err)
		return err
	}

	registry, err := app.cache.Rebuild(records)
	basic.WipeSecrets(records)
	if err != nil {
		app.rebuildFailed(ctx, logger, err)
		return err
	}

	app.authMetrics.RecordRebuild(true)
	app.authMetrics.SetRegistry(registry.Generation(), registry.Len())
	app.auditLogger.LogConfigReload(ctx, registry.Generation(), registry.Len(), nil)

	logger.Info("client registry rebuilt",
		observability.Uint64("generation", registry.Generation()),
		observability.Int("clients", registry.Len()),
		observability.Duration("duration", time.Since(start)),
	)
	logger.Debug("registered clients", observability.Strings("client_ids", registry.ClientIDs()))
	return nil
}

func (app *application) rebuildFailed(ctx context.Context, logger observability.Logger, err error) {
	generation := app.cache.Snapshot().Generation()
	app.authMetrics.RecordRebuild(false)
	app.auditLogger.LogConfigReload(ctx, generation, 0, err)
	logger.Error("client registry rebuild failed, keeping current generation",
		observability.Uint64("generation", generation),
		observability.Error(err),
	)
}

// restartRequired lists the sections of next that differ from prev but
// are only read at startup.
func restartRequired(prev, next *config.GatewayConfig) []string {
	if prev == nil || next == nil {
		return nil
	}

	var fields []string
	check := func(name string, a, b interface{}) {
		if !reflect.DeepEqual(a, b) {
			fields = append(fields, name)
		}
	}

	check("spec.listeners", prev.Spec.Listeners, next.Spec.Listeners)
	check("spec.acl.realm", prev.Spec.ACL.Realm, next.Spec.ACL.Realm)
	check("spec.acl.anonymousPaths", prev.Spec.ACL.AnonymousPaths, next.Spec.ACL.AnonymousPaths)
	check("spec.acl.anonymousMethods", prev.Spec.ACL.AnonymousMethods, next.Spec.ACL.AnonymousMethods)
	check("spec.acl.timingSafeCompare", prev.Spec.ACL.TimingSafeCompare, next.Spec.ACL.TimingSafeCompare)
	check("spec.secrets", prev.Spec.Secrets, next.Spec.Secrets)
	check("spec.rateLimit", prev.Spec.RateLimit, next.Spec.RateLimit)
	check("spec.observability", prev.Spec.Observability, next.Spec.Observability)

	return fields
}

// startConfigWatcher watches configPath and rebuilds the registry on
// every validated change. A watcher that cannot start is logged and the
// gateway keeps serving its current registry.
func (app *application) startConfigWatcher(ctx context.Context, configPath string) {
	watcher, err := config.NewWatcher(configPath, func(newCfg *config.GatewayConfig) {
		app.logger.Info("configuration changed, rebuilding client registry")
		_ = app.reloadRegistry(ctx, newCfg)
	},
		config.WithLogger(app.logger),
		config.WithErrorCallback(func(err error) {
			app.logger.Error("configuration reload rejected", observability.Error(err))
		}),
	)
	if err != nil {
		app.logger.Warn("failed to create config watcher", observability.Error(err))
		return
	}

	if err := watcher.Start(ctx); err != nil {
		app.logger.Warn("failed to start config watcher", observability.Error(err))
		_ = watcher.Stop()
		return
	}

	app.watcher = watcher
}
