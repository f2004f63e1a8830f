// Package main is the entry point for the ACL gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/vyrodovalexey/aclgw/internal/config"
	"github.com/vyrodovalexey/aclgw/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags. Empty log settings defer to the
// configuration file.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags(flag.CommandLine, os.Args[1:])

	if flags.showVersion {
		printVersion()
		return
	}

	logger := initLogger(logConfigFor(flags, nil))

	cfg, err := loadAndValidateConfig(flags.configPath, logger)
	if err != nil {
		fatalWithSync(logger, "failed to load configuration", observability.Error(err))
	}

	if lc := logConfigFor(flags, cfg); lc != logConfigFor(flags, nil) {
		_ = logger.Sync()
		logger = initLogger(lc)
	}
	defer func() { _ = logger.Sync() }()

	app, err := newApplication(context.Background(), cfg, logger)
	if err != nil {
		fatalWithSync(logger, "failed to initialize gateway", observability.Error(err))
	}

	runGateway(app, flags.configPath)
}

// parseFlags parses command line flags.
func parseFlags(fs *flag.FlagSet, args []string) cliFlags {
	configPath := fs.String("config", getEnvOrDefault("ACLGW_CONFIG_PATH", "configs/aclgw.yaml"),
		"Path to configuration file")
	logLevel := fs.String("log-level", getEnvOrDefault("ACLGW_LOG_LEVEL", ""),
		"Log level (debug, info, warn, error); overrides the configuration file")
	logFormat := fs.String("log-format", getEnvOrDefault("ACLGW_LOG_FORMAT", ""),
		"Log format (json, console); overrides the configuration file")
	showVersion := fs.Bool("version", false, "Show version information")
	_ = fs.Parse(args)

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information.
func printVersion() {
	fmt.Printf("aclgw version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// logConfigFor merges flags over the configuration file over defaults.
func logConfigFor(flags cliFlags, cfg *config.GatewayConfig) observability.LogConfig {
	lc := observability.DefaultLogConfig()

	if cfg != nil && cfg.Spec.Observability != nil && cfg.Spec.Observability.Logging != nil {
		l := cfg.Spec.Observability.Logging
		if l.Level != "" {
			lc.Level = l.Level
		}
		if l.Format != "" {
			lc.Format = l.Format
		}
		if l.Output != "" {
			lc.Output = l.Output
		}
	}

	if flags.logLevel != "" {
		lc.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		lc.Format = flags.logFormat
	}
	return lc
}

// initLogger initializes the logger.
func initLogger(cfg observability.LogConfig) observability.Logger {
	logger, err := observability.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	observability.SetGlobalLogger(logger)
	return logger
}

// loadAndValidateConfig loads and validates the configuration.
func loadAndValidateConfig(configPath string, logger observability.Logger) (*config.GatewayConfig, error) {
	logger.Info("starting aclgw",
		observability.String("version", version),
		observability.String("config", configPath),
	)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("configuration loaded",
		observability.String("name", cfg.Metadata.Name),
		observability.String("http_address", cfg.Spec.Listeners.HTTP.Address),
		observability.Bool("grpc_enabled", cfg.GRPCEnabled()),
		observability.Int("clients", len(cfg.Spec.ACL.Clients)),
		observability.Int("anonymous_paths", len(cfg.Spec.ACL.AnonymousPaths)),
	)

	return cfg, nil
}

// fatalWithSync flushes the logger before exiting.
func fatalWithSync(logger observability.Logger, msg string, fields ...observability.Field) {
	_ = logger.Sync()
	logger.Fatal(msg, fields...)
}
