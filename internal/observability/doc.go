// Package observability provides logging, metrics, and tracing
// functionality for the gateway.
//
// # Logging
//
// The Logger interface wraps zap:
//
//	logger, err := observability.NewLogger(observability.DefaultLogConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("registry published",
//	    observability.Uint64("generation", 3),
//	    observability.Int("clients", 12),
//	)
//
// Request, trace, and span IDs stored in a context are attached by
// Logger.WithContext.
//
// # Metrics
//
// Metrics owns the Prometheus registry served on the metrics listener.
// Subsystems register collectors through Metrics.Registerer.
//
// # Tracing
//
// Tracer exports spans over OTLP/gRPC when enabled and falls back to the
// global provider otherwise.
package observability
