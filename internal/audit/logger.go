package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/aclgw/internal/auth"
	"github.com/vyrodovalexey/aclgw/internal/config"
	"github.com/vyrodovalexey/aclgw/internal/observability"
)

const formatText = "text"

// Logger is the audit logger interface.
type Logger interface {
	// LogEvent logs an audit event.
	LogEvent(ctx context.Context, event *Event)

	// LogAuthentication logs an accepted or rejected credential.
	LogAuthentication(ctx context.Context, outcome Outcome, subject *Subject, resource *Resource)

	// LogConfigReload logs a client table rebuild. A nil err means success.
	LogConfigReload(ctx context.Context, generation uint64, clients int, err error)

	// Close closes the logger.
	Close() error
}

type logger struct {
	config    *config.AuditConfig
	skipPaths *auth.AnonymousSet
	writer    io.Writer
	mu        sync.Mutex
	logger    observability.Logger
	metrics   *Metrics
	closer    io.Closer
}

// LoggerOption is a functional option for the logger.
type LoggerOption func(*logger)

// WithLoggerLogger sets the observability logger used for write errors.
func WithLoggerLogger(l observability.Logger) LoggerOption {
	return func(lg *logger) {
		lg.logger = l
	}
}

// WithLoggerMetrics sets the metrics.
func WithLoggerMetrics(metrics *Metrics) LoggerOption {
	return func(lg *logger) {
		lg.metrics = metrics
	}
}

// WithLoggerWriter sets the writer, overriding the configured output.
func WithLoggerWriter(writer io.Writer) LoggerOption {
	return func(lg *logger) {
		lg.writer = writer
	}
}

// WithLoggerRegisterer registers audit metrics with the given registerer
// so they appear on the gateway's /metrics endpoint.
func WithLoggerRegisterer(registerer prometheus.Registerer) LoggerOption {
	return func(lg *logger) {
		lg.metrics = NewMetricsWithRegisterer("gateway", registerer)
	}
}

// NewLogger creates a new audit logger. A nil or disabled configuration
// yields a no-op logger.
func NewLogger(cfg *config.AuditConfig, opts ...LoggerOption) (Logger, error) {
	if cfg == nil || !cfg.Enabled {
		return NewNoopLogger(), nil
	}

	l := &logger{
		config:    cfg,
		skipPaths: auth.NewAnonymousSet(cfg.SkipPaths),
		logger:    observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.metrics == nil {
		l.metrics = NewMetrics("gateway")
	}

	if l.writer == nil {
		writer, closer, err := createWriter(cfg.Output)
		if err != nil {
			return nil, err
		}
		l.writer = writer
		l.closer = closer
	}

	return l, nil
}

func createWriter(output string) (io.Writer, io.Closer, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	default:
		//nolint:gosec // G304: path from config is trusted
		file, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open audit log file: %w", err)
		}
		return file, file, nil
	}
}

// LogEvent logs an audit event.
func (l *logger) LogEvent(ctx context.Context, event *Event) {
	if !l.shouldAudit(event) {
		return
	}

	if event.Resource != nil && l.skipPaths.Allows(event.Resource.Path) {
		return
	}

	if event.RequestID == "" {
		event.RequestID = observability.RequestIDFromContext(ctx)
	}
	sc := trace.SpanContextFromContext(ctx)
	if event.TraceID == "" && sc.HasTraceID() {
		event.TraceID = sc.TraceID().String()
	}
	if event.SpanID == "" && sc.HasSpanID() {
		event.SpanID = sc.SpanID().String()
	}

	l.metrics.RecordEvent(event.Type, event.Action, event.Outcome)

	l.writeEvent(event)
}

func (l *logger) shouldAudit(event *Event) bool {
	events := l.config.Events
	if events == nil {
		return true
	}
	switch event.Type {
	case EventTypeAuthentication:
		return events.Authentication
	case EventTypeConfiguration:
		return events.Configuration
	default:
		return true
	}
}

func (l *logger) writeEvent(event *Event) {
	var output []byte

	if l.config.Format == formatText {
		output = []byte(renderText(event))
	} else {
		var err error
		output, err = json.Marshal(event)
		if err != nil {
			l.logger.Error("failed to marshal audit event", zap.Error(err))
			return
		}
		output = append(output, '\n')
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.writer.Write(output); err != nil {
		l.logger.Error("failed to write audit event", zap.Error(err))
	}
}

func renderText(event *Event) string {
	var sb strings.Builder

	sb.WriteString(event.Timestamp.Format(time.RFC3339))
	sb.WriteString(" ")
	sb.WriteString(string(event.Level))
	sb.WriteString(" ")
	sb.WriteString(string(event.Type))
	sb.WriteString(" ")
	sb.WriteString(string(event.Action))
	sb.WriteString(" ")
	sb.WriteString(string(event.Outcome))

	if s := event.Subject; s != nil {
		if s.ClientID != "" {
			sb.WriteString(" client=")
			sb.WriteString(s.ClientID)
		}
		if s.IPAddress != "" {
			sb.WriteString(" ip=")
			sb.WriteString(s.IPAddress)
		}
	}

	if r := event.Resource; r != nil {
		sb.WriteString(" resource=")
		if r.Method != "" {
			sb.WriteString(r.Method)
			sb.WriteString(" ")
		}
		sb.WriteString(r.Path)
	}

	if g, ok := event.Metadata["generation"].(uint64); ok {
		sb.WriteString(" generation=")
		sb.WriteString(strconv.FormatUint(g, 10))
	}

	if event.RequestID != "" {
		sb.WriteString(" request_id=")
		sb.WriteString(event.RequestID)
	}

	if event.TraceID != "" {
		sb.WriteString(" trace_id=")
		sb.WriteString(event.TraceID)
	}

	if event.Error != "" {
		sb.WriteString(" error=")
		sb.WriteString(strconv.Quote(event.Error))
	}

	sb.WriteString("\n")
	return sb.String()
}

// LogAuthentication logs an authentication event.
func (l *logger) LogAuthentication(ctx context.Context, outcome Outcome, subject *Subject, resource *Resource) {
	l.LogEvent(ctx, AuthenticationEvent(outcome, subject, resource))
}

// LogConfigReload logs a configuration reload event.
func (l *logger) LogConfigReload(ctx context.Context, generation uint64, clients int, err error) {
	l.LogEvent(ctx, ConfigReloadEvent(generation, clients, err))
}

// Close closes the logger.
func (l *logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

type noopLogger struct{}

// NewNoopLogger creates a new no-op audit logger.
func NewNoopLogger() Logger {
	return &noopLogger{}
}

func (l *noopLogger) LogEvent(_ context.Context, _ *Event) {}

func (l *noopLogger) LogAuthentication(_ context.Context, _ Outcome, _ *Subject, _ *Resource) {}

func (l *noopLogger) LogConfigReload(_ context.Context, _ uint64, _ int, _ error) {}

func (l *noopLogger) Close() error { return nil }

var (
	_ Logger = (*logger)(nil)
	_ Logger = (*noopLogger)(nil)
)
