package interceptor

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/vyrodovalexey/aclgw/internal/observability"
)

// RequestIDKey is the default metadata key for the request ID.
const RequestIDKey = "x-request-id"

const healthServicePrefix = "/grpc.health.v1.Health/"

// LoggingConfig holds configuration for the logging interceptors.
type LoggingConfig struct {
	Logger          *zap.Logger
	SkipHealthCheck bool
	// RequestIDHeader names the metadata entry carrying the request ID.
	// Metadata keys are lower case; defaults to RequestIDKey.
	RequestIDHeader string
}

func (c *LoggingConfig) withDefaults() {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	c.RequestIDHeader = strings.ToLower(c.RequestIDHeader)
	if c.RequestIDHeader == "" {
		c.RequestIDHeader = RequestIDKey
	}
}

// UnaryLoggingWithConfig returns a unary interceptor that assigns a request
// ID and logs each call.
func UnaryLoggingWithConfig(config LoggingConfig) grpc.UnaryServerInterceptor {
	config.withDefaults()

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		requestID := requestIDFromMetadata(ctx, config.RequestIDHeader)
		ctx = observability.ContextWithRequestID(ctx, requestID)

		start := time.Now()
		resp, err := handler(ctx, req)

		if !(config.SkipHealthCheck && isHealthCheckMethod(info.FullMethod)) {
			logResult(config.Logger, "gRPC request", logFields(ctx, requestID, info.FullMethod, time.Since(start), err), err)
		}
		return resp, err
	}
}

// StreamLoggingWithConfig returns a stream interceptor that assigns a
// request ID and logs each stream.
func StreamLoggingWithConfig(config LoggingConfig) grpc.StreamServerInterceptor {
	config.withDefaults()

	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		requestID := requestIDFromMetadata(ss.Context(), config.RequestIDHeader)
		wrapped := &contextServerStream{
			ServerStream: ss,
			ctx:          observability.ContextWithRequestID(ss.Context(), requestID),
		}

		start := time.Now()
		err := handler(srv, wrapped)

		if !(config.SkipHealthCheck && isHealthCheckMethod(info.FullMethod)) {
			fields := logFields(wrapped.ctx, requestID, info.FullMethod, time.Since(start), err)
			fields = append(fields,
				zap.Bool("clientStream", info.IsClientStream),
				zap.Bool("serverStream", info.IsServerStream),
			)
			logResult(config.Logger, "gRPC stream", fields, err)
		}
		return err
	}
}

// GetRequestID returns the request ID assigned by the logging interceptor.
func GetRequestID(ctx context.Context) string {
	return observability.RequestIDFromContext(ctx)
}

func requestIDFromMetadata(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(key); len(values) > 0 && values[0] != "" {
			return values[0]
		}
	}
	return uuid.New().String()
}

func logFields(ctx context.Context, requestID, method string, latency time.Duration, err error) []zap.Field {
	st, _ := status.FromError(err)

	fields := []zap.Field{
		zap.String("requestID", requestID),
		zap.String("method", method),
		zap.Duration("latency", latency),
		zap.String("grpcCode", st.Code().String()),
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		fields = append(fields, zap.String("peer", p.Addr.String()))
	}
	return fields
}

func logResult(logger *zap.Logger, msg string, fields []zap.Field, err error) {
	if err != nil {
		logger.Warn(msg+" failed", fields...)
		return
	}
	logger.Info(msg+" completed", fields...)
}

func isHealthCheckMethod(method string) bool {
	return strings.HasPrefix(method, healthServicePrefix)
}
