package interceptor

import (
	"context"
	"runtime/debug"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RecoveryConfig holds configuration for the recovery interceptors.
type RecoveryConfig struct {
	Logger           *zap.Logger
	EnableStackTrace bool
}

// UnaryRecovery returns a unary interceptor that turns panics into
// codes.Internal.
func UnaryRecovery(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return UnaryRecoveryWithConfig(RecoveryConfig{Logger: logger, EnableStackTrace: true})
}

// UnaryRecoveryWithConfig returns a unary recovery interceptor with custom configuration.
func UnaryRecoveryWithConfig(config RecoveryConfig) grpc.UnaryServerInterceptor {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			if p := recover(); p != nil {
				err = handlePanic(ctx, p, info.FullMethod, config)
			}
		}()

		return handler(ctx, req)
	}
}

// StreamRecovery returns a stream interceptor that turns panics into
// codes.Internal.
func StreamRecovery(logger *zap.Logger) grpc.StreamServerInterceptor {
	return StreamRecoveryWithConfig(RecoveryConfig{Logger: logger, EnableStackTrace: true})
}

// StreamRecoveryWithConfig returns a stream recovery interceptor with custom configuration.
func StreamRecoveryWithConfig(config RecoveryConfig) grpc.StreamServerInterceptor {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = handlePanic(ss.Context(), p, info.FullMethod, config)
			}
		}()

		return handler(srv, ss)
	}
}

func handlePanic(ctx context.Context, p interface{}, method string, config RecoveryConfig) error {
	fields := []zap.Field{
		zap.Any("panic", p),
		zap.String("method", method),
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("requestID", requestID))
	}
	if config.EnableStackTrace {
		fields = append(fields, zap.ByteString("stack", debug.Stack()))
	}

	config.Logger.Error("gRPC panic recovered", fields...)

	return status.Error(codes.Internal, "internal server error")
}
