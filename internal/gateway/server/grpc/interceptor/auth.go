// Package interceptor provides the gRPC interceptors of the gateway.
package interceptor

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/vyrodovalexey/aclgw/internal/audit"
	"github.com/vyrodovalexey/aclgw/internal/auth"
)

// AuthConfig holds configuration for the auth interceptors.
type AuthConfig struct {
	Authenticator auth.Authenticator
	// Anonymous matches full method names ("/pkg.Service/Method").
	Anonymous *auth.AnonymousSet
	Logger    *zap.Logger
	Audit     audit.Logger
}

// UnaryAuth returns a unary interceptor that authenticates every call that is
// not anonymous.
func UnaryAuth(config AuthConfig) grpc.UnaryServerInterceptor {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Audit == nil {
		config.Audit = audit.NewNoopLogger()
	}

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		ctx, err := authenticate(ctx, info.FullMethod, config)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamAuth returns a stream interceptor that authenticates every stream
// that is not anonymous.
func StreamAuth(config AuthConfig) grpc.StreamServerInterceptor {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Audit == nil {
		config.Audit = audit.NewNoopLogger()
	}

	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := authenticate(ss.Context(), info.FullMethod, config)
		if err != nil {
			return err
		}
		return handler(srv, &contextServerStream{ServerStream: ss, ctx: ctx})
	}
}

func authenticate(ctx context.Context, method string, config AuthConfig) (context.Context, error) {
	result := config.Authenticator.Authenticate(
		config.Anonymous.Allows(method),
		authorizationFromMetadata(ctx),
	)

	switch result.Outcome {
	case auth.OutcomeSuccess:
		identity := result.Identity()
		config.Audit.LogAuthentication(ctx, audit.OutcomeSuccess, auditSubject(ctx, identity.Name()), auditResource(method))
		return auth.ContextWithIdentity(ctx, identity), nil
	case auth.OutcomeNoResult:
		return ctx, nil
	default:
		config.Audit.LogAuthentication(ctx, audit.OutcomeFailure, auditSubject(ctx, ""), auditResource(method))
		config.Logger.Debug("call rejected",
			zap.String("requestID", GetRequestID(ctx)),
			zap.String("method", method),
		)
		return ctx, status.Error(codes.Unauthenticated, auth.FailureMessage)
	}
}

func auditSubject(ctx context.Context, clientID string) *audit.Subject {
	subject := &audit.Subject{ClientID: clientID, AuthMethod: string(auth.AuthTypeBasic)}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		subject.IPAddress = p.Addr.String()
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ua := md.Get("user-agent"); len(ua) > 0 {
			subject.UserAgent = ua[0]
		}
	}
	return subject
}

func auditResource(method string) *audit.Resource {
	return &audit.Resource{Service: "grpc", Path: method}
}

// authorizationFromMetadata returns the first authorization value, or "".
func authorizationFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(auth.MetadataAuthorization); len(values) > 0 {
		return values[0]
	}
	return ""
}

// contextServerStream overrides the context of a wrapped stream.
type contextServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *contextServerStream) Context() context.Context {
	return s.ctx
}
