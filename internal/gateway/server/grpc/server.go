// Package grpc provides the gRPC listener of the gateway.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/vyrodovalexey/aclgw/internal/config"
)

// HealthCheckMethod is the full name of the standard health Check RPC.
const HealthCheckMethod = "/grpc.health.v1.Health/Check"

// Server is the gRPC listener. It serves the standard health service and
// optionally reflection behind the configured interceptor chain.
type Server struct {
	grpcServer   *grpc.Server
	healthServer *health.Server
	listener     net.Listener
	logger       *zap.Logger
	config       *ServerConfig
	mu           sync.RWMutex
	running      bool
}

// ServerConfig holds configuration for the gRPC server.
type ServerConfig struct {
	// Address is the host:port to bind to.
	Address string

	// EnableReflection registers the reflection service.
	EnableReflection bool

	UnaryInterceptors  []grpc.UnaryServerInterceptor
	StreamInterceptors []grpc.StreamServerInterceptor
}

// DefaultServerConfig returns a ServerConfig with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{Address: config.DefaultGRPCAddress}
}

// ServerConfigFromListener converts listener configuration.
func ServerConfigFromListener(listener *config.GRPCListener) *ServerConfig {
	cfg := DefaultServerConfig()
	if listener == nil {
		return cfg
	}
	if listener.Address != "" {
		cfg.Address = listener.Address
	}
	cfg.EnableReflection = listener.Reflection
	return cfg
}

// NewServer creates a new gRPC server. Interceptors are chained in the
// order given.
func NewServer(cfg *ServerConfig, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts []grpc.ServerOption
	if len(cfg.UnaryInterceptors) > 0 {
		opts = append(opts, grpc.ChainUnaryInterceptor(cfg.UnaryInterceptors...))
	}
	if len(cfg.StreamInterceptors) > 0 {
		opts = append(opts, grpc.ChainStreamInterceptor(cfg.StreamInterceptors...))
	}

	s := &Server{
		grpcServer:   grpc.NewServer(opts...),
		healthServer: health.NewServer(),
		logger:       logger,
		config:       cfg,
	}

	healthpb.RegisterHealthServer(s.grpcServer, s.healthServer)
	s.healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	if cfg.EnableReflection {
		reflection.Register(s.grpcServer)
		logger.Info("gRPC reflection enabled")
	}

	return s
}

// GRPCServer returns the underlying gRPC server for service registration.
func (s *Server) GRPCServer() *grpc.Server {
	return s.grpcServer
}

// Start listens on the configured address and serves until Stop.
func (s *Server) Start(ctx context.Context) error {
	lc := &net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address, err)
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		_ = ln.Close()
		return fmt.Errorf("server already running")
	}
	s.listener = ln
	s.running = true
	s.mu.Unlock()

	s.logger.Info("starting gRPC server",
		zap.String("address", ln.Addr().String()),
		zap.Bool("reflectionEnabled", s.config.EnableReflection),
	)

	err := s.grpcServer.Serve(ln)

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("gRPC server error: %w", err)
	}
	return nil
}

// Stop marks the health service NOT_SERVING and stops gracefully, falling
// back to a hard stop when ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()
	if !running {
		return nil
	}

	s.logger.Info("stopping gRPC server")
	s.healthServer.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("gRPC server stopped gracefully")
	case <-ctx.Done():
		s.logger.Warn("graceful stop timed out, forcing stop")
		s.grpcServer.Stop()
	}

	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the bound address, or "" before Serve.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// SetServingStatus sets the health status of a service ("" for the server).
func (s *Server) SetServingStatus(service string, status healthpb.HealthCheckResponse_ServingStatus) {
	s.healthServer.SetServingStatus(service, status)
}
