// Package http provides the gin HTTP listener of the gateway.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/aclgw/internal/config"
	"github.com/vyrodovalexey/aclgw/internal/gateway/server/http/middleware"
	"github.com/vyrodovalexey/aclgw/internal/health"
)

// ginModeOnce ensures gin.SetMode is only called once to avoid race conditions
var ginModeOnce sync.Once

// Server represents the HTTP server for the gateway.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
	logger     *zap.Logger
	config     *ServerConfig
	mu         sync.RWMutex
	running    bool
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
}

// DefaultServerConfig returns a ServerConfig with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:        config.DefaultHTTPAddress,
		ReadTimeout:    config.DefaultReadTimeout,
		WriteTimeout:   config.DefaultWriteTimeout,
		IdleTimeout:    config.DefaultIdleTimeout,
		MaxHeaderBytes: config.DefaultMaxHeaderBytes,
	}
}

// ServerConfigFromListener converts listener configuration.
func ServerConfigFromListener(l config.HTTPListener) *ServerConfig {
	return &ServerConfig{
		Address:        l.Address,
		ReadTimeout:    l.ReadTimeout.Duration(),
		WriteTimeout:   l.WriteTimeout.Duration(),
		IdleTimeout:    l.IdleTimeout.Duration(),
		MaxHeaderBytes: l.MaxHeaderBytes,
	}
}

// NewServer creates a new HTTP server.
func NewServer(cfg *ServerConfig, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	return &Server{
		engine: engine,
		logger: logger,
		config: cfg,
	}
}

// Use adds middleware to the server. Middleware applies to routes
// registered after the call.
func (s *Server) Use(middleware ...gin.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Use(middleware...)
}

// Engine returns the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// RegisterHealth mounts the health, readiness and liveness endpoints.
func (s *Server) RegisterHealth(checker *health.Checker) {
	s.engine.GET("/health", gin.WrapF(checker.HealthHandler()))
	s.engine.GET("/ready", gin.WrapF(checker.ReadinessHandler()))
	s.engine.GET("/live", gin.WrapF(checker.LivenessHandler()))
}

// RegisterAPI mounts the gateway's own API.
func (s *Server) RegisterAPI() {
	v1 := s.engine.Group("/api/v1")
	v1.GET("/whoami", whoAmI)
}

// Start listens on the configured address and serves until Stop.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Stop.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		_ = ln.Close()
		return fmt.Errorf("server already running")
	}

	s.httpServer = &http.Server{
		Handler:           s.engine,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		MaxHeaderBytes:    s.config.MaxHeaderBytes,
	}
	s.listener = ln
	s.running = true
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("starting HTTP server",
		zap.String("address", ln.Addr().String()),
		zap.Duration("readTimeout", s.config.ReadTimeout),
		zap.Duration("writeTimeout", s.config.WriteTimeout),
	)

	err := srv.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("stopping HTTP server")

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("HTTP server stopped")
	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the bound address, or "" before the server starts.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// WhoAmIResponse is the body of GET /api/v1/whoami.
type WhoAmIResponse struct {
	Authenticated bool     `json:"authenticated"`
	Name          string   `json:"name,omitempty"`
	AuthType      string   `json:"authType,omitempty"`
	Scopes        []string `json:"scopes,omitempty"`
}

func whoAmI(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusOK, WhoAmIResponse{})
		return
	}

	c.JSON(http.StatusOK, WhoAmIResponse{
		Authenticated: true,
		Name:          identity.Name(),
		AuthType:      string(identity.AuthType),
		Scopes:        identity.Scopes,
	})
}
