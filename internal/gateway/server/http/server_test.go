package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/aclgw/internal/auth"
	"github.com/vyrodovalexey/aclgw/internal/auth/basic"
	"github.com/vyrodovalexey/aclgw/internal/config"
	"github.com/vyrodovalexey/aclgw/internal/gateway/server/http/middleware"
	"github.com/vyrodovalexey/aclgw/internal/health"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cache, err := basic.NewTicketCache([]basic.ClientRecord{
		{ID: "alice", Secret: []byte("s3cr3t"), Scopes: []string{"read", "write"}},
	})
	require.NoError(t, err)

	checker := health.NewChecker("test", nil)
	checker.RegisterCheck("registry", health.RegistryCheck(func() (uint64, int, bool) {
		snap := cache.Snapshot()
		return snap.Generation(), snap.Len(), true
	}))

	s := NewServer(nil, zap.NewNop())
	s.Use(
		middleware.RequestID(middleware.RequestIDHeader),
		middleware.Recovery(nil),
		middleware.Auth(middleware.AuthConfig{
			Authenticator: basic.NewAuthenticator(cache),
			Anonymous:     auth.NewAnonymousSet([]string{"/health", "/ready", "/live"}),
			Realm:         "aclgw",
		}),
	)
	s.RegisterHealth(checker)
	s.RegisterAPI()
	return s
}

func request(s *Server, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set(auth.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func TestServer_Routes(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	alice := "Basic " + base64.StdEncoding.EncodeToString([]byte("alice:s3cr3t"))

	t.Run("health endpoints are anonymous", func(t *testing.T) {
		t.Parallel()

		for _, path := range []string{"/health", "/ready", "/live"} {
			assert.Equal(t, http.StatusOK, request(s, path, "").Code, path)
		}
	})

	t.Run("whoami requires credentials", func(t *testing.T) {
		t.Parallel()

		rec := request(s, "/api/v1/whoami", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, `Basic realm="aclgw", charset="UTF-8"`, rec.Header().Get(auth.HeaderWWWAuthenticate))
	})

	t.Run("whoami returns identity", func(t *testing.T) {
		t.Parallel()

		rec := request(s, "/api/v1/whoami", alice)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp WhoAmIResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, WhoAmIResponse{
			Authenticated: true,
			Name:          "alice",
			AuthType:      "basic",
			Scopes:        []string{"read", "write"},
		}, resp)
	})

	t.Run("unknown route still authenticates first", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, http.StatusUnauthorized, request(s, "/nope", "").Code)
	})
}

func TestServerConfigFromListener(t *testing.T) {
	t.Parallel()

	cfg := ServerConfigFromListener(config.HTTPListener{
		Address:        ":8081",
		ReadTimeout:    config.Duration(5 * time.Second),
		WriteTimeout:   config.Duration(6 * time.Second),
		IdleTimeout:    config.Duration(7 * time.Second),
		MaxHeaderBytes: 4096,
	})

	assert.Equal(t, &ServerConfig{
		Address:        ":8081",
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   6 * time.Second,
		IdleTimeout:    7 * time.Second,
		MaxHeaderBytes: 4096,
	}, cfg)
}

func TestServer_ServeAndStop(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	assert.False(t, s.IsRunning())
	assert.Empty(t, s.Addr())
	require.NoError(t, s.Stop(context.Background()))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ln) }()

	require.Eventually(t, s.IsRunning, time.Second, 10*time.Millisecond)

	resp, err := http.Get("http://" + s.Addr() + "/live")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	second, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Error(t, s.Serve(second))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, <-errCh)
	assert.False(t, s.IsRunning())
}
