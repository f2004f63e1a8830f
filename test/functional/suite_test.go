//go:build functional

/*
Package functional exercises the gateway's listeners end to end over
loopback sockets, with the authenticator, middleware and interceptors
assembled the way the binary assembles them.
*/
package functional

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/vyrodovalexey/aclgw/internal/auth"
	"github.com/vyrodovalexey/aclgw/internal/auth/basic"
	gwgrpc "github.com/vyrodovalexey/aclgw/internal/gateway/server/grpc"
	"github.com/vyrodovalexey/aclgw/internal/gateway/server/grpc/interceptor"
	gwhttp "github.com/vyrodovalexey/aclgw/internal/gateway/server/http"
	"github.com/vyrodovalexey/aclgw/internal/gateway/server/http/middleware"
	"github.com/vyrodovalexey/aclgw/internal/health"
	"github.com/vyrodovalexey/aclgw/internal/observability"
	"github.com/vyrodovalexey/aclgw/test/helpers"
)

// testGateway is a running HTTP and gRPC listener pair sharing one
// client registry.
type testGateway struct {
	cache    *basic.TicketCache
	checker  *health.Checker
	httpURL  string
	grpcConn *grpc.ClientConn
}

func defaultRecords() []basic.ClientRecord {
	return []basic.ClientRecord{
		{ID: "alice", Secret: []byte("s3cr3t"), Scopes: []string{"read", "write"}},
		{ID: "bob", Secret: []byte("hunter2"), Scopes: []string{"read"}},
	}
}

func startGateway(t *testing.T, records []basic.ClientRecord) *testGateway {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))

	cache, err := basic.NewTicketCache(records)
	require.NoError(t, err)
	authenticator := basic.NewAuthenticator(cache, basic.WithTimingSafeCompare(true))

	checker := health.NewChecker("functional", observability.NopLogger())
	checker.RegisterCheck("registry", health.RegistryCheck(func() (uint64, int, bool) {
		snapshot := cache.Snapshot()
		return snapshot.Generation(), snapshot.Len(), true
	}))

	httpSrv := gwhttp.NewServer(gwhttp.DefaultServerConfig(), logger)
	httpSrv.Use(
		middleware.RequestID(middleware.RequestIDHeader),
		middleware.SecurityHeaders(),
		middleware.Recovery(logger),
		middleware.Auth(middleware.AuthConfig{
			Authenticator: authenticator,
			Anonymous:     auth.NewAnonymousSet([]string{"/health", "/ready", "/live"}),
			Realm:         "functional",
			Logger:        logger,
		}),
	)
	httpSrv.RegisterHealth(checker)
	httpSrv.RegisterAPI()

	authConfig := interceptor.AuthConfig{
		Authenticator: authenticator,
		Logger:        logger,
	}
	grpcSrv := gwgrpc.NewServer(&gwgrpc.ServerConfig{
		UnaryInterceptors: []grpc.UnaryServerInterceptor{
			interceptor.UnaryRecovery(logger),
			interceptor.UnaryAuth(authConfig),
		},
		StreamInterceptors: []grpc.StreamServerInterceptor{
			interceptor.StreamRecovery(logger),
			interceptor.StreamAuth(authConfig),
		},
	}, logger)

	httpLn := helpers.Listen(t)
	grpcLn := helpers.Listen(t)

	httpErr := make(chan error, 1)
	grpcErr := make(chan error, 1)
	go func() { httpErr <- httpSrv.Serve(httpLn) }()
	go func() { grpcErr <- grpcSrv.Serve(grpcLn) }()

	gw := &testGateway{
		cache:   cache,
		checker: checker,
		httpURL: "http://" + httpLn.Addr().String(),
	}
	require.NoError(t, helpers.WaitForHTTP(gw.httpURL+"/live", 5*time.Second))

	conn, err := grpc.NewClient(grpcLn.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	gw.grpcConn = conn

	t.Cleanup(func() {
		_ = conn.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		assert.NoError(t, httpSrv.Stop(ctx))
		assert.NoError(t, grpcSrv.Stop(ctx))
		for _, ch := range []chan error{httpErr, grpcErr} {
			if err := <-ch; err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				t.Errorf("listener exited with error: %v", err)
			}
		}
	})

	return gw
}
