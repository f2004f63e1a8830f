package interceptor

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/vyrodovalexey/aclgw/internal/audit"
	"github.com/vyrodovalexey/aclgw/internal/auth"
	"github.com/vyrodovalexey/aclgw/internal/auth/basic"
)

type mockServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (m *mockServerStream) Context() context.Context {
	return m.ctx
}

func basicHeader(id, secret string) string {
	return auth.AuthSchemeBasic + base64.StdEncoding.EncodeToString([]byte(id+":"+secret))
}

func incoming(pairs ...string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(pairs...))
}

func newTestAuthenticator(t *testing.T) auth.Authenticator {
	t.Helper()

	cache, err := basic.NewTicketCache([]basic.ClientRecord{
		{ID: "alice", Secret: []byte("s3cr3t"), Scopes: []string{"read", "write"}},
	})
	require.NoError(t, err)
	return basic.NewAuthenticator(cache)
}

type recordingAudit struct {
	mu     sync.Mutex
	events []*audit.Event
}

func (r *recordingAudit) LogEvent(_ context.Context, event *audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingAudit) LogAuthentication(ctx context.Context, outcome audit.Outcome, subject *audit.Subject, resource *audit.Resource) {
	r.LogEvent(ctx, audit.AuthenticationEvent(outcome, subject, resource))
}

func (r *recordingAudit) LogConfigReload(ctx context.Context, generation uint64, clients int, err error) {
	r.LogEvent(ctx, audit.ConfigReloadEvent(generation, clients, err))
}

func (r *recordingAudit) Close() error { return nil }

func (r *recordingAudit) snapshot() []*audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*audit.Event(nil), r.events...)
}
