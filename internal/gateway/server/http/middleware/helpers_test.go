package middleware

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/aclgw/internal/audit"
	"github.com/vyrodovalexey/aclgw/internal/auth"
	"github.com/vyrodovalexey/aclgw/internal/auth/basic"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func basicHeader(clientID, secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(clientID+":"+secret))
}

func newTestAuthenticator(t *testing.T) auth.Authenticator {
	t.Helper()

	cache, err := basic.NewTicketCache([]basic.ClientRecord{
		{ID: "alice", Secret: []byte("s3cr3t"), Scopes: []string{"read", "write"}},
	})
	require.NoError(t, err)
	return basic.NewAuthenticator(cache)
}

func serve(engine *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
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
