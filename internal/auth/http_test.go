package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuthenticator accepts exactly one header value.
type stubAuthenticator struct {
	valid  string
	ticket *Ticket
}

func (s *stubAuthenticator) Authenticate(allowAnonymous bool, header string) Result {
	if allowAnonymous {
		return NoResult()
	}
	if header != s.valid {
		return Fail()
	}
	return Success(s.ticket)
}

func TestHTTPMiddleware(t *testing.T) {
	t.Parallel()

	stub := &stubAuthenticator{
		valid:  "Basic YWxpY2U6czNjcjN0",
		ticket: NewTicket(SchemeBasic, NewIdentity(AuthTypeBasic, "alice", []string{"read"})),
	}

	handler := HTTPMiddleware(stub,
		WithRealm("aclgw"),
		WithAnonymousPaths(NewAnonymousSet([]string{"/health", "/public/*"})),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if ok {
			_, _ = w.Write([]byte(identity.Name()))
			return
		}
		_, _ = w.Write([]byte("anonymous"))
	}))

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "authenticated", path: "/api", header: stub.valid, wantStatus: http.StatusOK, wantBody: "alice"},
		{name: "anonymous exact", path: "/health", wantStatus: http.StatusOK, wantBody: "anonymous"},
		{name: "anonymous prefix ignores credentials", path: "/public/x", header: "garbage", wantStatus: http.StatusOK, wantBody: "anonymous"},
		{name: "missing credentials", path: "/api", wantStatus: http.StatusUnauthorized, wantBody: `{"error":"authentication failed"}`},
		{name: "wrong credentials", path: "/api", header: "Basic Ym9iOng=", wantStatus: http.StatusUnauthorized, wantBody: `{"error":"authentication failed"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="aclgw", charset="UTF-8"`, rec.Header().Get(HeaderWWWAuthenticate))
				assert.Equal(t, ContentTypeJSON, rec.Header().Get(HeaderContentType))
			}
		})
	}
}
