package auth

import (
	"net/http"
)

var failureJSON = []byte(`{"error":"` + FailureMessage + `"}`)

// WriteUnauthorized writes the 401 response shared by every HTTP transport:
// the Basic challenge and a fixed body that does not vary with the reason.
func WriteUnauthorized(w http.ResponseWriter, realm string) {
	w.Header().Set(HeaderWWWAuthenticate, Challenge(realm))
	w.Header().Set(HeaderContentType, ContentTypeJSON)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write(failureJSON)
}

// HTTPOption configures HTTPMiddleware.
type HTTPOption func(*httpGuard)

// WithRealm sets the realm announced in the challenge.
func WithRealm(realm string) HTTPOption {
	return func(g *httpGuard) {
		g.realm = realm
	}
}

// WithAnonymousPaths sets the request paths that skip authentication.
func WithAnonymousPaths(set *AnonymousSet) HTTPOption {
	return func(g *httpGuard) {
		g.anonymous = set
	}
}

type httpGuard struct {
	authenticator Authenticator
	anonymous     *AnonymousSet
	realm         string
}

// HTTPMiddleware authenticates net/http requests. Authenticated requests
// carry their Identity in the request context.
func HTTPMiddleware(authenticator Authenticator, opts ...HTTPOption) func(http.Handler) http.Handler {
	g := &httpGuard{authenticator: authenticator}
	for _, opt := range opts {
		opt(g)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := g.authenticator.Authenticate(
				g.anonymous.Allows(r.URL.Path),
				r.Header.Get(HeaderAuthorization),
			)

			switch result.Outcome {
			case OutcomeSuccess:
				r = r.WithContext(ContextWithIdentity(r.Context(), result.Identity()))
			case OutcomeNoResult:
			default:
				WriteUnauthorized(w, g.realm)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
