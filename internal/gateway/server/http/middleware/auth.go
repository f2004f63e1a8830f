package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/aclgw/internal/audit"
	"github.com/vyrodovalexey/aclgw/internal/auth"
)

// IdentityKey is the gin context key for the authenticated identity.
const IdentityKey = "identity"

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Authenticator auth.Authenticator
	// Anonymous matches route templates ("/users/:id") or request paths.
	Anonymous *auth.AnonymousSet
	Realm     string
	Logger    *zap.Logger
	// Audit receives one event per accepted or rejected credential.
	Audit audit.Logger
}

// Auth returns a middleware that authenticates every request that is not
// anonymous. Rejected requests get a 401 with the Basic challenge.
func Auth(config AuthConfig) gin.HandlerFunc {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Audit == nil {
		config.Audit = audit.NewNoopLogger()
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		route := c.FullPath()
		anonymous := config.Anonymous.Allows(path) || (route != "" && config.Anonymous.Allows(route))

		result := config.Authenticator.Authenticate(anonymous, c.GetHeader(auth.HeaderAuthorization))

		if span := GetSpan(c); span != nil {
			span.SetAttributes(attribute.String("auth.outcome", result.Outcome.String()))
		}

		switch result.Outcome {
		case auth.OutcomeSuccess:
			identity := result.Identity()
			c.Set(IdentityKey, identity)
			c.Request = c.Request.WithContext(auth.ContextWithIdentity(c.Request.Context(), identity))
			config.Audit.LogAuthentication(c.Request.Context(), audit.OutcomeSuccess,
				auditSubject(c, identity.Name()), auditResource(c))
		case auth.OutcomeNoResult:
		default:
			config.Audit.LogAuthentication(c.Request.Context(), audit.OutcomeFailure,
				auditSubject(c, ""), auditResource(c))
			config.Logger.Debug("request rejected",
				zap.String("requestID", GetRequestID(c)),
				zap.String("method", c.Request.Method),
				zap.String("path", path),
			)
			auth.WriteUnauthorized(c.Writer, config.Realm)
			c.Abort()
			return
		}

		c.Next()
	}
}

func auditSubject(c *gin.Context, clientID string) *audit.Subject {
	return &audit.Subject{
		ClientID:   clientID,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
		AuthMethod: string(auth.AuthTypeBasic),
	}
}

func auditResource(c *gin.Context) *audit.Resource {
	return &audit.Resource{
		Service: "http",
		Path:    c.Request.URL.Path,
		Method:  c.Request.Method,
	}
}

// GetIdentity returns the authenticated identity, if any.
func GetIdentity(c *gin.Context) (*auth.Identity, bool) {
	if v, exists := c.Get(IdentityKey); exists {
		if identity, ok := v.(*auth.Identity); ok && identity != nil {
			return identity, true
		}
	}
	return nil, false
}
