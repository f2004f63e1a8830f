package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeadersConfig holds the response headers added to every reply.
// Empty values are not sent.
type SecurityHeadersConfig struct {
	XFrameOptions       string
	XContentTypeOptions string
	CacheControl        string
	ReferrerPolicy      string
}

// DefaultSecurityHeadersConfig returns headers suited to an API that
// answers with identity data and authentication challenges.
func DefaultSecurityHeadersConfig() SecurityHeadersConfig {
	return SecurityHeadersConfig{
		XFrameOptions:       "DENY",
		XContentTypeOptions: "nosniff",
		CacheControl:        "no-store",
		ReferrerPolicy:      "no-referrer",
	}
}

// SecurityHeaders returns a middleware that adds the default security headers.
func SecurityHeaders() gin.HandlerFunc {
	return SecurityHeadersWithConfig(DefaultSecurityHeadersConfig())
}

// SecurityHeadersWithConfig returns a security headers middleware with
// custom configuration. Headers are set before the handler runs so that
// aborted responses (401, 429) carry them too.
func SecurityHeadersWithConfig(config SecurityHeadersConfig) gin.HandlerFunc {
	headers := make([][2]string, 0, 4)
	for _, h := range [][2]string{
		{"X-Frame-Options", config.XFrameOptions},
		{"X-Content-Type-Options", config.XContentTypeOptions},
		{"Cache-Control", config.CacheControl},
		{"Referrer-Policy", config.ReferrerPolicy},
	} {
		if h[1] != "" {
			headers = append(headers, h)
		}
	}

	return func(c *gin.Context) {
		for _, h := range headers {
			c.Header(h[0], h[1])
		}
		c.Next()
	}
}
