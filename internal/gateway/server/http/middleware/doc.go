// Package middleware provides gin middleware for the gateway's HTTP
// listener: request ids, access logging, panic recovery, rate limiting,
// tracing and Basic authentication.
//
// The server installs them in this order:
//
//	RequestID → Tracing → Recovery → Logging → RateLimit → Auth
//
// Auth runs last so that rejected requests are still traced, logged and
// counted against the rate limit.
package middleware
