// Package health provides health, readiness and liveness endpoints.
//
// Readiness aggregates registered checks. The gateway registers a
// registry check that stays unhealthy until the first client registry
// generation is published, and readiness flips to unhealthy while the
// process drains on shutdown.
package health
