// Package basic authenticates machine-to-machine callers presenting HTTP
// Basic credentials (RFC 7617) against a static client registry.
//
// # Registry
//
// ClientRecords come from the ACL configuration. NewRegistry validates them
// (non-empty id without ':', unique ids, non-empty secret, at least one
// non-empty unique scope) and prebuilds one auth.Ticket per client. A
// Registry is immutable once built.
//
// TicketCache publishes the current Registry through an atomic pointer:
//
//	cache, err := basic.NewTicketCache(records) // generation 0
//	if err != nil {
//	    return err // fatal at startup
//	}
//
//	// on configuration reload
//	if _, err := cache.Rebuild(newRecords); err != nil {
//	    logger.Error("keeping current registry", observability.Error(err))
//	}
//
// Readers never block and never observe a partially built generation.
//
// # Extraction
//
// Extractor parses `Authorization: Basic <base64>` into a client id and a
// secret without allocating the secret. The decoded bytes live in pooled
// scratch buffers that are zeroed and returned to the pool on every exit
// path. The secret is only visible to the Verifier for the duration of the
// call.
//
// # Authentication
//
//	a := basic.NewAuthenticator(cache,
//	    basic.WithLogger(logger),
//	    basic.WithMetrics(metrics),
//	)
//	result := a.Authenticate(false, "Basic YWxpY2U6czNjcjN0")
//
// A successful result returns the cached ticket itself, so repeated
// authentications of the same client yield the same pointer. Secrets are
// compared with bytes.Equal unless WithTimingSafeCompare is set.
package basic
