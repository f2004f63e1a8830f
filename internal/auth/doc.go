// Package auth defines the authentication vocabulary shared by the
// gateway's transports.
//
// An Authenticator turns one request into a Result:
//
//   - OutcomeNoResult when the endpoint allows anonymous access
//   - OutcomeFail for any missing or rejected credential
//   - OutcomeSuccess with a prebuilt Ticket
//
// Failures are indistinguishable to the caller. Transports answer every
// failure with the same 401 (or codes.Unauthenticated) and the same body;
// reasons only reach metrics and debug logs.
//
// # Identities
//
// A Ticket carries an Identity whose claims are a name claim followed by
// one scope claim per configured scope. Tickets are built once per client
// and shared by every request that authenticates as that client.
//
//	result := authenticator.Authenticate(false, r.Header.Get(auth.HeaderAuthorization))
//	if !result.Succeeded() {
//	    w.Header().Set(auth.HeaderWWWAuthenticate, auth.Challenge(realm))
//	    w.WriteHeader(http.StatusUnauthorized)
//	    return
//	}
//	ctx := auth.ContextWithIdentity(r.Context(), result.Identity())
//
// The Basic implementation lives in the basic subpackage.
package auth
