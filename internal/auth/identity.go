package auth

import (
	"context"
	"slices"
)

// AuthType represents the type of authentication used.
type AuthType string

// Authentication types.
const (
	AuthTypeBasic     AuthType = "basic"
	AuthTypeAnonymous AuthType = "anonymous"
)

// Claim types carried by identities.
const (
	ClaimTypeName  = "name"
	ClaimTypeScope = "scope"
)

// Claim is a single typed statement about an identity.
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Identity represents an authenticated caller. Identities handed out by
// an Authenticator are shared between requests and must not be modified.
type Identity struct {
	// Subject is the unique identifier for the identity.
	Subject string `json:"sub"`

	// ClientID is the registered client identifier.
	ClientID string `json:"client_id,omitempty"`

	// AuthType is the authentication method used.
	AuthType AuthType `json:"auth_type"`

	// Scopes in configured order.
	Scopes []string `json:"scopes,omitempty"`

	// Claims holds the name claim first, then one scope claim per scope.
	Claims []Claim `json:"claims,omitempty"`
}

// NewIdentity builds an identity for name with one scope claim per scope.
// The scopes slice is copied.
func NewIdentity(authType AuthType, name string, scopes []string) *Identity {
	owned := slices.Clone(scopes)

	claims := make([]Claim, 0, len(owned)+1)
	claims = append(claims, Claim{Type: ClaimTypeName, Value: name})
	for _, s := range owned {
		claims = append(claims, Claim{Type: ClaimTypeScope, Value: s})
	}

	return &Identity{
		Subject:  name,
		ClientID: name,
		AuthType: authType,
		Scopes:   owned,
		Claims:   claims,
	}
}

// Name returns the value of the name claim.
func (i *Identity) Name() string {
	for _, c := range i.Claims {
		if c.Type == ClaimTypeName {
			return c.Value
		}
	}
	return i.Subject
}

// HasScope checks if the identity has a specific scope.
func (i *Identity) HasScope(scope string) bool {
	return slices.Contains(i.Scopes, scope)
}

// ClaimValues returns the values of every claim of claimType, in order.
func (i *Identity) ClaimValues(claimType string) []string {
	var values []string
	for _, c := range i.Claims {
		if c.Type == claimType {
			values = append(values, c.Value)
		}
	}
	return values
}

// Ticket is a prebuilt authentication result: an identity and the scheme
// that produced it.
type Ticket struct {
	Scheme   string
	Identity *Identity
}

// NewTicket builds a ticket for scheme around identity.
func NewTicket(scheme string, identity *Identity) *Ticket {
	return &Ticket{Scheme: scheme, Identity: identity}
}

type identityContextKey struct{}

// ContextWithIdentity adds an identity to the context.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext extracts the identity from the context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(*Identity)
	return identity, ok && identity != nil
}
