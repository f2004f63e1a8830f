package basic

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/vyrodovalexey/aclgw/internal/auth"
	"github.com/vyrodovalexey/aclgw/internal/config"
)

// Configuration errors. They are fatal at startup; on reload they leave
// the published registry in place.
var (
	ErrEmptyClientID    = errors.New("client id is empty")
	ErrInvalidClientID  = errors.New("client id must not contain ':'")
	ErrDuplicateClient  = errors.New("duplicate client id")
	ErrEmptySecret      = errors.New("client secret is empty")
	ErrEmptyScopes      = errors.New("client has no scopes")
	ErrInvalidScope     = errors.New("client scope is empty or duplicated")
	ErrSecretResolution = errors.New("client secret could not be resolved")
)

// ConfigError reports a client record that cannot enter the registry.
type ConfigError struct {
	ClientID string
	Err      error
	Cause    error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("acl client %q: %v: %v", e.ClientID, e.Err, e.Cause)
	}
	return fmt.Sprintf("acl client %q: %v", e.ClientID, e.Err)
}

// Unwrap returns the sentinel and, when present, the underlying cause.
func (e *ConfigError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// ClientRecord is one configured client. Scopes keep configured order.
type ClientRecord struct {
	ID     string
	Secret []byte
	Scopes []string
}

// SecretResolver resolves a secret reference to its value.
type SecretResolver interface {
	Resolve(ctx context.Context, ref config.SecretRef) ([]byte, error)
}

// RecordsFromConfig turns ACL clients into validated records, resolving
// secretRef entries through resolver.
func RecordsFromConfig(
	ctx context.Context,
	clients []config.ACLClient,
	resolver SecretResolver,
) ([]ClientRecord, error) {
	records := make([]ClientRecord, 0, len(clients))

	for i := range clients {
		c := &clients[i]

		secret := []byte(c.Secret)
		if c.SecretRef != nil {
			if resolver == nil {
				return nil, &ConfigError{ClientID: c.ID, Err: ErrSecretResolution,
					Cause: errors.New("no secret providers configured")}
			}
			resolved, err := resolver.Resolve(ctx, *c.SecretRef)
			if err != nil {
				return nil, &ConfigError{ClientID: c.ID, Err: ErrSecretResolution, Cause: err}
			}
			secret = resolved
		}

		records = append(records, ClientRecord{
			ID:     c.ID,
			Secret: secret,
			Scopes: slices.Clone(c.Scopes),
		})
	}

	if err := ValidateRecords(records); err != nil {
		return nil, err
	}
	return records, nil
}

// WipeSecrets zeroes the secret bytes of records. Callers wipe records
// once a registry has been built from them; NewRegistry keeps its own copy.
func WipeSecrets(records []ClientRecord) {
	for i := range records {
		clear(records[i].Secret)
	}
}

// ValidateRecords checks every record and joins all violations.
func ValidateRecords(records []ClientRecord) error {
	var errs []error
	seen := make(map[string]struct{}, len(records))

	for i := range records {
		r := &records[i]

		switch {
		case r.ID == "":
			errs = append(errs, &ConfigError{ClientID: r.ID, Err: ErrEmptyClientID})
		case strings.IndexByte(r.ID, ':') >= 0:
			errs = append(errs, &ConfigError{ClientID: r.ID, Err: ErrInvalidClientID})
		default:
			if _, dup := seen[r.ID]; dup {
				errs = append(errs, &ConfigError{ClientID: r.ID, Err: ErrDuplicateClient})
			}
			seen[r.ID] = struct{}{}
		}

		if len(r.Secret) == 0 {
			errs = append(errs, &ConfigError{ClientID: r.ID, Err: ErrEmptySecret})
		}

		if len(r.Scopes) == 0 {
			errs = append(errs, &ConfigError{ClientID: r.ID, Err: ErrEmptyScopes})
			continue
		}
		scopes := make(map[string]struct{}, len(r.Scopes))
		for _, s := range r.Scopes {
			if _, dup := scopes[s]; s == "" || dup {
				errs = append(errs, &ConfigError{ClientID: r.ID, Err: ErrInvalidScope, Cause: fmt.Errorf("scope %q", s)})
				break
			}
			scopes[s] = struct{}{}
		}
	}

	return errors.Join(errs...)
}

// CachedClient is a registry entry: the client's secret and its prebuilt
// ticket. Entries are never modified after publication.
type CachedClient struct {
	secret []byte
	Ticket *auth.Ticket
}

// Matches compares candidate with the stored secret. The default plain
// comparison returns early on the first differing byte; timingSafe
// switches to crypto/subtle.
func (c CachedClient) Matches(candidate []byte, timingSafe bool) bool {
	if timingSafe {
		return subtle.ConstantTimeCompare(c.secret, candidate) == 1
	}
	return bytes.Equal(c.secret, candidate)
}

// Registry is one immutable generation of the client table.
type Registry struct {
	generation uint64
	clients    map[string]CachedClient
}

// NewRegistry validates records and builds generation from them. Each
// client's identity and ticket are built here, once.
func NewRegistry(generation uint64, records []ClientRecord) (*Registry, error) {
	if err := ValidateRecords(records); err != nil {
		return nil, err
	}

	clients := make(map[string]CachedClient, len(records))
	for i := range records {
		r := &records[i]
		identity := auth.NewIdentity(auth.AuthTypeBasic, r.ID, r.Scopes)
		clients[r.ID] = CachedClient{
			secret: bytes.Clone(r.Secret),
			Ticket: auth.NewTicket(auth.SchemeBasic, identity),
		}
	}

	return &Registry{generation: generation, clients: clients}, nil
}

// Generation returns the registry generation; the startup build is 0.
func (r *Registry) Generation() uint64 {
	return r.generation
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	return len(r.clients)
}

// Lookup returns the entry for clientID. Matching is case-sensitive.
func (r *Registry) Lookup(clientID string) (CachedClient, bool) {
	c, ok := r.clients[clientID]
	return c, ok
}

// ClientIDs returns the registered client ids, sorted.
func (r *Registry) ClientIDs() []string {
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
