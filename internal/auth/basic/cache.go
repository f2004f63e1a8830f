package basic

import (
	"sync"
	"sync/atomic"
)

// TicketCache publishes the current Registry behind an atomic pointer.
// Lookups never block; a rebuild builds a complete generation before a
// single store makes it visible.
type TicketCache struct {
	current atomic.Pointer[Registry]

	// serializes rebuilds so generation numbers only increase
	mu sync.Mutex
}

// NewTicketCache builds generation 0 from records.
func NewTicketCache(records []ClientRecord) (*TicketCache, error) {
	reg, err := NewRegistry(0, records)
	if err != nil {
		return nil, err
	}

	c := &TicketCache{}
	c.current.Store(reg)
	return c, nil
}

// TryGet returns the current entry for clientID.
func (c *TicketCache) TryGet(clientID string) (CachedClient, bool) {
	return c.current.Load().Lookup(clientID)
}

// Snapshot returns the currently published registry.
func (c *TicketCache) Snapshot() *Registry {
	return c.current.Load()
}

// Rebuild replaces the registry with a new generation built from records.
// On error the published registry is unchanged.
func (c *TicketCache) Rebuild(records []ClientRecord) (*Registry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := NewRegistry(c.current.Load().Generation()+1, records)
	if err != nil {
		return nil, err
	}

	c.current.Store(next)
	return next, nil
}
