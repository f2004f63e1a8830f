package basic

import (
	"encoding/base64"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// countingPool tracks Get/Put balance around a real pool.
type countingPool struct {
	inner BufferPool
	gets  atomic.Int64
	puts  atomic.Int64
}

func newCountingPool() *countingPool {
	return &countingPool{inner: NewBufferPool(DefaultMaxPooledSize)}
}

func (p *countingPool) Get(size int) *[]byte {
	p.gets.Add(1)
	return p.inner.Get(size)
}

func (p *countingPool) Put(buf *[]byte) {
	p.puts.Add(1)
	p.inner.Put(buf)
}

func (p *countingPool) balanced() bool {
	return p.gets.Load() == p.puts.Load()
}

func basicHeader(clientID, secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(clientID+":"+secret))
}

func rawBasicHeader(decoded []byte) string {
	return "Basic " + base64.StdEncoding.EncodeToString(decoded)
}

func aliceRecords() []ClientRecord {
	return []ClientRecord{
		{ID: "alice", Secret: []byte("s3cr3t"), Scopes: []string{"read", "write"}},
		{ID: "bob", Secret: []byte("hunter2"), Scopes: []string{"execute"}},
	}
}

func newTestCache(t *testing.T, records []ClientRecord) *TicketCache {
	t.Helper()

	cache, err := NewTicketCache(records)
	require.NoError(t, err)
	return cache
}
