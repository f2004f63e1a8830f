package basic

import "sync"

const (
	// DefaultMaxPooledSize is the largest buffer returned to the pool.
	// Larger requests are served by one-off allocations.
	DefaultMaxPooledSize = 4096

	defaultBufferSize = 256
)

// BufferPool hands out scratch byte buffers. Every buffer obtained from
// Get must be passed to Put exactly once and not touched afterwards.
type BufferPool interface {
	// Get returns a buffer of length size.
	Get(size int) *[]byte

	// Put zeroes the buffer and makes it available for reuse.
	Put(buf *[]byte)
}

type syncBufferPool struct {
	pool    sync.Pool
	maxSize int
}

// NewBufferPool returns a sync.Pool backed BufferPool that retains
// buffers up to maxPooledSize bytes.
func NewBufferPool(maxPooledSize int) BufferPool {
	if maxPooledSize <= 0 {
		maxPooledSize = DefaultMaxPooledSize
	}

	p := &syncBufferPool{maxSize: maxPooledSize}
	p.pool.New = func() any {
		b := make([]byte, 0, min(defaultBufferSize, maxPooledSize))
		return &b
	}
	return p
}

func (p *syncBufferPool) Get(size int) *[]byte {
	if size > p.maxSize {
		b := make([]byte, size)
		return &b
	}

	bp, _ := p.pool.Get().(*[]byte)
	if bp == nil {
		b := make([]byte, 0, size)
		bp = &b
	}
	if cap(*bp) < size {
		*bp = make([]byte, size)
	}
	*bp = (*bp)[:size]
	return bp
}

func (p *syncBufferPool) Put(buf *[]byte) {
	if buf == nil {
		return
	}

	// scratch buffers may hold decoded credentials
	b := (*buf)[:cap(*buf)]
	clear(b)

	if cap(b) > p.maxSize {
		return
	}
	*buf = b[:0]
	p.pool.Put(buf)
}
