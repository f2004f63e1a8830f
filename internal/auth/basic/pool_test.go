package basic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferPool_Get(t *testing.T) {
	t.Parallel()

	pool := NewBufferPool(64)

	tests := []struct {
		name string
		size int
	}{
		{name: "zero", size: 0},
		{name: "small", size: 12},
		{name: "at limit", size: 64},
		{name: "oversize", size: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf := pool.Get(tt.size)
			require.NotNil(t, buf)
			assert.Len(t, *buf, tt.size)
			pool.Put(buf)
		})
	}
}

func TestBufferPool_PutZeroes(t *testing.T) {
	t.Parallel()

	pool := NewBufferPool(0)

	buf := pool.Get(8)
	copy(*buf, "s3cr3t!!")
	backing := (*buf)[:cap(*buf)]

	pool.Put(buf)

	for i, b := range backing {
		assert.Zerof(t, b, "byte %d not cleared", i)
	}
	assert.Empty(t, *buf)
}

func TestBufferPool_PutOversizeZeroes(t *testing.T) {
	t.Parallel()

	pool := NewBufferPool(4)

	buf := pool.Get(16)
	copy(*buf, "0123456789abcdef")
	backing := *buf

	pool.Put(buf)

	assert.Equal(t, make([]byte, 16), backing)
}

func TestBufferPool_PutNil(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		NewBufferPool(0).Put(nil)
	})
}

func TestBufferPool_ReusedBufferIsClean(t *testing.T) {
	t.Parallel()

	pool := NewBufferPool(0)

	for range 50 {
		buf := pool.Get(32)
		assert.Equal(t, make([]byte, 32), *buf)
		copy(*buf, "plaintext secret material.......")
		pool.Put(buf)
	}
}
