package basic

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_Extract_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		header     string
		wantID     string
		wantSecret string
	}{
		{
			name:       "worked example",
			header:     "Basic YWxpY2U6czNjcjN0",
			wantID:     "alice",
			wantSecret: "s3cr3t",
		},
		{
			name:       "lowercase scheme",
			header:     "basic YWxpY2U6czNjcjN0",
			wantID:     "alice",
			wantSecret: "s3cr3t",
		},
		{
			name:       "uppercase scheme",
			header:     "BASIC YWxpY2U6czNjcjN0",
			wantID:     "alice",
			wantSecret: "s3cr3t",
		},
		{
			name:       "surrounding whitespace",
			header:     "Basic   YWxpY2U6czNjcjN0  ",
			wantID:     "alice",
			wantSecret: "s3cr3t",
		},
		{
			name:       "secret containing colon",
			header:     basicHeader("svc", "a:b:c"),
			wantID:     "svc",
			wantSecret: "a:b:c",
		},
		{
			name:       "utf-8 credentials",
			header:     basicHeader("zoë", "pässwörd"),
			wantID:     "zoë",
			wantSecret: "pässwörd",
		},
		{
			name:       "single characters",
			header:     basicHeader("a", "b"),
			wantID:     "a",
			wantSecret: "b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pool := newCountingPool()
			e := NewExtractor(pool)

			var gotID, gotSecret string
			err := e.Extract(tt.header, func(clientID string, secret []byte) error {
				gotID = clientID
				gotSecret = string(secret)
				return nil
			})

			require.NoError(t, err)
			assert.Equal(t, tt.wantID, gotID)
			assert.Equal(t, tt.wantSecret, gotSecret)
			assert.True(t, pool.balanced())
		})
	}
}

func TestExtractor_Extract_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   failure
	}{
		{name: "empty header", header: "", want: errMissingHeader},
		{name: "bearer scheme", header: "Bearer YWxpY2U6czNjcjN0", want: errWrongScheme},
		{name: "scheme without space", header: "BasicYWxpY2U6czNjcjN0", want: errWrongScheme},
		{name: "scheme only", header: "Basic", want: errWrongScheme},
		{name: "short header", header: "Bas", want: errWrongScheme},
		{name: "scheme and space only", header: "Basic ", want: errEmptyPayload},
		{name: "whitespace payload", header: "Basic    ", want: errEmptyPayload},
		{name: "non-ascii payload", header: "Basic YWxpY2U6czNjcjN0é", want: errNonASCII},
		{name: "invalid base64 character", header: "Basic YWxp*2U6czNjcjN0", want: errMalformedB64},
		{name: "missing padding", header: "Basic YWxpY2U6d3Jvbmc", want: errMalformedB64},
		{name: "trailing garbage", header: "Basic YWxpY2U6d3Jvbmc=YQ", want: errMalformedB64},
		{name: "padding only", header: "Basic ====", want: errMalformedB64},
		{name: "invalid utf-8", header: rawBasicHeader([]byte{'a', ':', 0xff, 0xfe}), want: errInvalidUTF8},
		{name: "no colon", header: rawBasicHeader([]byte("alicesecret")), want: errBadSeparator},
		{name: "colon first", header: rawBasicHeader([]byte(":secret")), want: errBadSeparator},
		{name: "colon last", header: rawBasicHeader([]byte("alice:")), want: errBadSeparator},
		{name: "colon only", header: rawBasicHeader([]byte(":")), want: errBadSeparator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pool := newCountingPool()
			e := NewExtractor(pool)

			called := false
			err := e.Extract(tt.header, func(string, []byte) error {
				called = true
				return nil
			})

			require.Error(t, err)
			assert.Equal(t, tt.want, err)
			assert.False(t, called)
			assert.True(t, pool.balanced(), "gets=%d puts=%d", pool.gets.Load(), pool.puts.Load())
		})
	}
}

func TestExtractor_Extract_VerifierError(t *testing.T) {
	t.Parallel()

	pool := newCountingPool()
	e := NewExtractor(pool)
	sentinel := errors.New("nope")

	err := e.Extract("Basic YWxpY2U6czNjcjN0", func(string, []byte) error {
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
	assert.True(t, pool.balanced())
	assert.Equal(t, int64(2), pool.gets.Load())
}

func TestExtractor_Extract_ReleasesOnPanic(t *testing.T) {
	t.Parallel()

	pool := newCountingPool()
	e := NewExtractor(pool)

	assert.PanicsWithValue(t, "verifier exploded", func() {
		_ = e.Extract("Basic YWxpY2U6czNjcjN0", func(string, []byte) error {
			panic("verifier exploded")
		})
	})

	assert.True(t, pool.balanced())
	assert.Equal(t, int64(2), pool.gets.Load())
}

func TestExtractor_Extract_SecretIsScrubbedAfterReturn(t *testing.T) {
	t.Parallel()

	e := NewExtractor(NewBufferPool(0))

	var leaked []byte
	err := e.Extract("Basic YWxpY2U6czNjcjN0", func(_ string, secret []byte) error {
		leaked = secret
		assert.Equal(t, "s3cr3t", string(secret))
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, make([]byte, len("s3cr3t")), leaked)
}

func TestExtractor_Extract_LongHeader(t *testing.T) {
	t.Parallel()

	pool := newCountingPool()
	e := NewExtractor(pool)
	secret := strings.Repeat("x", 10000)

	var got int
	err := e.Extract(basicHeader("bulk", secret), func(_ string, s []byte) error {
		got = len(s)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, len(secret), got)
	assert.True(t, pool.balanced())
}

func TestNewExtractor_DefaultPool(t *testing.T) {
	t.Parallel()

	e := NewExtractor(nil)
	require.NotNil(t, e.pool)

	assert.NoError(t, e.Extract("Basic YWxpY2U6czNjcjN0", func(string, []byte) error { return nil }))
}

func TestFailureReasons(t *testing.T) {
	t.Parallel()

	reasons := FailureReasons()
	assert.Contains(t, reasons, "unknown_client")
	assert.Contains(t, reasons, "secret_mismatch")
	assert.Len(t, reasons, 10)
	assert.Equal(t, "non_ascii", errNonASCII.Error())
}

func BenchmarkExtractor_Extract(b *testing.B) {
	e := NewExtractor(nil)
	verify := func(string, []byte) error { return nil }

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		_ = e.Extract("Basic YWxpY2U6czNjcjN0", verify)
	}
}

func BenchmarkExtractor_Extract_Parallel(b *testing.B) {
	e := NewExtractor(nil)
	verify := func(string, []byte) error { return nil }

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = e.Extract("Basic YWxpY2U6czNjcjN0", verify)
		}
	})
}
