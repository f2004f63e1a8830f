package basic

import (
	"bytes"
	"encoding/base64"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vyrodovalexey/aclgw/internal/auth"
)

// failure is an extraction or verification rejection. Its text doubles as
// the metrics reason label.
type failure string

func (f failure) Error() string { return string(f) }

// Rejection reasons. Callers never see these; they only feed metrics and
// debug logs.
const (
	errMissingHeader  failure = "missing_header"
	errWrongScheme    failure = "wrong_scheme"
	errEmptyPayload   failure = "empty_payload"
	errNonASCII       failure = "non_ascii"
	errMalformedB64   failure = "malformed_base64"
	errEmptyDecoded   failure = "empty_credentials"
	errInvalidUTF8    failure = "invalid_utf8"
	errBadSeparator   failure = "bad_separator"
	errUnknownClient  failure = "unknown_client"
	errSecretMismatch failure = "secret_mismatch"
)

// FailureReasons lists every reason label recorded for failed attempts.
func FailureReasons() []string {
	return []string{
		string(errMissingHeader),
		string(errWrongScheme),
		string(errEmptyPayload),
		string(errNonASCII),
		string(errMalformedB64),
		string(errEmptyDecoded),
		string(errInvalidUTF8),
		string(errBadSeparator),
		string(errUnknownClient),
		string(errSecretMismatch),
	}
}

// Verifier receives the parsed credentials. clientID is an owned string.
// secret aliases pooled scratch memory that is zeroed and recycled as soon
// as the verifier returns, so it must not be retained.
type Verifier func(clientID string, secret []byte) error

// Extractor parses Basic credentials out of Authorization values using
// pooled scratch buffers.
type Extractor struct {
	pool BufferPool
}

// NewExtractor creates an extractor drawing scratch buffers from pool.
// A nil pool gets a private sync.Pool backed one.
func NewExtractor(pool BufferPool) *Extractor {
	if pool == nil {
		pool = NewBufferPool(DefaultMaxPooledSize)
	}
	return &Extractor{pool: pool}
}

// Extract parses header as `Basic base64(clientId ":" secret)` and calls
// verify with the result. It returns the first rejection, or whatever
// verify returns. The scheme is matched case-insensitively, the payload
// must be ASCII, standard padded base64, valid UTF-8, and split by a colon
// that is neither first nor last.
//
// Scratch buffers are released on every return path, including a panic
// raised by verify.
func (e *Extractor) Extract(header string, verify Verifier) error {
	if header == "" {
		return errMissingHeader
	}

	prefix := auth.AuthSchemeBasic
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return errWrongScheme
	}

	payload := strings.TrimSpace(header[len(prefix):])
	if payload == "" {
		return errEmptyPayload
	}

	src := e.pool.Get(len(payload))
	defer e.pool.Put(src)

	for i := 0; i < len(payload); i++ {
		c := payload[i]
		if c > unicode.MaxASCII {
			return errNonASCII
		}
		(*src)[i] = c
	}

	dst := e.pool.Get(len(payload)*3/4 + 3)
	defer e.pool.Put(dst)

	n, err := base64.StdEncoding.Decode(*dst, *src)
	if err != nil {
		return errMalformedB64
	}
	if n == 0 {
		return errEmptyDecoded
	}

	decoded := (*dst)[:n]
	if !utf8.Valid(decoded) {
		return errInvalidUTF8
	}

	colon := bytes.IndexByte(decoded, ':')
	if colon <= 0 || colon == n-1 {
		return errBadSeparator
	}

	return verify(string(decoded[:colon]), decoded[colon+1:])
}
