package basic

import (
	"errors"
	"time"

	"github.com/vyrodovalexey/aclgw/internal/auth"
	"github.com/vyrodovalexey/aclgw/internal/observability"
)

// Authenticator implements auth.Authenticator for the Basic scheme
// against a TicketCache.
type Authenticator struct {
	cache      *TicketCache
	extractor  *Extractor
	timingSafe bool
	logger     observability.Logger
	metrics    *auth.Metrics
}

var _ auth.Authenticator = (*Authenticator)(nil)

// Option is a functional option for the authenticator.
type Option func(*Authenticator)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

// WithMetrics sets the metrics.
func WithMetrics(metrics *auth.Metrics) Option {
	return func(a *Authenticator) {
		a.metrics = metrics
	}
}

// WithBufferPool sets the scratch buffer pool used by the extractor.
func WithBufferPool(pool BufferPool) Option {
	return func(a *Authenticator) {
		a.extractor = NewExtractor(pool)
	}
}

// WithTimingSafeCompare switches secret comparison to constant time.
func WithTimingSafeCompare(enabled bool) Option {
	return func(a *Authenticator) {
		a.timingSafe = enabled
	}
}

// NewAuthenticator creates an authenticator reading from cache.
func NewAuthenticator(cache *TicketCache, opts ...Option) *Authenticator {
	a := &Authenticator{
		cache:  cache,
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.extractor == nil {
		a.extractor = NewExtractor(nil)
	}
	if a.metrics != nil {
		a.metrics.Init(string(auth.AuthTypeBasic), FailureReasons()...)
	}

	return a
}

// Authenticate implements auth.Authenticator. Anonymous endpoints return
// NoResult without reading header. Otherwise the result is Success with
// the client's cached ticket, or Fail.
func (a *Authenticator) Authenticate(allowAnonymous bool, header string) auth.Result {
	if allowAnonymous {
		if a.metrics != nil {
			a.metrics.RecordOutcome(string(auth.AuthTypeBasic), auth.OutcomeNoResult, 0)
		}
		return auth.NoResult()
	}

	start := time.Now()

	var ticket *auth.Ticket
	err := a.extractor.Extract(header, func(clientID string, secret []byte) error {
		entry, ok := a.cache.TryGet(clientID)
		if !ok {
			return errUnknownClient
		}
		if !entry.Matches(secret, a.timingSafe) {
			return errSecretMismatch
		}
		ticket = entry.Ticket
		return nil
	})

	if err != nil {
		a.recordFailure(err, time.Since(start))
		return auth.Fail()
	}

	if a.metrics != nil {
		a.metrics.RecordOutcome(string(auth.AuthTypeBasic), auth.OutcomeSuccess, time.Since(start))
	}
	return auth.Success(ticket)
}

func (a *Authenticator) recordFailure(err error, duration time.Duration) {
	reason := "rejected"
	var f failure
	if errors.As(err, &f) {
		reason = string(f)
	}

	a.logger.Debug("basic authentication failed",
		observability.String("reason", reason),
	)

	if a.metrics != nil {
		a.metrics.RecordOutcome(string(auth.AuthTypeBasic), auth.OutcomeFail, duration)
		a.metrics.RecordFailure(string(auth.AuthTypeBasic), reason)
	}
}
