package auth

// Outcome is the result kind of an authentication attempt.
type Outcome int

const (
	// OutcomeNoResult means the endpoint allows anonymous access and no
	// authentication was attempted.
	OutcomeNoResult Outcome = iota

	// OutcomeFail means credentials were missing or rejected.
	OutcomeFail

	// OutcomeSuccess means credentials matched a registered client.
	OutcomeSuccess
)

// String returns the metrics label for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeNoResult:
		return "no_result"
	case OutcomeFail:
		return "fail"
	case OutcomeSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Result is the outcome of Authenticate. Ticket is set only on success.
type Result struct {
	Outcome Outcome
	Ticket  *Ticket
}

// NoResult returns the result for anonymous endpoints.
func NoResult() Result {
	return Result{Outcome: OutcomeNoResult}
}

// Fail returns the single failure result. Every failure kind maps to it.
func Fail() Result {
	return Result{Outcome: OutcomeFail}
}

// Success returns a successful result carrying ticket.
func Success(ticket *Ticket) Result {
	return Result{Outcome: OutcomeSuccess, Ticket: ticket}
}

// Succeeded reports whether the result carries a ticket.
func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeSuccess && r.Ticket != nil
}

// Identity returns the ticket's identity, or nil.
func (r Result) Identity() *Identity {
	if r.Ticket == nil {
		return nil
	}
	return r.Ticket.Identity
}

// Authenticator authenticates a single request from its anonymous flag and
// its raw Authorization value. Implementations are safe for concurrent use
// and complete synchronously.
type Authenticator interface {
	Authenticate(allowAnonymous bool, header string) Result
}
