package audit

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of audit event.
type EventType string

// Audit event types.
const (
	EventTypeAuthentication EventType = "authentication"
	EventTypeConfiguration  EventType = "configuration"
)

// Action represents the audited action.
type Action string

// Audit actions.
const (
	ActionAccess       Action = "access"
	ActionConfigReload Action = "config_reload"
)

// Outcome represents the outcome of the audited action.
type Outcome string

// Audit outcomes.
const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Level represents the audit log level.
type Level string

// Audit log levels.
const (
	LevelInfo Level = "info"
	LevelWarn Level = "warn"
)

// Event represents an audit event.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	Type    EventType `json:"type"`
	Action  Action    `json:"action"`
	Outcome Outcome   `json:"outcome"`
	Level   Level     `json:"level"`

	// Subject is the caller. ClientID is only set when the credentials
	// were accepted.
	Subject *Subject `json:"subject,omitempty"`

	// Resource is what the caller tried to reach.
	Resource *Resource `json:"resource,omitempty"`

	// RequestID correlates the event with the access log.
	RequestID string `json:"request_id,omitempty"`

	TraceID string `json:"trace_id,omitempty"`
	SpanID  string `json:"span_id,omitempty"`

	// Error is a human readable failure description.
	Error string `json:"error,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Subject identifies the caller.
type Subject struct {
	ClientID   string `json:"client_id,omitempty"`
	IPAddress  string `json:"ip_address,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
	AuthMethod string `json:"auth_method,omitempty"`
}

// Resource identifies the target of a request.
type Resource struct {
	// Service is "http" or "grpc".
	Service string `json:"service,omitempty"`
	Path    string `json:"path,omitempty"`
	Method  string `json:"method,omitempty"`
}

// NewEvent creates a new audit event with default values.
func NewEvent(eventType EventType, action Action, outcome Outcome) *Event {
	level := LevelInfo
	if outcome == OutcomeFailure {
		level = LevelWarn
	}
	return &Event{
		ID:        generateEventID(),
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		Action:    action,
		Outcome:   outcome,
		Level:     level,
	}
}

// WithSubject sets the subject.
func (e *Event) WithSubject(subject *Subject) *Event {
	e.Subject = subject
	return e
}

// WithResource sets the resource.
func (e *Event) WithResource(resource *Resource) *Event {
	e.Resource = resource
	return e
}

// WithRequestID sets the request ID.
func (e *Event) WithRequestID(requestID string) *Event {
	e.RequestID = requestID
	return e
}

// WithError sets the error description.
func (e *Event) WithError(err error) *Event {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithMetadata adds metadata to the event.
func (e *Event) WithMetadata(key string, value interface{}) *Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func generateEventID() string {
	return uuid.New().String()
}

// AuthenticationEvent creates an authentication audit event.
func AuthenticationEvent(outcome Outcome, subject *Subject, resource *Resource) *Event {
	return NewEvent(EventTypeAuthentication, ActionAccess, outcome).
		WithSubject(subject).
		WithResource(resource)
}

// ConfigReloadEvent creates a configuration reload audit event. A nil err
// means the new client table was published.
func ConfigReloadEvent(generation uint64, clients int, err error) *Event {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	event := NewEvent(EventTypeConfiguration, ActionConfigReload, outcome).
		WithMetadata("generation", generation).
		WithError(err)
	if err == nil {
		event.WithMetadata("clients", clients)
	}
	return event
}
