package audit

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains audit metrics.
type Metrics struct {
	eventsTotal *prometheus.CounterVec
}

// NewMetrics creates new audit metrics registered with the default
// registerer.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer creates new audit metrics registered with
// the provided registerer.
func NewMetricsWithRegisterer(namespace string, registerer prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "gateway"
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "audit",
				Name:      "events_total",
				Help:      "Total number of audit events",
			},
			[]string{"type", "action", "outcome"},
		),
	}

	// descriptors are identical on re-registration
	_ = registerer.Register(m.eventsTotal)

	m.Init()

	return m
}

// Init pre-populates the label combinations the gateway emits so the
// series are visible before the first event.
func (m *Metrics) Init() {
	if m.eventsTotal == nil {
		return
	}

	for _, o := range []Outcome{OutcomeSuccess, OutcomeFailure} {
		m.eventsTotal.WithLabelValues(string(EventTypeAuthentication), string(ActionAccess), string(o))
		m.eventsTotal.WithLabelValues(string(EventTypeConfiguration), string(ActionConfigReload), string(o))
	}
}

// RecordEvent records an audit event metric.
func (m *Metrics) RecordEvent(eventType EventType, action Action, outcome Outcome) {
	if m == nil || m.eventsTotal == nil {
		return
	}
	m.eventsTotal.WithLabelValues(string(eventType), string(action), string(outcome)).Inc()
}
