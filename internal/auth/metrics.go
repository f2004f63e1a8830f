package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for authentication operations.
type Metrics struct {
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	failureTotal       *prometheus.CounterVec
	registryGeneration prometheus.Gauge
	registryClients    prometheus.Gauge
	rebuildsTotal      *prometheus.CounterVec
}

// NewMetrics creates auth metrics registered with prometheus.DefaultRegisterer.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer creates auth metrics registered with registerer.
// Registration errors for already registered collectors are ignored.
func NewMetricsWithRegisterer(namespace string, registerer prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "gateway"
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "requests_total",
			Help:      "Total number of authentication attempts by outcome",
		},
		[]string{"auth_type", "outcome"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "request_duration_seconds",
			Help:      "Authentication duration in seconds",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		},
		[]string{"auth_type", "outcome"},
	)

	m.failureTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "failure_total",
			Help:      "Total number of failed authentications by internal reason",
		},
		[]string{"auth_type", "reason"},
	)

	m.registryGeneration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "registry_generation",
			Help:      "Generation number of the published client registry",
		},
	)

	m.registryClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "registry_clients",
			Help:      "Number of clients in the published client registry",
		},
	)

	m.rebuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "registry_rebuilds_total",
			Help:      "Total number of client registry rebuild attempts",
		},
		[]string{"status"},
	)

	for _, c := range []prometheus.Collector{
		m.requestsTotal,
		m.requestDuration,
		m.failureTotal,
		m.registryGeneration,
		m.registryClients,
		m.rebuildsTotal,
	} {
		_ = registerer.Register(c)
	}

	return m
}

// Init pre-populates label combinations so series appear before traffic.
func (m *Metrics) Init(authType string, reasons ...string) {
	for _, o := range []Outcome{OutcomeNoResult, OutcomeFail, OutcomeSuccess} {
		m.requestsTotal.WithLabelValues(authType, o.String())
		m.requestDuration.WithLabelValues(authType, o.String())
	}
	for _, r := range reasons {
		m.failureTotal.WithLabelValues(authType, r)
	}
	for _, s := range []string{"success", "failure"} {
		m.rebuildsTotal.WithLabelValues(s)
	}
}

// RecordOutcome records one authentication attempt.
func (m *Metrics) RecordOutcome(authType string, outcome Outcome, duration time.Duration) {
	m.requestsTotal.WithLabelValues(authType, outcome.String()).Inc()
	m.requestDuration.WithLabelValues(authType, outcome.String()).Observe(duration.Seconds())
}

// RecordFailure records the internal reason of a failed attempt.
func (m *Metrics) RecordFailure(authType, reason string) {
	m.failureTotal.WithLabelValues(authType, reason).Inc()
}

// SetRegistry publishes the current registry generation and size.
func (m *Metrics) SetRegistry(generation uint64, clients int) {
	m.registryGeneration.Set(float64(generation))
	m.registryClients.Set(float64(clients))
}

// RecordRebuild records a registry rebuild attempt.
func (m *Metrics) RecordRebuild(success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	m.rebuildsTotal.WithLabelValues(status).Inc()
}
