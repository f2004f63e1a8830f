package health

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for health checks.
type Metrics struct {
	checksTotal *prometheus.CounterVec
	checkStatus *prometheus.GaugeVec
}

// NewMetrics creates health metrics registered with registerer.
// Registration errors for already registered collectors are ignored.
func NewMetrics(namespace string, registerer prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "gateway"
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		checksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "health",
				Name:      "checks_total",
				Help:      "Total number of health checks performed",
			},
			[]string{"type"},
		),
		checkStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "health",
				Name:      "check_status",
				Help:      "Current health check status (1=healthy, 0=unhealthy)",
			},
			[]string{"check"},
		),
	}

	_ = registerer.Register(m.checksTotal)
	_ = registerer.Register(m.checkStatus)

	for _, checkType := range []string{"health", "liveness", "readiness"} {
		m.checksTotal.WithLabelValues(checkType)
	}

	return m
}

func (m *Metrics) recordCheck(checkType string) {
	if m == nil {
		return
	}
	m.checksTotal.WithLabelValues(checkType).Inc()
}

// setCheckStatus treats degraded as healthy.
func (m *Metrics) setCheckStatus(check string, status Status) {
	if m == nil {
		return
	}
	value := 1.0
	if status == StatusUnhealthy {
		value = 0
	}
	m.checkStatus.WithLabelValues(check).Set(value)
}
