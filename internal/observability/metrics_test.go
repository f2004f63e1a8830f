package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := NewMetrics("")
	m.SetBuildInfo("1.0.0", "abc123", "2026-01-01")

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gateway",
		Name:      "test_total",
		Help:      "test counter",
	})
	require.NoError(t, m.Registerer().Register(counter))
	counter.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `gateway_build_info{build_time="2026-01-01",commit="abc123",version="1.0.0"} 1`)
	assert.Contains(t, string(body), "gateway_test_total 1")
	assert.Same(t, m.Registry(), m.Registerer())
}
