package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/vyrodovalexey/aclgw/internal/config"
)

func serveFrom(engine *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func newRateLimitEngine(rl *RateLimiter) *gin.Engine {
	engine := gin.New()
	engine.Use(RateLimit(rl))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return engine
}

func TestRateLimit_Global(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 2}, nil)
	defer rl.Stop()
	engine := newRateLimitEngine(rl)

	assert.Equal(t, http.StatusOK, serveFrom(engine, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, serveFrom(engine, "10.0.0.2:1000").Code)

	rec := serveFrom(engine, "10.0.0.3:1000")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRateLimit_PerClient(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 0.001,
		Burst:             1,
		PerClient:         true,
	}, nil)
	defer rl.Stop()
	engine := newRateLimitEngine(rl)

	assert.Equal(t, http.StatusOK, serveFrom(engine, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, serveFrom(engine, "10.0.0.1:2000").Code)
	assert.Equal(t, http.StatusOK, serveFrom(engine, "10.0.0.2:1000").Code)
}

func TestRateLimiter_CleanupOldClients(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(&config.RateLimitConfig{RequestsPerSecond: 10, Burst: 10, PerClient: true}, nil)
	defer rl.Stop()

	assert.Equal(t, config.DefaultClientTTL, rl.clientTTL)

	past := time.Now().Add(-time.Hour)
	rl.allowPerClient("10.0.0.1", past)
	rl.allowPerClient("10.0.0.2", time.Now())

	assert.Equal(t, 1, rl.CleanupOldClients(time.Minute))
	assert.Len(t, rl.clients, 1)
	assert.Contains(t, rl.clients, "10.0.0.2")
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(&config.RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             1,
		PerClient:         true,
		ClientTTL:         config.Duration(time.Second),
	}, nil)
	rl.StartAutoCleanup()

	assert.NotPanics(t, func() {
		rl.Stop()
		rl.Stop()
	})
}
