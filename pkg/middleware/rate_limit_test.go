package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiterAllowsBurstThenThrottles(t *testing.T) {
	l := NewIPRateLimiter(60, 2)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "buckets are per IP")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"), "one token refills per second at 60/min")
}

func TestIPRateLimiterEvictsIdleVisitors(t *testing.T) {
	l := NewIPRateLimiter(60, 1)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("10.0.0.1")
	now = now.Add(idleLimiterTTL + time.Minute)
	l.Allow("10.0.0.2")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.visitors, "10.0.0.1")
	assert.Contains(t, l.visitors, "10.0.0.2")
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", NewIPRateLimiter(1, 1).Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send().Code)
	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"detail":"Request was throttled."}`, w.Body.String())
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}
