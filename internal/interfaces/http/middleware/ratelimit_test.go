package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)

		for i := 0; i < 5; i++ {
			allowed, _ := limiter.Allow("client1")
			assert.True(t, allowed, "request %d should be allowed", i+1)
		}
	})

	t.Run("blocks requests exceeding limit", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute)

		for i := 0; i < 3; i++ {
			allowed, _ := limiter.Allow("client2")
			assert.True(t, allowed)
		}

		allowed, remaining := limiter.Allow("client2")
		assert.False(t, allowed)
		assert.Equal(t, 0, remaining)
	})

	t.Run("separate limits per client", func(t *testing.T) {
		limiter := NewRateLimiter(2, time.Minute)

		allowed, _ := limiter.Allow("clientA")
		assert.True(t, allowed)
		allowed, _ = limiter.Allow("clientA")
		assert.True(t, allowed)
		allowed, _ = limiter.Allow("clientA")
		assert.False(t, allowed)

		allowed, _ = limiter.Allow("clientB")
		assert.True(t, allowed)
	})

	t.Run("refills over time", func(t *testing.T) {
		limiter := NewRateLimiter(2, time.Minute)
		now := time.Now()
		limiter.now = func() time.Time { return now }

		limiter.Allow("client3")
		limiter.Allow("client3")
		allowed, _ := limiter.Allow("client3")
		assert.False(t, allowed)

		// one token every 30s
		now = now.Add(31 * time.Second)
		allowed, _ = limiter.Allow("client3")
		assert.True(t, allowed)
	})

	t.Run("idle clients are swept", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		now := time.Now()
		limiter.now = func() time.Time { return now }

		limiter.Allow("old")
		now = now.Add(3 * time.Minute)
		limiter.Allow("new")

		assert.NotContains(t, limiter.clients, "old")
		assert.Contains(t, limiter.clients, "new")
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.POST("/signin", RateLimit(NewRateLimiter(2, time.Minute)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/signin", nil)
		req.RemoteAddr = "192.0.2.10:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := send()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, send().Code)

	blocked := send()
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "1", blocked.Header().Get("Retry-After"))
	assert.Contains(t, blocked.Body.String(), "ERR_RATE_LIMITED")
}
