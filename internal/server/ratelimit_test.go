package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"chat-wrapped/internal/metrics"
)

func TestIPRateLimiter(t *testing.T) {
	t.Run("Burst исчерпывается для одного IP", func(t *testing.T) {
		l := NewIPRateLimiter(0.001, 2, time.Minute)
		defer l.Stop()

		assert.True(t, l.Allow("10.0.0.1"))
		assert.True(t, l.Allow("10.0.0.1"))
		assert.False(t, l.Allow("10.0.0.1"))
		// Другой IP имеет собственный лимит
		assert.True(t, l.Allow("10.0.0.2"))
	})

	t.Run("Удаление неактивных ограничителей", func(t *testing.T) {
		l := NewIPRateLimiter(1, 1, time.Minute)
		defer l.Stop()

		l.Allow("10.0.0.1")
		l.removeIdle(time.Now().Add(time.Second))

		_, ok := l.limiters.Load("10.0.0.1")
		assert.False(t, ok)
	})

	t.Run("Повторный Stop не паникует", func(t *testing.T) {
		l := NewIPRateLimiter(1, 1, time.Minute)
		l.Stop()
		assert.NotPanics(t, l.Stop)
	})

	t.Run("Middleware возвращает 429", func(t *testing.T) {
		l := NewIPRateLimiter(0.001, 1, time.Minute)
		defer l.Stop()

		handler := l.Middleware(metrics.New())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/prompt/manual", nil)
		req.RemoteAddr = "192.168.1.5:4242"

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)

		rr = httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	})
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	assert.Equal(t, "203.0.113.7", clientIP(req))

	req.RemoteAddr = "203.0.113.7"
	assert.Equal(t, "203.0.113.7", clientIP(req))
}
