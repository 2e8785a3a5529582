package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"chat-wrapped/internal/metrics"
)

// IPRateLimiter хранит отдельный token bucket для каждого IP клиента.
type IPRateLimiter struct {
	rate  rate.Limit
	burst int

	limiters   sync.Map // map[string]*rate.Limiter
	lastAccess sync.Map // map[string]time.Time

	maxAge      time.Duration
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewIPRateLimiter создает ограничитель на rps запросов в секунду с запасом burst.
// Неиспользуемые ограничители удаляются раз в cleanupInterval.
func NewIPRateLimiter(rps float64, burst int, cleanupInterval time.Duration) *IPRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	l := &IPRateLimiter{
		rate:        rate.Limit(rps),
		burst:       burst,
		maxAge:      2 * cleanupInterval,
		stopCleanup: make(chan struct{}),
	}
	go l.cleanup(cleanupInterval)
	return l
}

// Allow сообщает, можно ли обработать запрос с данного ключа.
func (l *IPRateLimiter) Allow(key string) bool {
	l.lastAccess.Store(key, time.Now())
	return l.getLimiter(key).Allow()
}

func (l *IPRateLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, ok := l.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}
	actual, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.rate, l.burst))
	return actual.(*rate.Limiter)
}

func (l *IPRateLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.removeIdle(time.Now().Add(-l.maxAge))
		case <-l.stopCleanup:
			return
		}
	}
}

func (l *IPRateLimiter) removeIdle(cutoff time.Time) {
	l.lastAccess.Range(func(key, value any) bool {
		if value.(time.Time).Before(cutoff) {
			l.limiters.Delete(key)
			l.lastAccess.Delete(key)
		}
		return true
	})
}

// Stop останавливает фоновую очистку.
func (l *IPRateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

// Middleware отклоняет запросы сверх лимита с кодом 429.
// Ключом служит r.RemoteAddr, поэтому перед ним должен стоять middleware.RealIP.
func (l *IPRateLimiter) Middleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(clientIP(r)) {
				m.RateLimited()
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Слишком много запросов", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
