package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
)

const msgTooManyRequests = "слишком много запросов, повторите позже"

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SessionRateLimiter ограничивает частоту запросов одной сессии оформления
// Ключ - заголовок сессии, при его отсутствии адрес клиента
type SessionRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	idleTTL  time.Duration
	logger   Logger
}

func NewSessionRateLimiter(rps float64, burst int, logger Logger) *SessionRateLimiter {
	return &SessionRateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		idleTTL:  10 * time.Minute,
		logger:   logger,
	}
}

// Allow расходует токен ключа
func (l *SessionRateLimiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Cleanup удаляет ключи, не появлявшиеся дольше idleTTL
func (l *SessionRateLimiter) Cleanup(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idleTTL {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

// Run периодически чистит простаивающие ключи до отмены контекста
func (l *SessionRateLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.idleTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if removed := l.Cleanup(now); removed > 0 {
				l.logger.Info("Rate limiter cleanup: removed %d idle sessions", removed)
			}
		}
	}
}

// Middleware отклоняет запросы сверх лимита с кодом 429
func (l *SessionRateLimiter) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(handlers.SessionHeader)
			if key == "" {
				key = r.RemoteAddr
			}
			if !l.Allow(key, time.Now()) {
				l.logger.Warn("%s %s - Rate limit exceeded: key=%s", r.Method, r.URL.Path, key)
				handlers.RespondError(w, http.StatusTooManyRequests, msgTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
