package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationEngine/internal/api/handlers"
)

// SessionMiddleware выдает идентификатор сессии оформления, если клиент его не передал
// Идентификатор возвращается в том же заголовке ответа
func SessionMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := r.Header.Get(handlers.SessionHeader)
			if session == "" {
				session = uuid.NewString()
				r.Header.Set(handlers.SessionHeader, session)
			}
			w.Header().Set(handlers.SessionHeader, session)
			next.ServeHTTP(w, r)
		})
	}
}
