package ratelimit

import (
	"fmt"
	"net/http"

	"github.com/PunchlogHQ/punchlog-web/internal/auth"
	"github.com/PunchlogHQ/punchlog-web/internal/logger"
)

// Middleware rate-limits requests keyed by the authenticated user, falling
// back to the remote address for unauthenticated requests. Must be placed
// after the auth middleware for the user key to apply.
func Middleware(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := requestKey(r)

			if !limiter.Allow(r.Context(), key) {
				logger.Warn("rate limit exceeded", "key", key, "path", r.URL.Path)
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requestKey(r *http.Request) string {
	if userID, ok := auth.GetUserID(r.Context()); ok {
		return fmt.Sprintf("user:%d", userID)
	}
	return "ip:" + r.RemoteAddr
}
