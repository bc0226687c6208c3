package middlewares

import (
	"context"
	"net/http"
	"time"
)

// DefaultTimeout bounds public requests.
const DefaultTimeout = 30 * time.Second

// Timeout puts a deadline on the request context. Services see it through
// the Context and return context.DeadlineExceeded, which the error handler
// renders as 504.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		d = DefaultTimeout
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
