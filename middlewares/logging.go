package middlewares

import (
	"log/slog"
	"time"

	"github.com/designneighbor/union-yoga-sanity/internal"
)

// RequestLogger logs one line per request with its status and duration.
// Requests to the given paths (health probes, metrics scrapes) are skipped.
func RequestLogger(skip ...string) internal.Middleware {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			path := c.Request().URL.Path
			if _, ok := skipped[path]; ok {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			attrs := []any{
				slog.String("method", c.Request().Method),
				slog.String("path", path),
				slog.Duration("duration", time.Since(start)),
			}
			if rw, ok := c.Response().(*internal.ResponseWriter); ok && rw.Written() {
				attrs = append(attrs, slog.Int("status", rw.Status()))
			}
			if err != nil {
				// The error handler runs after this middleware returns.
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			c.LogInfo("request completed", attrs...)
			return err
		}
	}
}
