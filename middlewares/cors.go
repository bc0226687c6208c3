package middlewares

import (
	"net/http"

	"github.com/go-chi/cors"
)

// DefaultCORSMaxAge is the preflight cache duration in seconds.
const DefaultCORSMaxAge = 300

// CORS allows the public site to call the API from the browser. An empty
// origin list allows any origin.
func CORS(origins ...string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         DefaultCORSMaxAge,
	})
}
