// Package middlewares provides the HTTP middleware the service runs with.
//
// Context middleware (internal.Middleware):
//
//   - RequestID: keeps or generates a request ID and exposes it to logs via RequestIDExtractor
//   - Recover: converts panics into *PanicError for the ErrorHandler
//   - RequireSecret: bearer-secret guard for the cron, admin and webhook routes
//
// net/http middleware, installed with internal.WithHTTPMiddleware or
// Router.UseHTTP:
//
//   - CORS: go-chi/cors for the browser-facing endpoints
//   - RateLimit: go-chi/httprate per client IP
//   - Timeout: request deadline for public endpoints
//
// Recommended order:
//
//	internal.New(
//	    internal.WithHTTPMiddleware(middlewares.CORS(origins...)),
//	    internal.WithMiddleware(
//	        middlewares.RequestID(),
//	        middlewares.Recover(),
//	    ),
//	)
package middlewares
