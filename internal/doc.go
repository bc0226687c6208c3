// Package internal is the HTTP core of the service: App, Context, Router,
// Handler and the error type handlers return.
//
// # Core Types
//
//   - App: owns the chi router, global middleware, health endpoints and the server lifecycle
//   - Context: request/response access, binding, rendering and request-scoped logging
//   - Router: the interface handlers declare routes on
//   - Handler: a type that registers routes
//   - HandlerFunc: a route handler that returns an error instead of writing one
//   - Middleware: wraps a HandlerFunc
//   - ErrorHandler: turns a returned error into a response
//
// # Context as context.Context
//
// Context embeds context.Context and delegates to the request context, so it
// can be passed straight to services and stores:
//
//	func (h *Newsletters) send(c internal.Context) error {
//	    res, err := h.sender.SendCampaign(c, req.NewsletterID)
//	    ...
//	}
//
// # Errors
//
// Handlers return errors. Domain errors are mapped by the application's
// ErrorHandler; an *HTTPError carries the status code and client message
// explicitly. Errors are ignored once a response has been written.
package internal
