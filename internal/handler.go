package internal

// Handler declares routes on a router.
//
// Example:
//
//	type Forms struct {
//	    svc *forms.Service
//	}
//
//	func (h *Forms) Routes(r internal.Router) {
//	    r.POST("/api/forms/submit", h.submit)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers.
// Returning a non-nil error hands it to the App's ErrorHandler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc. It may short-circuit by returning without
// calling next.
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler renders errors returned from handlers.
type ErrorHandler func(Context, error) error
