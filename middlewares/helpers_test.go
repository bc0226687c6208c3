package middlewares_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/designneighbor/union-yoga-sanity/internal"
	"github.com/designneighbor/union-yoga-sanity/middlewares"
)

type routes func(r internal.Router)

func (f routes) Routes(r internal.Router) { f(r) }

// errorJSON mirrors the production error handler closely enough to assert
// status codes.
func errorJSON(c internal.Context, err error) error {
	if httpErr := internal.AsHTTPError(err); httpErr != nil {
		return c.JSON(httpErr.Code, map[string]string{"error": httpErr.Message})
	}
	if _, ok := middlewares.AsPanicError(err); ok {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	if errors.Is(err, errTeapot) {
		return c.String(http.StatusTeapot, "teapot")
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

var errTeapot = errors.New("teapot")

// serve registers h at GET / behind mw and serves req.
func serve(t *testing.T, req *http.Request, h internal.HandlerFunc, mw ...internal.Middleware) *httptest.ResponseRecorder {
	t.Helper()

	app := internal.New(
		internal.WithErrorHandler(errorJSON),
		internal.WithHandlers(routes(func(r internal.Router) {
			r.GET("/", h, mw...)
			r.POST("/", h, mw...)
		})),
	)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func ok(c internal.Context) error {
	return c.String(http.StatusOK, "ok")
}
