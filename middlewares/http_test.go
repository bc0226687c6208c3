package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/designneighbor/union-yoga-sanity/middlewares"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS(t *testing.T) {
	t.Parallel()

	t.Run("preflight from allowed origin", func(t *testing.T) {
		t.Parallel()

		h := middlewares.CORS("https://unionyoga.test")(okHandler())
		req := httptest.NewRequest(http.MethodOptions, "/api/newsletters/subscribe", nil)
		req.Header.Set("Origin", "https://unionyoga.test")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")

		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		require.Equal(t, "https://unionyoga.test", w.Header().Get("Access-Control-Allow-Origin"))
		require.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	})

	t.Run("foreign origin gets no headers", func(t *testing.T) {
		t.Parallel()

		h := middlewares.CORS("https://unionyoga.test")(okHandler())
		req := httptest.NewRequest(http.MethodPost, "/api/forms/submit", nil)
		req.Header.Set("Origin", "https://evil.test")

		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("any origin by default", func(t *testing.T) {
		t.Parallel()

		h := middlewares.CORS()(okHandler())
		req := httptest.NewRequest(http.MethodPost, "/api/forms/submit", nil)
		req.Header.Set("Origin", "https://other.test")

		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	h := middlewares.RateLimit(2, time.Minute)(okHandler())
	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/newsletters/subscribe", nil)
		req.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusOK, send("203.0.113.1"))
	require.Equal(t, http.StatusOK, send("203.0.113.1"))
	require.Equal(t, http.StatusTooManyRequests, send("203.0.113.1"))
	require.Equal(t, http.StatusOK, send("203.0.113.2"))
}

func TestRateLimit_Disabled(t *testing.T) {
	t.Parallel()

	h := middlewares.RateLimit(0, time.Minute)(okHandler())
	for range 5 {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	var deadline time.Time
	var hasDeadline bool
	h := middlewares.Timeout(time.Second)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		deadline, hasDeadline = r.Context().Deadline()
	}))

	start := time.Now()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, hasDeadline)
	require.WithinDuration(t, start.Add(time.Second), deadline, 500*time.Millisecond)
}

func TestTimeout_Expires(t *testing.T) {
	t.Parallel()

	var err error
	h := middlewares.Timeout(10 * time.Millisecond)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		err = r.Context().Err()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
