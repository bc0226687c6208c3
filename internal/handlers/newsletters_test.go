package handlers_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/designneighbor/union-yoga-sanity/internal/handlers"
	"github.com/designneighbor/union-yoga-sanity/internal/newsletter"
	"github.com/designneighbor/union-yoga-sanity/internal/provider"
	"github.com/designneighbor/union-yoga-sanity/internal/subscriber"
)

func newsletterHandler(subs *fakeSubscriptions, campaigns *fakeCampaigns, opts ...handlers.NewsletterOption) *handlers.NewsletterHandler {
	if subs == nil {
		subs = &fakeSubscriptions{}
	}
	if campaigns == nil {
		campaigns = &fakeCampaigns{}
	}
	return handlers.NewNewsletterHandler(subs, campaigns, &fakeDue{}, &fakeEvents{}, opts...)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestSubscribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		err     error
		code    int
		message string
	}{
		{name: "accepted", body: `{"email":"ann@example.com","tags":["yoga"]}`, code: http.StatusOK},
		{name: "missing email", body: `{"email":"  "}`, code: http.StatusBadRequest, message: "Valid email address is required"},
		{name: "bad format", body: `{"email":"nope"}`, code: http.StatusBadRequest, message: "Invalid email address format"},
		{name: "bad format from service", body: `{"email":"ann@example.com"}`, err: subscriber.ErrInvalidEmail, code: http.StatusBadRequest, message: "Invalid email address format"},
		{name: "already subscribed", body: `{"email":"ann@example.com"}`, err: subscriber.ErrAlreadySubscribed, code: http.StatusBadRequest, message: "Email is already subscribed"},
		{name: "confirmation not sent", body: `{"email":"ann@example.com"}`, err: subscriber.ErrConfirmationNotSent, code: http.StatusInternalServerError, message: "Failed to send confirmation email"},
		{name: "store failure hidden", body: `{"email":"ann@example.com"}`, err: errors.Join(subscriber.ErrStore, errors.New("pq: boom")), code: http.StatusInternalServerError, message: "Internal server error"},
		{name: "malformed body", body: `{"email":`, code: http.StatusBadRequest, message: "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			subs := &fakeSubscriptions{subscribeErr: tt.err}
			w := serve(t, jsonRequest(http.MethodPost, "/api/newsletters/subscribe", tt.body), newsletterHandler(subs, nil))

			require.Equal(t, tt.code, w.Code)
			body := decode(t, w)
			if tt.message != "" {
				assert.Equal(t, tt.message, body["error"])
				if tt.err == nil {
					assert.Empty(t, subs.gotEmail)
				}
				return
			}
			assert.Equal(t, true, body["success"])
			assert.Equal(t, "Confirmation email sent", body["message"])
			assert.Equal(t, true, body["requiresConfirmation"])
			assert.Equal(t, []string{"yoga"}, subs.gotTags)
		})
	}
}

func TestConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		result  *subscriber.Result
		err     error
		code    int
		heading string
	}{
		{name: "confirmed", result: &subscriber.Result{}, code: http.StatusOK, heading: "Subscription Confirmed!"},
		{name: "already confirmed", result: &subscriber.Result{Unchanged: true}, code: http.StatusOK, heading: "Already Confirmed"},
		{name: "missing token", err: subscriber.ErrMissingToken, code: http.StatusBadRequest, heading: "Invalid Confirmation Link"},
		{name: "no match", err: subscriber.ErrNotFound, code: http.StatusNotFound, heading: "Invalid Confirmation Link"},
		{name: "store failure", err: subscriber.ErrStore, code: http.StatusInternalServerError, heading: "Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			subs := &fakeSubscriptions{result: tt.result, err: tt.err}
			req := httptest.NewRequest(http.MethodGet, "/api/newsletters/confirm?token=tok&email=ann%40example.com", nil)
			w := serve(t, req, newsletterHandler(subs, nil))

			require.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
			assert.Contains(t, w.Body.String(), "<h1")
			assert.Contains(t, w.Body.String(), tt.heading)
			assert.Equal(t, "tok", subs.gotToken)
			assert.Equal(t, "ann@example.com", subs.gotEmail)
		})
	}
}

func TestUnsubscribePage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		result  *subscriber.Result
		err     error
		code    int
		heading string
	}{
		{name: "unsubscribed", result: &subscriber.Result{}, code: http.StatusOK, heading: "Successfully Unsubscribed"},
		{name: "already", result: &subscriber.Result{Unchanged: true}, code: http.StatusOK, heading: "Already Unsubscribed"},
		{name: "missing identifier", err: subscriber.ErrMissingIdentifier, code: http.StatusBadRequest, heading: "Invalid Unsubscribe Link"},
		{name: "no match", err: subscriber.ErrNotFound, code: http.StatusNotFound, heading: "Invalid Unsubscribe Link"},
		{name: "failure", err: errors.New("boom"), code: http.StatusInternalServerError, heading: "An error occurred while unsubscribing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			subs := &fakeSubscriptions{result: tt.result, err: tt.err}
			req := httptest.NewRequest(http.MethodGet, "/api/newsletters/unsubscribe?token=u-tok&reason=too_many", nil)
			w := serve(t, req, newsletterHandler(subs, nil))

			require.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.heading)
			assert.Equal(t, subscriber.Identifier{Token: "u-tok"}, subs.gotID)
			assert.Equal(t, "too_many", subs.gotReason)
		})
	}
}

func TestUnsubscribeJSON(t *testing.T) {
	t.Parallel()

	subs := &fakeSubscriptions{result: &subscriber.Result{Unchanged: true}}
	w := serve(t, jsonRequest(http.MethodPost, "/api/newsletters/unsubscribe", `{"email":"ann@example.com","reason":"other"}`),
		newsletterHandler(subs, nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Already unsubscribed", body["message"])
	assert.Equal(t, subscriber.Identifier{Email: "ann@example.com"}, subs.gotID)

	subs = &fakeSubscriptions{err: subscriber.ErrNotFound}
	w = serve(t, jsonRequest(http.MethodPost, "/api/newsletters/unsubscribe", `{"token":"x"}`), newsletterHandler(subs, nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Subscriber not found", decode(t, w)["error"])
}

func TestSend(t *testing.T) {
	t.Parallel()

	t.Run("reports counts", func(t *testing.T) {
		t.Parallel()

		campaigns := &fakeCampaigns{send: &newsletter.SendResult{
			SentCount:        2,
			FailedCount:      1,
			TotalSubscribers: 3,
			Errors:           []string{"Failed to send to c@example.com: bounced"},
		}}
		w := serve(t, jsonRequest(http.MethodPost, "/api/newsletters/send", `{"newsletterId":"nl-1"}`), newsletterHandler(nil, campaigns))

		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, true, body["success"])
		assert.EqualValues(t, 2, body["sentCount"])
		assert.EqualValues(t, 1, body["failedCount"])
		assert.EqualValues(t, 3, body["totalSubscribers"])
		assert.Len(t, body["errors"], 1)
		assert.Equal(t, "nl-1", campaigns.gotID)
	})

	tests := []struct {
		err     error
		code    int
		message string
	}{
		{newsletter.ErrMissingID, http.StatusBadRequest, "Newsletter ID is required"},
		{newsletter.ErrNotFound, http.StatusNotFound, "could not be found"},
		{newsletter.ErrEmptyContent, http.StatusBadRequest, "Newsletter has no content blocks"},
		{newsletter.ErrAlreadySent, http.StatusBadRequest, "Newsletter has already been sent"},
		{newsletter.ErrNoSubscribers, http.StatusBadRequest, "No active subscribers found"},
		{fmt.Errorf("resolve provider: %w", provider.ErrMisconfigured), http.StatusInternalServerError, "Email service not configured"},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			t.Parallel()

			w := serve(t, jsonRequest(http.MethodPost, "/api/newsletters/send", `{}`), newsletterHandler(nil, &fakeCampaigns{err: tt.err}))
			require.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.message, decode(t, w)["error"])
		})
	}
}

func TestSendTestEmail(t *testing.T) {
	t.Parallel()

	campaigns := &fakeCampaigns{test: &newsletter.TestResult{MessageID: "msg-1", Email: "me@example.com"}}
	w := serve(t, jsonRequest(http.MethodPost, "/api/newsletters/test", `{"newsletterId":"nl-1","testEmail":"me@example.com"}`),
		newsletterHandler(nil, campaigns))

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "msg-1", body["messageId"])
	assert.Equal(t, "Test email sent successfully to me@example.com", body["message"])
	assert.Equal(t, "me@example.com", campaigns.gotEmail)

	campaigns = &fakeCampaigns{err: fmt.Errorf("%w: %w", newsletter.ErrSendFailed, errors.New("domain not verified"))}
	w = serve(t, jsonRequest(http.MethodPost, "/api/newsletters/test", `{"newsletterId":"nl-1","testEmail":"me@example.com"}`),
		newsletterHandler(nil, campaigns))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	body = decode(t, w)
	assert.Equal(t, "Failed to send test email", body["error"])
	assert.Equal(t, "domain not verified", body["details"])

	w = serve(t, jsonRequest(http.MethodPost, "/api/newsletters/test", `{"newsletterId":"nl-1"}`),
		newsletterHandler(nil, &fakeCampaigns{err: newsletter.ErrMissingTestEmail}))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Test email address is required", decode(t, w)["error"])
}

func TestPreview(t *testing.T) {
	t.Parallel()

	campaigns := &fakeCampaigns{preview: "<html><body>Spring retreat</body></html>"}
	w := serve(t, httptest.NewRequest(http.MethodGet, "/api/newsletters/preview?id=nl-1", nil), newsletterHandler(nil, campaigns))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, campaigns.preview, w.Body.String())
	assert.Equal(t, "nl-1", campaigns.gotID)

	tests := []struct {
		err     error
		code    int
		message string
	}{
		{newsletter.ErrMissingID, http.StatusBadRequest, "Newsletter ID is required"},
		{newsletter.ErrNotFound, http.StatusNotFound, "Newsletter not found"},
		{errors.Join(newsletter.ErrRender, errors.New("bad block")), http.StatusInternalServerError, "An error occurred while rendering the preview"},
	}
	for _, tt := range tests {
		w := serve(t, httptest.NewRequest(http.MethodGet, "/api/newsletters/preview?id=nl-9", nil), newsletterHandler(nil, &fakeCampaigns{err: tt.err}))
		require.Equal(t, tt.code, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), tt.message)
		assert.NotContains(t, w.Body.String(), "bad block")
	}
}

func TestScheduled(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("nothing due", func(t *testing.T) {
		t.Parallel()

		due := &fakeDue{}
		h := handlers.NewNewsletterHandler(&fakeSubscriptions{}, &fakeCampaigns{}, due, &fakeEvents{},
			handlers.WithClock(func() time.Time { return now }))
		w := serve(t, httptest.NewRequest(http.MethodGet, "/api/newsletters/scheduled", nil), h)

		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "No scheduled newsletters to send", body["message"])
		assert.EqualValues(t, 0, body["processed"])
		assert.Equal(t, now, due.gotNow)
	})

	t.Run("processed with secret", func(t *testing.T) {
		t.Parallel()

		due := &fakeDue{results: []newsletter.DueResult{
			{NewsletterID: "nl-1", Title: "Spring", Success: true, Result: &newsletter.SendResult{SentCount: 3, TotalSubscribers: 3}},
			{NewsletterID: "nl-2", Title: "Summer", Error: "newsletter: no active subscribers"},
		}}
		h := handlers.NewNewsletterHandler(&fakeSubscriptions{}, &fakeCampaigns{}, due, &fakeEvents{}, handlers.WithCronSecret("cron-s3cret"))

		req := httptest.NewRequest(http.MethodGet, "/api/newsletters/scheduled", nil)
		req.Header.Set("Authorization", "Bearer cron-s3cret")
		w := serve(t, req, h)

		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.EqualValues(t, 2, body["processed"])
		results, ok := body["results"].([]any)
		require.True(t, ok)
		require.Len(t, results, 2)
		assert.Equal(t, "nl-1", results[0].(map[string]any)["newsletterId"])
		assert.Equal(t, false, results[1].(map[string]any)["success"])
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()

		due := &fakeDue{}
		h := handlers.NewNewsletterHandler(&fakeSubscriptions{}, &fakeCampaigns{}, due, &fakeEvents{}, handlers.WithCronSecret("cron-s3cret"))

		req := httptest.NewRequest(http.MethodGet, "/api/newsletters/scheduled", nil)
		req.Header.Set("Authorization", "Bearer nope")
		w := serve(t, req, h)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthorized", decode(t, w)["error"])
		assert.True(t, due.gotNow.IsZero())
	})
}

func TestWebhook(t *testing.T) {
	t.Parallel()

	events := &fakeEvents{}
	h := handlers.NewNewsletterHandler(&fakeSubscriptions{}, &fakeCampaigns{}, &fakeDue{}, events)

	w := serve(t, jsonRequest(http.MethodPost, "/api/newsletters/webhook", `{"type":"email.opened","data":{"email_id":"msg-9"}}`), h)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])
	require.Len(t, events.got, 1)
	assert.Equal(t, "email.opened", events.got[0].Type)
	assert.Equal(t, "msg-9", events.got[0].Data.EmailID)

	w = serve(t, jsonRequest(http.MethodPost, "/api/newsletters/webhook", `not json`), h)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid JSON payload", decode(t, w)["error"])

	events.err = errors.Join(newsletter.ErrStore, errors.New("conn reset"))
	w = serve(t, jsonRequest(http.MethodPost, "/api/newsletters/webhook", `{"type":"email.bounced","data":{"email_id":"msg-9"}}`), h)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWebhook_Secret(t *testing.T) {
	t.Parallel()

	events := &fakeEvents{}
	h := handlers.NewNewsletterHandler(&fakeSubscriptions{}, &fakeCampaigns{}, &fakeDue{}, events, handlers.WithWebhookSecret("wh"))

	w := serve(t, jsonRequest(http.MethodPost, "/api/newsletters/webhook", `{"type":"email.sent","data":{"email_id":"m"}}`), h)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, events.got)

	req := jsonRequest(http.MethodPost, "/api/newsletters/webhook", `{"type":"email.sent","data":{"email_id":"m"}}`)
	req.Header.Set("Authorization", "Bearer wh")
	w = serve(t, req, h)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, events.got, 1)
}

func TestPublicMiddleware_WrapsOnlyPublicRoutes(t *testing.T) {
	t.Parallel()

	blocked := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	campaigns := &fakeCampaigns{send: &newsletter.SendResult{}}
	h := newsletterHandler(nil, campaigns, handlers.WithPublicMiddleware(blocked))

	w := serve(t, jsonRequest(http.MethodPost, "/api/newsletters/subscribe", `{"email":"ann@example.com"}`), h)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = serve(t, jsonRequest(http.MethodPost, "/api/newsletters/send", `{"newsletterId":"nl-1"}`), h)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	w := serve(t, httptest.NewRequest(http.MethodGet, "/api/nope", nil), newsletterHandler(nil, nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", decode(t, w)["error"])
}
