package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/designneighbor/union-yoga-sanity/internal"
	"github.com/designneighbor/union-yoga-sanity/internal/emailview"
	"github.com/designneighbor/union-yoga-sanity/internal/newsletter"
	"github.com/designneighbor/union-yoga-sanity/internal/subscriber"
	"github.com/designneighbor/union-yoga-sanity/middlewares"
)

// NewsletterHandler serves the public subscription endpoints and the
// campaign operations under /api/newsletters.
type NewsletterHandler struct {
	subscriptions Subscriptions
	campaigns     Campaigns
	due           DueSender
	events        Events

	cronSecret    string
	webhookSecret string
	public        []func(http.Handler) http.Handler
	now           func() time.Time
}

// NewsletterOption configures a NewsletterHandler.
type NewsletterOption func(*NewsletterHandler)

// WithCronSecret protects the scheduled dispatch endpoint. Empty leaves it open.
func WithCronSecret(secret string) NewsletterOption {
	return func(h *NewsletterHandler) {
		h.cronSecret = secret
	}
}

// WithWebhookSecret protects the delivery webhook. Empty leaves it open.
func WithWebhookSecret(secret string) NewsletterOption {
	return func(h *NewsletterHandler) {
		h.webhookSecret = secret
	}
}

// WithPublicMiddleware wraps the endpoints reachable from the website
// (subscribe, confirm, unsubscribe), typically with a rate limiter.
func WithPublicMiddleware(mw ...func(http.Handler) http.Handler) NewsletterOption {
	return func(h *NewsletterHandler) {
		h.public = append(h.public, mw...)
	}
}

// WithClock overrides the time source of the scheduled dispatch.
func WithClock(now func() time.Time) NewsletterOption {
	return func(h *NewsletterHandler) {
		if now != nil {
			h.now = now
		}
	}
}

func NewNewsletterHandler(subs Subscriptions, campaigns Campaigns, due DueSender, events Events, opts ...NewsletterOption) *NewsletterHandler {
	h := &NewsletterHandler{
		subscriptions: subs,
		campaigns:     campaigns,
		due:           due,
		events:        events,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *NewsletterHandler) Routes(r internal.Router) {
	r.Route("/api/newsletters", func(r internal.Router) {
		r.Group(func(r internal.Router) {
			r.UseHTTP(h.public...)
			r.POST("/subscribe", h.subscribe)
			r.GET("/confirm", h.confirm)
			r.GET("/unsubscribe", h.unsubscribePage)
			r.POST("/unsubscribe", h.unsubscribe)
		})

		r.POST("/send", h.send)
		r.POST("/test", h.test)
		r.GET("/preview", h.preview)
		r.GET("/scheduled", h.scheduled,
			middlewares.RequireSecret(h.cronSecret, middlewares.WithOpenWhenUnset(), middlewares.WithRealm("cron")))
		r.POST("/webhook", h.webhook,
			middlewares.RequireSecret(h.webhookSecret, middlewares.WithOpenWhenUnset(), middlewares.WithRealm("webhook")))
	})
}

type subscribeRequest struct {
	Email string   `json:"email" validate:"required,looseemail"`
	Tags  []string `json:"tags"`
}

func (h *NewsletterHandler) subscribe(c internal.Context) error {
	var req subscribeRequest
	verrs, err := bind(c, &req)
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.Email) == "" {
		return internal.ErrBadRequest("Valid email address is required")
	}
	if len(verrs) > 0 {
		return internal.ErrBadRequest("Invalid email address format")
	}

	if _, err := h.subscriptions.Subscribe(c, req.Email, req.Tags); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":              true,
		"message":              "Confirmation email sent",
		"requiresConfirmation": true,
	})
}

func (h *NewsletterHandler) confirm(c internal.Context) error {
	res, err := h.subscriptions.Confirm(c, c.Query("token"), c.Query("email"))
	switch {
	case errors.Is(err, subscriber.ErrMissingToken):
		return c.Render(http.StatusBadRequest, emailview.PageInvalidConfirmation)
	case errors.Is(err, subscriber.ErrNotFound):
		return c.Render(http.StatusNotFound, emailview.PageInvalidConfirmation)
	case err != nil:
		c.LogError("confirm subscription", slog.Any("error", err))
		return c.Render(http.StatusInternalServerError, emailview.PageConfirmError)
	case res.Unchanged:
		return c.Render(http.StatusOK, emailview.PageAlreadyConfirmed)
	default:
		return c.Render(http.StatusOK, emailview.PageConfirmed)
	}
}

func (h *NewsletterHandler) unsubscribePage(c internal.Context) error {
	id := subscriber.Identifier{Token: c.Query("token"), Email: c.Query("email")}
	res, err := h.subscriptions.Unsubscribe(c, id, c.Query("reason"))
	switch {
	case errors.Is(err, subscriber.ErrMissingIdentifier):
		return c.Render(http.StatusBadRequest, emailview.PageInvalidUnsubscribe)
	case errors.Is(err, subscriber.ErrNotFound):
		return c.Render(http.StatusNotFound, emailview.PageInvalidUnsubscribe)
	case err != nil:
		c.LogError("unsubscribe", slog.Any("error", err))
		return c.Render(http.StatusInternalServerError, emailview.PageUnsubscribeError)
	case res.Unchanged:
		return c.Render(http.StatusOK, emailview.PageAlreadyUnsubscribed)
	default:
		return c.Render(http.StatusOK, emailview.PageUnsubscribed)
	}
}

type unsubscribeRequest struct {
	Token  string `json:"token"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

func (h *NewsletterHandler) unsubscribe(c internal.Context) error {
	var req unsubscribeRequest
	if _, err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.subscriptions.Unsubscribe(c, subscriber.Identifier{Token: req.Token, Email: req.Email}, req.Reason)
	if err != nil {
		return err
	}

	msg := "Successfully unsubscribed"
	if res.Unchanged {
		msg = "Already unsubscribed"
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": msg})
}

type sendRequest struct {
	NewsletterID string `json:"newsletterId"`
}

func (h *NewsletterHandler) send(c internal.Context) error {
	var req sendRequest
	if _, err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.campaigns.SendCampaign(c, req.NewsletterID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, struct {
		Success bool `json:"success"`
		*newsletter.SendResult
	}{Success: true, SendResult: res})
}

type testRequest struct {
	NewsletterID string `json:"newsletterId"`
	TestEmail    string `json:"testEmail"`
}

func (h *NewsletterHandler) test(c internal.Context) error {
	var req testRequest
	if _, err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.campaigns.SendTest(c, req.NewsletterID, req.TestEmail)
	if err != nil {
		if errors.Is(err, newsletter.ErrSendFailed) {
			cause := strings.TrimPrefix(err.Error(), newsletter.ErrSendFailed.Error()+": ")
			return internal.ErrInternal("Failed to send test email", internal.WithDetails(cause), internal.WithError(err))
		}
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"messageId": res.MessageID,
		"message":   fmt.Sprintf("Test email sent successfully to %s", res.Email),
	})
}

func (h *NewsletterHandler) preview(c internal.Context) error {
	html, err := h.campaigns.Preview(c, c.Query("id"))
	switch {
	case errors.Is(err, newsletter.ErrMissingID):
		return c.Render(http.StatusBadRequest, emailview.PreviewError("Newsletter ID is required", ""))
	case errors.Is(err, newsletter.ErrNotFound):
		return c.Render(http.StatusNotFound, emailview.PreviewError("Newsletter not found",
			fmt.Sprintf("The newsletter with ID %q could not be found.", c.Query("id"))))
	case err != nil:
		c.LogError("render preview", slog.Any("error", err))
		return c.Render(http.StatusInternalServerError,
			emailview.PreviewError("An error occurred while rendering the preview", ""))
	}
	return c.Blob(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (h *NewsletterHandler) scheduled(c internal.Context) error {
	results, err := h.due.ProcessDue(c, h.now())
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return c.JSON(http.StatusOK, map[string]any{
			"success":   true,
			"message":   "No scheduled newsletters to send",
			"processed": 0,
		})
	}

	c.LogInfo("scheduled newsletters processed", slog.Int("processed", len(results)))
	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"processed": len(results),
		"results":   results,
	})
}

func (h *NewsletterHandler) webhook(c internal.Context) error {
	var e newsletter.Event
	if _, err := c.BindJSON(&e); err != nil {
		return internal.ErrBadRequest("Invalid JSON payload", internal.WithError(err))
	}

	if err := h.events.Handle(c, e); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}
