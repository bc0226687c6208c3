package newsletter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

// Provider webhook event types.
const (
	EventSent       = "email.sent"
	EventDelivered  = "email.delivered"
	EventOpened     = "email.opened"
	EventClicked    = "email.clicked"
	EventBounced    = "email.bounced"
	EventComplained = "email.complained"
)

var eventStatus = map[string]DeliveryStatus{
	EventDelivered:  DeliveryDelivered,
	EventOpened:     DeliveryOpened,
	EventClicked:    DeliveryClicked,
	EventBounced:    DeliveryBounced,
	EventComplained: DeliveryComplained,
}

// Event is a provider webhook payload.
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	EmailID string `json:"email_id"`
}

// WebhookObserver is told about every received event type.
type WebhookObserver interface {
	WebhookEvent(eventType string, attributed bool)
}

// Webhook attributes provider events to the campaign that sent the message.
type Webhook struct {
	repo     Repository
	logger   *slog.Logger
	observer WebhookObserver
	now      func() time.Time
}

func NewWebhook(repo Repository, logger *slog.Logger, observer WebhookObserver) *Webhook {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Webhook{repo: repo, logger: logger, observer: observer, now: time.Now}
}

// Handle applies e. Unknown event types and unknown message ids are
// ignored; only store failures are returned.
func (w *Webhook) Handle(ctx context.Context, e Event) error {
	status, tracked := eventStatus[e.Type]
	if !tracked || e.Data.EmailID == "" {
		w.observe(e.Type, false)
		return nil
	}

	d, err := w.repo.FindDelivery(ctx, e.Data.EmailID)
	if errors.Is(err, ErrDeliveryNotFound) {
		w.logger.InfoContext(ctx, "webhook event for unknown message",
			slog.String("type", e.Type),
			slog.String("message_id", e.Data.EmailID),
		)
		w.observe(e.Type, false)
		return nil
	}
	if err != nil {
		return errors.Join(ErrStore, err)
	}

	if err := w.repo.ApplyEvent(ctx, d, status, w.now().UTC()); err != nil {
		return errors.Join(ErrStore, err)
	}
	w.observe(e.Type, true)
	return nil
}

func (w *Webhook) observe(eventType string, attributed bool) {
	if w.observer != nil {
		w.observer.WebhookEvent(eventType, attributed)
	}
}
