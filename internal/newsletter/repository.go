package newsletter

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/designneighbor/union-yoga-sanity/internal/content"
	"github.com/designneighbor/union-yoga-sanity/internal/provider"
	"github.com/designneighbor/union-yoga-sanity/internal/subscriber"
)

// Repository persists campaigns and their deliveries.
type Repository interface {
	Create(ctx context.Context, n *Newsletter) error
	// Get returns ErrNotFound when no campaign has id.
	Get(ctx context.Context, id uuid.UUID) (*Newsletter, error)
	// ListDue returns scheduled campaigns whose send time is at or before now.
	ListDue(ctx context.Context, now time.Time) ([]Newsletter, error)
	// Schedule sets the send time of a draft or scheduled campaign.
	// A sent campaign yields ErrInvalidTransition.
	Schedule(ctx context.Context, id uuid.UUID, at time.Time) (*Newsletter, error)
	// MarkSent records the outcome unless the campaign is already sent.
	// changed is false when another send got there first.
	MarkSent(ctx context.Context, id uuid.UUID, sentCount int, at time.Time) (changed bool, err error)

	RecordDelivery(ctx context.Context, d Delivery) error
	// FindDelivery returns ErrDeliveryNotFound for unknown message ids.
	FindDelivery(ctx context.Context, messageID string) (*Delivery, error)
	// ApplyEvent sets the delivery status and bumps the matching campaign
	// counter in one transaction.
	ApplyEvent(ctx context.Context, d *Delivery, status DeliveryStatus, at time.Time) error
}

// Audience is the subscriber side of a send.
type Audience interface {
	// ListSubscribed returns subscribed recipients in a stable order.
	ListSubscribed(ctx context.Context) ([]subscriber.Subscriber, error)
	// EnsureUnsubscribeToken stores token unless one exists and returns
	// the token in effect.
	EnsureUnsubscribeToken(ctx context.Context, id uuid.UUID, token string) (string, error)
	SetLastNewsletter(ctx context.Context, subscriberID, newsletterID uuid.UUID) error
}

// Providers resolves the provider for a campaign's platform.
type Providers interface {
	For(platform provider.Platform) (provider.Provider, error)
}

// Enricher resolves dynamic blocks before rendering.
type Enricher interface {
	Enrich(ctx context.Context, blocks content.Blocks) content.Blocks
}
