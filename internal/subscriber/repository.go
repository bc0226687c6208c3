package subscriber

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PendingParams describes a subscribe request as stored.
type PendingParams struct {
	ID                uuid.UUID // used only when a new row is created
	Email             string
	ConfirmationToken string
	Tags              []string
	At                time.Time
}

// Repository persists subscribers. Implementations must make every
// transition a single atomic statement.
type Repository interface {
	// UpsertPending creates a pending subscriber or resets an existing
	// non-subscribed one to pending with a new token, merging tags.
	// created reports whether a row was inserted. A subscribed row yields
	// ErrAlreadySubscribed.
	UpsertPending(ctx context.Context, p PendingParams) (sub *Subscriber, created bool, err error)

	// FindByConfirmationToken matches token and, when email is not empty, email.
	FindByConfirmationToken(ctx context.Context, token, email string) (*Subscriber, error)
	FindByUnsubscribeToken(ctx context.Context, token string) (*Subscriber, error)
	FindByEmail(ctx context.Context, email string) (*Subscriber, error)

	// Confirm moves a non-subscribed row to subscribed, setting the
	// unsubscribe token only if it has none. changed is false when the row
	// was already subscribed.
	Confirm(ctx context.Context, id uuid.UUID, unsubscribeToken string, at time.Time) (sub *Subscriber, changed bool, err error)

	// Unsubscribe moves a row that is not unsubscribed to unsubscribed.
	Unsubscribe(ctx context.Context, id uuid.UUID, reason Reason, at time.Time) (sub *Subscriber, changed bool, err error)
}
