// Package subscriber implements the newsletter subscription lifecycle:
// double opt-in subscribe, confirm and unsubscribe.
package subscriber

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a subscriber.
type Status string

const (
	StatusPending      Status = "pending"
	StatusSubscribed   Status = "subscribed"
	StatusUnsubscribed Status = "unsubscribed"
)

// Reason is why a subscriber left.
type Reason string

const (
	ReasonTooMany         Reason = "too_many"
	ReasonNotRelevant     Reason = "not_relevant"
	ReasonNeverSubscribed Reason = "never_subscribed"
	ReasonOther           Reason = "other"
)

// NormalizeReason maps free text onto a known Reason. Empty stays empty.
func NormalizeReason(s string) Reason {
	switch r := Reason(s); r {
	case "":
		return ""
	case ReasonTooMany, ReasonNotRelevant, ReasonNeverSubscribed, ReasonOther:
		return r
	default:
		return ReasonOther
	}
}

// Subscriber is one newsletter recipient. Records are never deleted.
type Subscriber struct {
	ID                uuid.UUID
	Email             string
	Status            Status
	ConfirmationToken string
	UnsubscribeToken  string
	Tags              []string
	SubscribedAt      *time.Time
	ConfirmedAt       *time.Time
	UnsubscribedAt    *time.Time
	UnsubscribeReason Reason
	LastNewsletterID  *uuid.UUID
	ProviderID        string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Active reports whether the subscriber should receive campaigns.
func (s *Subscriber) Active() bool {
	return s.Status == StatusSubscribed
}

// Result is the outcome of an idempotent transition.
type Result struct {
	Subscriber *Subscriber
	// Unchanged is true when the subscriber was already in the target state.
	Unchanged bool
}

// Identifier selects a subscriber by link token or by address.
type Identifier struct {
	Token string
	Email string
}
