// Package newsletter sends campaigns to subscribers, previews them, runs
// scheduled sends and attributes provider webhook events.
package newsletter

import (
	"time"

	"github.com/google/uuid"

	"github.com/designneighbor/union-yoga-sanity/internal/content"
	"github.com/designneighbor/union-yoga-sanity/internal/provider"
)

// Status of a campaign. It only moves forward.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusSent      Status = "sent"
)

// Newsletter is a campaign authored in the CMS.
type Newsletter struct {
	ID                uuid.UUID         `json:"id"`
	Title             string            `json:"title"`
	Content           content.Blocks    `json:"content"`
	Status            Status            `json:"status"`
	Platform          provider.Platform `json:"platform"`
	ScheduledSendTime *time.Time        `json:"scheduledSendTime,omitempty"`
	SentAt            *time.Time        `json:"sentAt,omitempty"`
	Stats             Stats             `json:"stats"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// Stats are campaign counters. SentCount is written once by the send;
// the rest grow with webhook events.
type Stats struct {
	SentCount      int        `json:"sentCount"`
	DeliveredCount int        `json:"deliveredCount"`
	OpenCount      int        `json:"openCount"`
	ClickCount     int        `json:"clickCount"`
	BounceCount    int        `json:"bounceCount"`
	ComplaintCount int        `json:"complaintCount"`
	DeliveryDate   *time.Time `json:"deliveryDate,omitempty"`
}

// DeliveryStatus is the latest known state of one sent email.
type DeliveryStatus string

const (
	DeliverySent       DeliveryStatus = "sent"
	DeliveryDelivered  DeliveryStatus = "delivered"
	DeliveryOpened     DeliveryStatus = "opened"
	DeliveryClicked    DeliveryStatus = "clicked"
	DeliveryBounced    DeliveryStatus = "bounced"
	DeliveryComplained DeliveryStatus = "complained"
)

// Delivery links a provider message id to the campaign and recipient.
// Test sends are not recorded. SubscriberID is nil once the subscriber
// row has been deleted; Email keeps the address.
type Delivery struct {
	ID           uuid.UUID
	NewsletterID uuid.UUID
	SubscriberID *uuid.UUID
	Email        string
	MessageID    string
	Status       DeliveryStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SendResult summarises a bulk send. Partial failure is not an error.
type SendResult struct {
	SentCount        int      `json:"sentCount"`
	FailedCount      int      `json:"failedCount"`
	TotalSubscribers int      `json:"totalSubscribers"`
	Errors           []string `json:"errors,omitempty"`
}

// TestResult is the outcome of a single test send.
type TestResult struct {
	MessageID string
	Email     string
}
