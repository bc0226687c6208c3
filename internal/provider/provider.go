// Package provider abstracts the email platform used for newsletter sends
// and subscriber list management.
package provider

import (
	"context"
	"errors"
)

// Platform names a provider implementation.
type Platform string

const (
	PlatformResend    Platform = "resend"
	PlatformMailchimp Platform = "mailchimp"
	PlatformKit       Platform = "kit"
)

// Status is a subscriber's state as the provider sees it.
type Status string

const (
	StatusUnknown      Status = "unknown"
	StatusSubscribed   Status = "subscribed"
	StatusUnsubscribed Status = "unsubscribed"
)

var (
	ErrNotImplemented  = errors.New("provider: not implemented")
	ErrMisconfigured   = errors.New("provider: not configured")
	ErrUnknownPlatform = errors.New("provider: unknown platform")
	ErrCircuitOpen     = errors.New("provider: temporarily unavailable")
	ErrSendFailed      = errors.New("provider: send failed")
)

// SendRequest is one email to one or more recipients.
type SendRequest struct {
	Subject    string
	HTML       string
	Recipients []string
	From       string
	Tags       map[string]string
}

// SendResult reports the outcome of a send. Error is set when Success is false.
type SendResult struct {
	Success   bool
	MessageID string
	Error     error
}

// Provider is an email platform.
type Provider interface {
	SendEmail(ctx context.Context, req SendRequest) SendResult
	AddSubscriber(ctx context.Context, email string, tags []string) error
	RemoveSubscriber(ctx context.Context, email string) error
	SubscriberStatus(ctx context.Context, email string) (Status, error)
}

func failed(err error) SendResult {
	return SendResult{Error: err}
}
