package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/designneighbor/union-yoga-sanity/pkg/mailer"
)

// Resend sends through a mailer.Sender backed by the Resend API.
// Subscription state lives in the local store, so list operations are no-ops.
type Resend struct {
	sender mailer.Sender
}

func NewResend(sender mailer.Sender) *Resend {
	return &Resend{sender: sender}
}

func (r *Resend) SendEmail(ctx context.Context, req SendRequest) SendResult {
	email := &mailer.Email{
		To:      req.Recipients,
		From:    req.From,
		Subject: req.Subject,
		HTML:    req.HTML,
		Tags:    req.Tags,
	}
	if err := email.Validate(); err != nil {
		return failed(err)
	}

	id, err := r.sender.Send(ctx, email)
	if err != nil {
		return failed(err)
	}
	if id == "" {
		return failed(errors.Join(ErrSendFailed, errors.New("no message id returned")))
	}
	return SendResult{Success: true, MessageID: id}
}

func (r *Resend) AddSubscriber(context.Context, string, []string) error { return nil }

func (r *Resend) RemoveSubscriber(context.Context, string) error { return nil }

func (r *Resend) SubscriberStatus(context.Context, string) (Status, error) {
	return StatusUnknown, nil
}

// stub is a platform that has not been integrated.
type stub struct {
	platform Platform
}

func (s stub) err() error {
	return fmt.Errorf("%w: %s", ErrNotImplemented, s.platform)
}

func (s stub) SendEmail(context.Context, SendRequest) SendResult { return failed(s.err()) }

func (s stub) AddSubscriber(context.Context, string, []string) error { return s.err() }

func (s stub) RemoveSubscriber(context.Context, string) error { return s.err() }

func (s stub) SubscriberStatus(context.Context, string) (Status, error) {
	return StatusUnknown, s.err()
}

// NewMailchimp returns a provider whose every call fails with ErrNotImplemented.
func NewMailchimp() Provider { return stub{platform: PlatformMailchimp} }

// NewKit returns a provider whose every call fails with ErrNotImplemented.
func NewKit() Provider { return stub{platform: PlatformKit} }
