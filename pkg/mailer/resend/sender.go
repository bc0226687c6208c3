// Package resend implements mailer.Sender on top of the Resend API.
package resend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/resend/resend-go/v3"

	"github.com/designneighbor/union-yoga-sanity/pkg/mailer"
)

// ErrValidation marks a request Resend rejected as invalid (HTTP 422),
// typically an address it refuses to deliver to.
var ErrValidation = errors.New("resend: validation_error")

// Sender implements mailer.Sender.
type Sender struct {
	client *resend.Client
	config Config
}

// New returns a Sender authenticated with cfg.APIKey.
func New(cfg Config) *Sender {
	return &Sender{client: resend.NewClient(cfg.APIKey), config: cfg}
}

// Send delivers email and returns the Resend message ID.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) (string, error) {
	from := email.From
	if from == "" {
		from = mailer.Recipient(s.config.SenderName, s.config.SenderEmail)
	}

	req := &resend.SendEmailRequest{
		From:    from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		ReplyTo: email.ReplyTo,
		Headers: email.Headers,
		Tags:    tags(email.Tags),
	}

	sent, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return "", classify(err)
	}
	return sent.Id, nil
}

// classify wraps validation failures with ErrValidation so callers can map
// them to a client error instead of an upstream failure.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "validation_error") || strings.Contains(msg, "422") {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return fmt.Errorf("resend: failed to send email: %w", err)
}

// tags converts metadata to Resend tags in a stable order.
func tags(m map[string]string) []resend.Tag {
	if len(m) == 0 {
		return nil
	}
	out := make([]resend.Tag, 0, len(m))
	for name, value := range m {
		out = append(out, resend.Tag{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
