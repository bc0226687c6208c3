// Package handlers exposes the newsletter, forms and admin operations over
// HTTP. Handlers depend on small interfaces so they can be tested with
// fakes; the composition root passes the concrete services.
package handlers

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/designneighbor/union-yoga-sanity/internal"
	"github.com/designneighbor/union-yoga-sanity/internal/forms"
	"github.com/designneighbor/union-yoga-sanity/internal/newsletter"
	"github.com/designneighbor/union-yoga-sanity/internal/subscriber"
)

// Subscriptions is the subscriber lifecycle.
type Subscriptions interface {
	Subscribe(ctx context.Context, email string, tags []string) (*subscriber.Subscriber, error)
	Confirm(ctx context.Context, token, email string) (*subscriber.Result, error)
	Unsubscribe(ctx context.Context, id subscriber.Identifier, reason string) (*subscriber.Result, error)
}

// Campaigns sends and renders newsletters.
type Campaigns interface {
	SendCampaign(ctx context.Context, id string) (*newsletter.SendResult, error)
	SendTest(ctx context.Context, id, email string) (*newsletter.TestResult, error)
	Preview(ctx context.Context, id string) (string, error)
}

// Drafts creates and schedules newsletters.
type Drafts interface {
	Create(ctx context.Context, p newsletter.CreateParams) (*newsletter.Newsletter, error)
	Schedule(ctx context.Context, id string, at time.Time) (*newsletter.Newsletter, error)
}

// DueSender dispatches every campaign whose scheduled time has passed.
type DueSender interface {
	ProcessDue(ctx context.Context, now time.Time) ([]newsletter.DueResult, error)
}

// Events applies provider delivery events.
type Events interface {
	Handle(ctx context.Context, e newsletter.Event) error
}

// Submissions accepts and exports form submissions.
type Submissions interface {
	Submit(ctx context.Context, sub forms.Submission, meta forms.Meta) (*forms.Receipt, error)
	ExportCSV(ctx context.Context, formID string, w io.Writer) error
}

const msgInvalidBody = "Invalid request body"

// bind decodes the JSON body into v. Malformed or empty bodies become a 400.
func bind(c internal.Context, v any) (internal.ValidationErrors, error) {
	verrs, err := c.BindJSON(v)
	if err != nil {
		if errors.Is(err, internal.ErrEmptyBody) {
			return nil, internal.ErrBadRequest(msgInvalidBody, internal.WithDetail("request body is empty"), internal.WithError(err))
		}
		return nil, internal.ErrBadRequest(msgInvalidBody, internal.WithError(err))
	}
	return verrs, nil
}
