package subscriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/designneighbor/union-yoga-sanity/internal/provider"
	"github.com/designneighbor/union-yoga-sanity/pkg/token"
	"github.com/designneighbor/union-yoga-sanity/pkg/validator"
)

// Events reported to an Observer.
const (
	EventSubscribed   = "subscribed"
	EventConfirmed    = "confirmed"
	EventUnsubscribed = "unsubscribed"
)

// Observer is notified of lifecycle transitions, e.g. for metrics.
type Observer interface {
	SubscriptionEvent(event string)
}

// Service runs the subscription lifecycle.
type Service struct {
	repo     Repository
	notifier Notifier
	provider provider.Provider
	siteURL  string
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
	newToken func() string
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTokenGenerator overrides token.New.
func WithTokenGenerator(fn func() string) Option {
	return func(s *Service) { s.newToken = fn }
}

// NewService returns a Service. siteURL is the public base URL used in
// confirmation links.
func NewService(repo Repository, notifier Notifier, p provider.Provider, siteURL string, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		notifier: notifier,
		provider: p,
		siteURL:  strings.TrimRight(siteURL, "/"),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		newToken: token.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe starts double opt-in for email. The record is stored before the
// confirmation email is sent and is kept even if sending fails.
func (s *Service) Subscribe(ctx context.Context, email string, tags []string) (*Subscriber, error) {
	email = validator.NormalizeEmail(email)
	if !validator.IsEmail(email) {
		return nil, ErrInvalidEmail
	}

	sub, created, err := s.repo.UpsertPending(ctx, PendingParams{
		ID:                uuid.New(),
		Email:             email,
		ConfirmationToken: s.newToken(),
		Tags:              cleanTags(tags),
		At:                s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, ErrAlreadySubscribed) {
			return nil, err
		}
		return nil, errors.Join(ErrStore, err)
	}

	if created && s.provider != nil {
		if err := s.provider.AddSubscriber(ctx, sub.Email, sub.Tags); err != nil {
			s.logger.WarnContext(ctx, "failed to add subscriber to provider",
				slog.String("subscriber_id", sub.ID.String()),
				slog.Any("error", err),
			)
		}
	}

	if err := s.notifier.SendConfirmation(ctx, sub.Email, s.ConfirmURL(sub)); err != nil {
		s.logger.ErrorContext(ctx, "failed to send confirmation email",
			slog.String("subscriber_id", sub.ID.String()),
			slog.Any("error", err),
		)
		return sub, errors.Join(ErrConfirmationNotSent, err)
	}

	s.observe(EventSubscribed)
	return sub, nil
}

// ConfirmURL is the link embedded in the confirmation email.
func (s *Service) ConfirmURL(sub *Subscriber) string {
	q := url.Values{}
	q.Set("token", sub.ConfirmationToken)
	q.Set("email", sub.Email)
	return fmt.Sprintf("%s/api/newsletters/confirm?%s", s.siteURL, q.Encode())
}

// Confirm completes double opt-in. Confirming twice reports Unchanged and
// leaves ConfirmedAt alone. Only pending subscribers can be confirmed; a
// confirmation link for someone who has since unsubscribed is treated as
// unknown, and only a fresh Subscribe brings them back.
func (s *Service) Confirm(ctx context.Context, tok, email string) (*Result, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return nil, ErrMissingToken
	}

	sub, err := s.repo.FindByConfirmationToken(ctx, tok, validator.NormalizeEmail(email))
	if err != nil {
		return nil, s.lookupErr(err)
	}
	switch sub.Status {
	case StatusSubscribed:
		return &Result{Subscriber: sub, Unchanged: true}, nil
	case StatusUnsubscribed:
		return nil, ErrNotFound
	}

	updated, changed, err := s.repo.Confirm(ctx, sub.ID, s.newToken(), s.now().UTC())
	if err != nil {
		return nil, s.lookupErr(err)
	}
	if !changed {
		if updated.Status == StatusUnsubscribed {
			return nil, ErrNotFound
		}
		return &Result{Subscriber: updated, Unchanged: true}, nil
	}

	if s.provider != nil {
		if err := s.provider.AddSubscriber(ctx, updated.Email, updated.Tags); err != nil {
			s.logger.WarnContext(ctx, "failed to register confirmed subscriber with provider",
				slog.String("subscriber_id", updated.ID.String()),
				slog.Any("error", err),
			)
		}
	}

	s.observe(EventConfirmed)
	return &Result{Subscriber: updated}, nil
}

// Unsubscribe stops campaigns to the identified subscriber. Pending
// subscribers may unsubscribe too.
func (s *Service) Unsubscribe(ctx context.Context, id Identifier, reason string) (*Result, error) {
	sub, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == StatusUnsubscribed {
		return &Result{Subscriber: sub, Unchanged: true}, nil
	}

	updated, changed, err := s.repo.Unsubscribe(ctx, sub.ID, NormalizeReason(strings.TrimSpace(reason)), s.now().UTC())
	if err != nil {
		return nil, s.lookupErr(err)
	}
	if !changed {
		return &Result{Subscriber: updated, Unchanged: true}, nil
	}

	if s.provider != nil {
		if err := s.provider.RemoveSubscriber(ctx, updated.Email); err != nil {
			s.logger.WarnContext(ctx, "failed to remove subscriber from provider",
				slog.String("subscriber_id", updated.ID.String()),
				slog.Any("error", err),
			)
		}
	}

	s.observe(EventUnsubscribed)
	return &Result{Subscriber: updated}, nil
}

// find resolves an Identifier. Tokens are checked against the unsubscribe
// token first, then the confirmation token used by older links.
func (s *Service) find(ctx context.Context, id Identifier) (*Subscriber, error) {
	tok := strings.TrimSpace(id.Token)
	email := validator.NormalizeEmail(id.Email)

	switch {
	case tok != "":
		sub, err := s.repo.FindByUnsubscribeToken(ctx, tok)
		if errors.Is(err, ErrNotFound) {
			sub, err = s.repo.FindByConfirmationToken(ctx, tok, "")
		}
		if err != nil {
			return nil, s.lookupErr(err)
		}
		return sub, nil
	case email != "":
		sub, err := s.repo.FindByEmail(ctx, email)
		if err != nil {
			return nil, s.lookupErr(err)
		}
		return sub, nil
	default:
		return nil, ErrMissingIdentifier
	}
}

func (s *Service) lookupErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return errors.Join(ErrStore, err)
}

func (s *Service) observe(event string) {
	if s.observer != nil {
		s.observer.SubscriptionEvent(event)
	}
}

// cleanTags trims, drops empties and de-duplicates while keeping order.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
