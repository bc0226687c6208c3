package newsletter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/designneighbor/union-yoga-sanity/internal/content"
	"github.com/designneighbor/union-yoga-sanity/internal/emailview"
	"github.com/designneighbor/union-yoga-sanity/internal/provider"
	"github.com/designneighbor/union-yoga-sanity/internal/subscriber"
	"github.com/designneighbor/union-yoga-sanity/pkg/token"
	"github.com/designneighbor/union-yoga-sanity/pkg/validator"
)

// DefaultFrom is the sender address when none is configured.
const DefaultFrom = "Union Yoga <no-reply@david-lewis.co>"

const finalizeTimeout = 10 * time.Second

var errUnknown = errors.New("Unknown error") //nolint:staticcheck // reported to operators as is

// Observer is told about every email sent, e.g. for metrics.
type Observer interface {
	EmailSent(kind string, ok bool)
}

// Config holds the public settings of a Sender.
type Config struct {
	SiteURL string
	From    string
}

// Sender renders and delivers campaigns.
type Sender struct {
	repo      Repository
	audience  Audience
	providers Providers
	enricher  Enricher
	subjects  *Subjects
	config    Config
	logger    *slog.Logger
	observer  Observer
	now       func() time.Time
	newToken  func() string
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

func WithLogger(l *slog.Logger) SenderOption {
	return func(s *Sender) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithObserver(o Observer) SenderOption {
	return func(s *Sender) { s.observer = o }
}

func WithClock(now func() time.Time) SenderOption {
	return func(s *Sender) { s.now = now }
}

func WithTokenGenerator(fn func() string) SenderOption {
	return func(s *Sender) { s.newToken = fn }
}

// NewSender returns a Sender.
func NewSender(repo Repository, audience Audience, providers Providers, enricher Enricher, cfg Config, opts ...SenderOption) *Sender {
	if cfg.From == "" {
		cfg.From = DefaultFrom
	}
	s := &Sender{
		repo:      repo,
		audience:  audience,
		providers: providers,
		enricher:  enricher,
		subjects:  NewSubjects(),
		config:    cfg,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
		newToken:  token.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// load parses id and fetches the campaign.
func (s *Sender) load(ctx context.Context, id string) (*Newsletter, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrMissingID
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	n, err := s.repo.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Join(ErrStore, err)
	}
	return n, nil
}

// SendCampaign sends campaign id to every subscribed recipient, one at a
// time. Failures for single recipients are collected in the result. The
// campaign is marked sent even when the context is cancelled mid-way.
func (s *Sender) SendCampaign(ctx context.Context, id string) (*SendResult, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(n.Content) == 0 {
		return nil, ErrEmptyContent
	}
	if n.Status == StatusSent {
		return nil, ErrAlreadySent
	}

	p, err := s.providers.For(n.Platform)
	if err != nil {
		return nil, err
	}

	subs, err := s.audience.ListSubscribed(ctx)
	if err != nil {
		return nil, errors.Join(ErrStore, err)
	}
	// A row may change status between the query and the send.
	subs = slices.DeleteFunc(subs, func(sub subscriber.Subscriber) bool {
		return sub.Status != subscriber.StatusSubscribed
	})
	if len(subs) == 0 {
		return nil, ErrNoSubscribers
	}

	log := s.logger.With(slog.String("newsletter_id", n.ID.String()))
	log.InfoContext(ctx, "sending newsletter", slog.Int("recipients", len(subs)))

	blocks := s.enricher.Enrich(ctx, n.Content)
	result := &SendResult{TotalSubscribers: len(subs)}

	for i := range subs {
		sub := &subs[i]
		if err := ctx.Err(); err != nil {
			for _, rest := range subs[i:] {
				result.FailedCount++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", rest.Email, err))
			}
			log.WarnContext(ctx, "newsletter send interrupted", slog.Int("remaining", len(subs)-i), slog.Any("error", err))
			break
		}

		messageID, err := s.sendOne(ctx, p, n, blocks, sub)
		if err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", sub.Email, err.Error()))
			s.observe(false)
			continue
		}
		result.SentCount++
		s.observe(true)

		s.recordDelivery(ctx, log, n.ID, sub, messageID)
	}

	s.finalize(ctx, log, n.ID, result.SentCount)

	log.InfoContext(ctx, "newsletter sent",
		slog.Int("sent", result.SentCount),
		slog.Int("failed", result.FailedCount),
	)
	return result, nil
}

// sendOne renders and sends the campaign to sub and returns the message id.
func (s *Sender) sendOne(ctx context.Context, p provider.Provider, n *Newsletter, blocks content.Blocks, sub *subscriber.Subscriber) (string, error) {
	unsubscribeToken := s.ensureToken(ctx, sub)

	html, err := emailview.Render(ctx, blocks, emailview.Options{
		Preview:          n.Title,
		SiteURL:          s.config.SiteURL,
		RecipientEmail:   sub.Email,
		UnsubscribeToken: unsubscribeToken,
	})
	if err != nil {
		return "", errors.Join(ErrRender, err)
	}

	res := p.SendEmail(ctx, provider.SendRequest{
		Subject:    s.subjects.Render(n.Title, sub.Email),
		HTML:       html,
		Recipients: []string{sub.Email},
		From:       s.config.From,
		Tags:       map[string]string{"newsletter_id": n.ID.String()},
	})
	if !res.Success || res.MessageID == "" {
		if res.Error != nil {
			return "", res.Error
		}
		return "", errUnknown
	}
	return res.MessageID, nil
}

// ensureToken backfills a missing unsubscribe token. On failure the email
// falls back to an address-based unsubscribe link.
func (s *Sender) ensureToken(ctx context.Context, sub *subscriber.Subscriber) string {
	if sub.UnsubscribeToken != "" {
		return sub.UnsubscribeToken
	}
	tok, err := s.audience.EnsureUnsubscribeToken(ctx, sub.ID, s.newToken())
	if err != nil {
		s.logger.WarnContext(ctx, "failed to backfill unsubscribe token",
			slog.String("subscriber_id", sub.ID.String()),
			slog.Any("error", err),
		)
		return ""
	}
	sub.UnsubscribeToken = tok
	return tok
}

func (s *Sender) recordDelivery(ctx context.Context, log *slog.Logger, newsletterID uuid.UUID, sub *subscriber.Subscriber, messageID string) {
	now := s.now().UTC()
	subID := sub.ID
	err := s.repo.RecordDelivery(ctx, Delivery{
		ID:           uuid.New(),
		NewsletterID: newsletterID,
		SubscriberID: &subID,
		Email:        sub.Email,
		MessageID:    messageID,
		Status:       DeliverySent,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		log.WarnContext(ctx, "failed to record delivery", slog.String("message_id", messageID), slog.Any("error", err))
	}

	if err := s.audience.SetLastNewsletter(ctx, sub.ID, newsletterID); err != nil {
		log.WarnContext(ctx, "failed to update last newsletter", slog.String("subscriber_id", sub.ID.String()), slog.Any("error", err))
	}
}

// finalize marks the campaign sent on a context that outlives the request.
func (s *Sender) finalize(ctx context.Context, log *slog.Logger, id uuid.UUID, sent int) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	changed, err := s.repo.MarkSent(ctx, id, sent, s.now().UTC())
	switch {
	case err != nil:
		log.ErrorContext(ctx, "failed to mark newsletter as sent", slog.Any("error", err))
	case !changed:
		log.WarnContext(ctx, "newsletter was marked sent by a concurrent send")
	}
}

// SendTest sends campaign id to a single address with a [TEST] subject.
func (s *Sender) SendTest(ctx context.Context, id, testEmail string) (*TestResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingID
	}
	testEmail = strings.TrimSpace(testEmail)
	if testEmail == "" {
		return nil, ErrMissingTestEmail
	}
	if !validator.IsEmail(testEmail) {
		return nil, ErrInvalidEmail
	}

	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(n.Content) == 0 {
		return nil, ErrEmptyContent
	}

	p, err := s.providers.For(n.Platform)
	if err != nil {
		return nil, err
	}

	html, err := emailview.Render(ctx, s.enricher.Enrich(ctx, n.Content), emailview.Options{
		Preview:        n.Title,
		SiteURL:        s.config.SiteURL,
		RecipientEmail: testEmail,
	})
	if err != nil {
		return nil, errors.Join(ErrRender, err)
	}

	res := p.SendEmail(ctx, provider.SendRequest{
		Subject:    "[TEST] " + s.subjects.Render(n.Title, testEmail),
		HTML:       html,
		Recipients: []string{testEmail},
		From:       s.config.From,
		Tags:       map[string]string{"newsletter_id": n.ID.String(), "test": "true"},
	})
	s.observeKind("test", res.Success)
	if !res.Success {
		cause := res.Error
		if cause == nil {
			cause = errUnknown
		}
		return nil, fmt.Errorf("%w: %w", ErrSendFailed, cause)
	}

	return &TestResult{MessageID: res.MessageID, Email: testEmail}, nil
}

// Preview renders campaign id without a recipient.
func (s *Sender) Preview(ctx context.Context, id string) (string, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}

	html, err := emailview.Render(ctx, s.enricher.Enrich(ctx, n.Content), emailview.Options{
		Preview: n.Title,
		SiteURL: s.config.SiteURL,
	})
	if err != nil {
		return "", errors.Join(ErrRender, err)
	}
	return html, nil
}

// CreateParams describes a new draft campaign.
type CreateParams struct {
	Title    string
	Content  content.Blocks
	Platform provider.Platform
}

// Create stores a new draft.
func (s *Sender) Create(ctx context.Context, p CreateParams) (*Newsletter, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, ErrMissingTitle
	}

	platform := p.Platform
	switch platform {
	case "":
		platform = provider.PlatformResend
	case provider.PlatformResend, provider.PlatformMailchimp, provider.PlatformKit:
	default:
		return nil, fmt.Errorf("%w: %q", provider.ErrUnknownPlatform, platform)
	}

	now := s.now().UTC()
	n := &Newsletter{
		ID:        uuid.New(),
		Title:     title,
		Content:   p.Content,
		Status:    StatusDraft,
		Platform:  platform,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, errors.Join(ErrStore, err)
	}
	return n, nil
}

// Schedule queues campaign id for sending at at, which must be in the future.
func (s *Sender) Schedule(ctx context.Context, id string, at time.Time) (*Newsletter, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status == StatusSent {
		return nil, ErrInvalidTransition
	}
	if !at.After(s.now()) {
		return nil, ErrInvalidSchedule
	}
	if len(n.Content) == 0 {
		return nil, ErrEmptyContent
	}

	updated, err := s.repo.Schedule(ctx, n.ID, at.UTC())
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, errors.Join(ErrStore, err)
	}
	return updated, nil
}

func (s *Sender) observe(ok bool) {
	s.observeKind("campaign", ok)
}

func (s *Sender) observeKind(kind string, ok bool) {
	if s.observer != nil {
		s.observer.EmailSent(kind, ok)
	}
}
