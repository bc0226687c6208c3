package newsletter_test

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/designneighbor/union-yoga-sanity/internal/content"
	"github.com/designneighbor/union-yoga-sanity/internal/newsletter"
	"github.com/designneighbor/union-yoga-sanity/internal/provider"
	"github.com/designneighbor/union-yoga-sanity/internal/subscriber"
)

type memRepo struct {
	mu         sync.Mutex
	items      map[uuid.UUID]*newsletter.Newsletter
	deliveries []newsletter.Delivery
	getErr     error
	markCalls  int
}

func newMemRepo(ns ...*newsletter.Newsletter) *memRepo {
	r := &memRepo{items: map[uuid.UUID]*newsletter.Newsletter{}}
	for _, n := range ns {
		r.items[n.ID] = n
	}
	return r
}

func (r *memRepo) Create(_ context.Context, n *newsletter.Newsletter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *n
	r.items[n.ID] = &c
	return nil
}

func (r *memRepo) Get(_ context.Context, id uuid.UUID) (*newsletter.Newsletter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	n, ok := r.items[id]
	if !ok {
		return nil, newsletter.ErrNotFound
	}
	c := *n
	return &c, nil
}

func (r *memRepo) ListDue(_ context.Context, now time.Time) ([]newsletter.Newsletter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []newsletter.Newsletter
	for _, n := range r.items {
		if n.Status == newsletter.StatusScheduled && n.ScheduledSendTime != nil && !n.ScheduledSendTime.After(now) {
			out = append(out, *n)
		}
	}
	slices.SortFunc(out, func(a, b newsletter.Newsletter) int { return a.ScheduledSendTime.Compare(*b.ScheduledSendTime) })
	return out, nil
}

func (r *memRepo) Schedule(_ context.Context, id uuid.UUID, at time.Time) (*newsletter.Newsletter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return nil, newsletter.ErrNotFound
	}
	if n.Status == newsletter.StatusSent {
		return nil, newsletter.ErrInvalidTransition
	}
	n.Status = newsletter.StatusScheduled
	n.ScheduledSendTime = &at
	c := *n
	return &c, nil
}

func (r *memRepo) MarkSent(_ context.Context, id uuid.UUID, sentCount int, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markCalls++
	n := r.items[id]
	if n.Status == newsletter.StatusSent {
		return false, nil
	}
	n.Status = newsletter.StatusSent
	n.SentAt = &at
	n.Stats.SentCount = sentCount
	n.Stats.DeliveryDate = &at
	return true, nil
}

func (r *memRepo) RecordDelivery(_ context.Context, d newsletter.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, d)
	return nil
}

func (r *memRepo) FindDelivery(_ context.Context, messageID string) (*newsletter.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.deliveries {
		if d.MessageID == messageID {
			return &d, nil
		}
	}
	return nil, newsletter.ErrDeliveryNotFound
}

func (r *memRepo) ApplyEvent(_ context.Context, d *newsletter.Delivery, status newsletter.DeliveryStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.deliveries {
		if r.deliveries[i].ID == d.ID {
			r.deliveries[i].Status = status
			r.deliveries[i].UpdatedAt = at
		}
	}
	n := r.items[d.NewsletterID]
	switch status {
	case newsletter.DeliveryDelivered:
		n.Stats.DeliveredCount++
	case newsletter.DeliveryOpened:
		n.Stats.OpenCount++
	case newsletter.DeliveryClicked:
		n.Stats.ClickCount++
	case newsletter.DeliveryBounced:
		n.Stats.BounceCount++
	case newsletter.DeliveryComplained:
		n.Stats.ComplaintCount++
	}
	return nil
}

// memAudience lists subscribed members, or every member when unfiltered
// is set.
type memAudience struct {
	mu         sync.Mutex
	subs       []subscriber.Subscriber
	tokenErr   error
	last       map[uuid.UUID]uuid.UUID
	listed     int
	unfiltered bool
}

func (a *memAudience) ListSubscribed(context.Context) ([]subscriber.Subscriber, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listed++
	var out []subscriber.Subscriber
	for _, s := range a.subs {
		if a.unfiltered || s.Status == subscriber.StatusSubscribed {
			out = append(out, s)
		}
	}
	return out, nil
}

func (a *memAudience) EnsureUnsubscribeToken(_ context.Context, id uuid.UUID, token string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tokenErr != nil {
		return "", a.tokenErr
	}
	for i := range a.subs {
		if a.subs[i].ID == id {
			if a.subs[i].UnsubscribeToken == "" {
				a.subs[i].UnsubscribeToken = token
			}
			return a.subs[i].UnsubscribeToken, nil
		}
	}
	return "", subscriber.ErrNotFound
}

func (a *memAudience) SetLastNewsletter(_ context.Context, subscriberID, newsletterID uuid.UUID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		a.last = map[uuid.UUID]uuid.UUID{}
	}
	a.last[subscriberID] = newsletterID
	return nil
}

// recordingProvider fails for addresses listed in fail.
type recordingProvider struct {
	mu       sync.Mutex
	requests []provider.SendRequest
	fail     map[string]provider.SendResult
	onSend   func()
}

func (p *recordingProvider) SendEmail(_ context.Context, req provider.SendRequest) provider.SendResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.onSend != nil {
		p.onSend()
	}
	if res, ok := p.fail[req.Recipients[0]]; ok {
		return res
	}
	return provider.SendResult{Success: true, MessageID: "msg-" + req.Recipients[0]}
}

func (p *recordingProvider) AddSubscriber(context.Context, string, []string) error { return nil }
func (p *recordingProvider) RemoveSubscriber(context.Context, string) error        { return nil }
func (p *recordingProvider) SubscriberStatus(context.Context, string) (provider.Status, error) {
	return provider.StatusUnknown, nil
}

type staticProviders struct {
	p   provider.Provider
	err error
}

func (s staticProviders) For(provider.Platform) (provider.Provider, error) {
	return s.p, s.err
}

type passthroughEnricher struct {
	calls int
}

func (e *passthroughEnricher) Enrich(_ context.Context, blocks content.Blocks) content.Blocks {
	e.calls++
	return blocks
}
