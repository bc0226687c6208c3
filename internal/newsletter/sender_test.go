package newsletter_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/designneighbor/union-yoga-sanity/internal/content"
	"github.com/designneighbor/union-yoga-sanity/internal/newsletter"
	"github.com/designneighbor/union-yoga-sanity/internal/provider"
	"github.com/designneighbor/union-yoga-sanity/internal/subscriber"
)

var testNow = time.Date(2026, time.June, 1, 8, 0, 0, 0, time.UTC)

func draft(title string, blocks ...content.Block) *newsletter.Newsletter {
	return &newsletter.Newsletter{
		ID:      uuid.New(),
		Title:   title,
		Content: blocks,
		Status:  newsletter.StatusDraft,
	}
}

func member(email, unsubscribeToken string) subscriber.Subscriber {
	return subscriber.Subscriber{
		ID:               uuid.New(),
		Email:            email,
		Status:           subscriber.StatusSubscribed,
		UnsubscribeToken: unsubscribeToken,
	}
}

type senderFixture struct {
	repo     *memRepo
	audience *memAudience
	provider *recordingProvider
	enricher *passthroughEnricher
	sender   *newsletter.Sender
}

func newSenderFixture(n *newsletter.Newsletter, subs ...subscriber.Subscriber) *senderFixture {
	f := &senderFixture{
		repo:     newMemRepo(n),
		audience: &memAudience{subs: subs},
		provider: &recordingProvider{},
		enricher: &passthroughEnricher{},
	}
	f.sender = newsletter.NewSender(f.repo, f.audience, staticProviders{p: f.provider}, f.enricher,
		newsletter.Config{SiteURL: "https://unionyoga.test"},
		newsletter.WithClock(func() time.Time { return testNow }),
		newsletter.WithTokenGenerator(func() string { return "fresh-token" }),
	)
	return f
}

func TestSender_SendCampaign(t *testing.T) {
	t.Parallel()

	n := draft("Spring news for {{ subscriber.email }}", content.Text{Content: "Hello"})
	f := newSenderFixture(n,
		member("amy@example.com", "tok-amy"),
		member("ben@example.com", ""),
		subscriber.Subscriber{ID: uuid.New(), Email: "pending@example.com", Status: subscriber.StatusPending},
	)

	res, err := f.sender.SendCampaign(context.Background(), n.ID.String())
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalSubscribers)
	assert.Equal(t, 2, res.SentCount)
	assert.Zero(t, res.FailedCount)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 1, f.enricher.calls)

	require.Len(t, f.provider.requests, 2)
	amy := f.provider.requests[0]
	assert.Equal(t, "Spring news for amy@example.com", amy.Subject)
	assert.Equal(t, []string{"amy@example.com"}, amy.Recipients)
	assert.Equal(t, newsletter.DefaultFrom, amy.From)
	assert.Contains(t, amy.HTML, "unsubscribe?token=tok-amy")

	ben := f.provider.requests[1]
	assert.Contains(t, ben.HTML, "unsubscribe?token=fresh-token")
	assert.Equal(t, "fresh-token", f.audience.subs[1].UnsubscribeToken)

	stored := f.repo.items[n.ID]
	assert.Equal(t, newsletter.StatusSent, stored.Status)
	assert.Equal(t, 2, stored.Stats.SentCount)
	assert.Equal(t, testNow, *stored.SentAt)

	require.Len(t, f.repo.deliveries, 2)
	assert.Equal(t, "msg-amy@example.com", f.repo.deliveries[0].MessageID)
	assert.Equal(t, n.ID, f.audience.last[f.audience.subs[0].ID])
}

func TestSender_SendCampaign_PartialFailure(t *testing.T) {
	t.Parallel()

	n := draft("", content.Text{Content: "Hello"})
	f := newSenderFixture(n,
		member("amy@example.com", "a"),
		member("bad@example.com", "b"),
		member("odd@example.com", "c"),
	)
	f.provider.fail = map[string]provider.SendResult{
		"bad@example.com": {Error: errors.New("mailbox unavailable")},
		"odd@example.com": {},
	}

	res, err := f.sender.SendCampaign(context.Background(), n.ID.String())
	require.NoError(t, err)

	assert.Equal(t, 1, res.SentCount)
	assert.Equal(t, 2, res.FailedCount)
	assert.Equal(t, []string{
		"bad@example.com: mailbox unavailable",
		"odd@example.com: Unknown error",
	}, res.Errors)
	assert.Equal(t, newsletter.DefaultSubject, f.provider.requests[0].Subject)
	assert.Equal(t, newsletter.StatusSent, f.repo.items[n.ID].Status)
	assert.Len(t, f.repo.deliveries, 1)
}

func TestSender_SendCampaign_OnlySubscribedReceive(t *testing.T) {
	t.Parallel()

	for _, unfiltered := range []bool{false, true} {
		n := draft("Summer schedule", content.Text{Content: "Hello"})
		gone := member("gone@example.com", "g")
		gone.Status = subscriber.StatusUnsubscribed
		f := newSenderFixture(n,
			member("amy@example.com", "a"),
			gone,
			member("bad@example.com", "b"),
			member("cal@example.com", "c"),
		)
		f.audience.unfiltered = unfiltered
		f.provider.fail = map[string]provider.SendResult{
			"bad@example.com": {Error: errors.New("mailbox full")},
		}

		res, err := f.sender.SendCampaign(context.Background(), n.ID.String())
		require.NoError(t, err)

		assert.Equal(t, 3, res.TotalSubscribers)
		assert.Equal(t, 2, res.SentCount)
		assert.Equal(t, 1, res.FailedCount)
		assert.Equal(t, []string{"bad@example.com: mailbox full"}, res.Errors)
		assert.Equal(t, newsletter.StatusSent, f.repo.items[n.ID].Status)

		require.Len(t, f.provider.requests, 3)
		for _, req := range f.provider.requests {
			assert.NotEqual(t, []string{"gone@example.com"}, req.Recipients)
		}
		_, touched := f.audience.last[gone.ID]
		assert.False(t, touched)
	}
}

func TestSender_SendCampaign_Preconditions(t *testing.T) {
	t.Parallel()

	t.Run("missing id", func(t *testing.T) {
		f := newSenderFixture(draft("x", content.Text{Content: "a"}))
		_, err := f.sender.SendCampaign(context.Background(), " ")
		assert.ErrorIs(t, err, newsletter.ErrMissingID)
	})

	t.Run("not found", func(t *testing.T) {
		f := newSenderFixture(draft("x", content.Text{Content: "a"}))
		_, err := f.sender.SendCampaign(context.Background(), uuid.NewString())
		assert.ErrorIs(t, err, newsletter.ErrNotFound)
		_, err = f.sender.SendCampaign(context.Background(), "not-a-uuid")
		assert.ErrorIs(t, err, newsletter.ErrNotFound)
	})

	t.Run("empty content checked before subscribers", func(t *testing.T) {
		n := draft("x")
		f := newSenderFixture(n, member("amy@example.com", "a"))
		_, err := f.sender.SendCampaign(context.Background(), n.ID.String())
		assert.ErrorIs(t, err, newsletter.ErrEmptyContent)
		assert.Zero(t, f.audience.listed)
	})

	t.Run("already sent", func(t *testing.T) {
		n := draft("x", content.Text{Content: "a"})
		n.Status = newsletter.StatusSent
		f := newSenderFixture(n, member("amy@example.com", "a"))
		_, err := f.sender.SendCampaign(context.Background(), n.ID.String())
		assert.ErrorIs(t, err, newsletter.ErrAlreadySent)
	})

	t.Run("no subscribers", func(t *testing.T) {
		n := draft("x", content.Text{Content: "a"})
		f := newSenderFixture(n)
		_, err := f.sender.SendCampaign(context.Background(), n.ID.String())
		assert.ErrorIs(t, err, newsletter.ErrNoSubscribers)
		assert.Zero(t, f.repo.markCalls)
	})

	t.Run("provider misconfigured", func(t *testing.T) {
		n := draft("x", content.Text{Content: "a"})
		f := newSenderFixture(n, member("amy@example.com", "a"))
		s := newsletter.NewSender(f.repo, f.audience, staticProviders{err: provider.ErrMisconfigured}, f.enricher, newsletter.Config{})
		_, err := s.SendCampaign(context.Background(), n.ID.String())
		assert.ErrorIs(t, err, provider.ErrMisconfigured)
	})

	t.Run("store failure", func(t *testing.T) {
		n := draft("x", content.Text{Content: "a"})
		f := newSenderFixture(n)
		f.repo.getErr = errors.New("conn reset")
		_, err := f.sender.SendCampaign(context.Background(), n.ID.String())
		assert.ErrorIs(t, err, newsletter.ErrStore)
	})
}

func TestSender_SendCampaign_TokenBackfillFailureFallsBackToEmail(t *testing.T) {
	t.Parallel()

	n := draft("x", content.Text{Content: "a"})
	f := newSenderFixture(n, member("amy@example.com", ""))
	f.audience.tokenErr = errors.New("write failed")

	res, err := f.sender.SendCampaign(context.Background(), n.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, res.SentCount)
	assert.Contains(t, f.provider.requests[0].HTML, "unsubscribe?email=amy%40example.com")
}

func TestSender_SendCampaign_CancelledStillMarksSent(t *testing.T) {
	t.Parallel()

	n := draft("x", content.Text{Content: "a"})
	f := newSenderFixture(n,
		member("amy@example.com", "a"),
		member("ben@example.com", "b"),
		member("cy@example.com", "c"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	f.provider.onSend = cancel

	res, err := f.sender.SendCampaign(ctx, n.ID.String())
	require.NoError(t, err)

	assert.Equal(t, 1, res.SentCount)
	assert.Equal(t, 2, res.FailedCount)
	assert.True(t, strings.HasPrefix(res.Errors[0], "ben@example.com: context canceled"))
	assert.Equal(t, newsletter.StatusSent, f.repo.items[n.ID].Status)
}

func TestSender_SendTest(t *testing.T) {
	t.Parallel()

	n := draft("Summer", content.Text{Content: "a"})
	f := newSenderFixture(n)

	res, err := f.sender.SendTest(context.Background(), n.ID.String(), "editor@example.com")
	require.NoError(t, err)
	assert.Equal(t, "msg-editor@example.com", res.MessageID)

	req := f.provider.requests[0]
	assert.Equal(t, "[TEST] Summer", req.Subject)
	assert.Contains(t, req.HTML, "unsubscribe?email=editor%40example.com")
	assert.Equal(t, newsletter.StatusDraft, f.repo.items[n.ID].Status)
	assert.Empty(t, f.repo.deliveries)
}

func TestSender_SendTest_Errors(t *testing.T) {
	t.Parallel()

	n := draft("Summer", content.Text{Content: "a"})
	empty := draft("Empty")
	f := newSenderFixture(n)
	f.repo.items[empty.ID] = empty
	f.provider.fail = map[string]provider.SendResult{"reject@example.com": {Error: errors.New("rejected")}}
	ctx := context.Background()

	_, err := f.sender.SendTest(ctx, "", "editor@example.com")
	assert.ErrorIs(t, err, newsletter.ErrMissingID)

	_, err = f.sender.SendTest(ctx, n.ID.String(), "")
	assert.ErrorIs(t, err, newsletter.ErrMissingTestEmail)

	_, err = f.sender.SendTest(ctx, n.ID.String(), "nope")
	assert.ErrorIs(t, err, newsletter.ErrInvalidEmail)

	_, err = f.sender.SendTest(ctx, empty.ID.String(), "editor@example.com")
	assert.ErrorIs(t, err, newsletter.ErrEmptyContent)

	_, err = f.sender.SendTest(ctx, n.ID.String(), "reject@example.com")
	assert.ErrorIs(t, err, newsletter.ErrSendFailed)
	assert.ErrorContains(t, err, "rejected")
}

func TestSender_Preview(t *testing.T) {
	t.Parallel()

	n := draft("Autumn", content.Text{Content: "Falling leaves"})
	f := newSenderFixture(n)

	html, err := f.sender.Preview(context.Background(), n.ID.String())
	require.NoError(t, err)
	assert.Contains(t, html, "Falling leaves")
	assert.Contains(t, html, `href="https://unionyoga.test/api/newsletters/unsubscribe"`)

	_, err = f.sender.Preview(context.Background(), "")
	assert.ErrorIs(t, err, newsletter.ErrMissingID)
}

func TestSender_CreateAndSchedule(t *testing.T) {
	t.Parallel()

	f := newSenderFixture(draft("seed"))
	ctx := context.Background()

	_, err := f.sender.Create(ctx, newsletter.CreateParams{Title: " "})
	assert.ErrorIs(t, err, newsletter.ErrMissingTitle)

	_, err = f.sender.Create(ctx, newsletter.CreateParams{Title: "x", Platform: "sendgrid"})
	assert.ErrorIs(t, err, provider.ErrUnknownPlatform)

	n, err := f.sender.Create(ctx, newsletter.CreateParams{Title: "July", Content: content.Blocks{content.Text{Content: "a"}}})
	require.NoError(t, err)
	assert.Equal(t, newsletter.StatusDraft, n.Status)
	assert.Equal(t, provider.PlatformResend, n.Platform)

	_, err = f.sender.Schedule(ctx, n.ID.String(), testNow.Add(-time.Minute))
	assert.ErrorIs(t, err, newsletter.ErrInvalidSchedule)

	at := testNow.Add(24 * time.Hour)
	scheduled, err := f.sender.Schedule(ctx, n.ID.String(), at)
	require.NoError(t, err)
	assert.Equal(t, newsletter.StatusScheduled, scheduled.Status)
	assert.Equal(t, at, *scheduled.ScheduledSendTime)

	f.repo.items[n.ID].Status = newsletter.StatusSent
	_, err = f.sender.Schedule(ctx, n.ID.String(), at)
	assert.ErrorIs(t, err, newsletter.ErrInvalidTransition)
}

func TestSubjects_Render(t *testing.T) {
	t.Parallel()

	s := newsletter.NewSubjects()
	assert.Equal(t, "Newsletter", s.Render("", "a@b.co"))
	assert.Equal(t, "Plain title", s.Render("Plain title", "a@b.co"))
	assert.Equal(t, "Hi a@b.co", s.Render("Hi {{ subscriber.email }}", "a@b.co"))
	assert.Equal(t, "Broken {{ subscriber.email", s.Render("Broken {{ subscriber.email", "a@b.co"))
}
