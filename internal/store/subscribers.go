package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/designneighbor/union-yoga-sanity/internal/subscriber"
)

const subscriberColumns = `id, email, status,
	COALESCE(confirmation_token, ''), COALESCE(unsubscribe_token, ''), tags,
	subscribed_at, confirmed_at, unsubscribed_at, COALESCE(unsubscribe_reason, ''),
	last_newsletter_id, COALESCE(provider_id, ''), created_at, updated_at`

// Subscribers implements subscriber.Repository and newsletter.Audience.
type Subscribers struct {
	db *sql.DB
}

func NewSubscribers(db *sql.DB) *Subscribers {
	return &Subscribers{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubscriber(row scanner, extra ...any) (*subscriber.Subscriber, error) {
	var (
		s    subscriber.Subscriber
		tags jsonList[string]
	)
	dest := []any{
		&s.ID, &s.Email, &s.Status,
		&s.ConfirmationToken, &s.UnsubscribeToken, &tags,
		&s.SubscribedAt, &s.ConfirmedAt, &s.UnsubscribedAt, &s.UnsubscribeReason,
		&s.LastNewsletterID, &s.ProviderID, &s.CreatedAt, &s.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	s.Tags = tags
	return &s, nil
}

// UpsertPending inserts a pending subscriber or resets a non-subscribed one
// in a single statement. A subscribed row makes the conditional update a
// no-op, which surfaces as no returned row.
func (r *Subscribers) UpsertPending(ctx context.Context, p subscriber.PendingParams) (*subscriber.Subscriber, bool, error) {
	const q = `
INSERT INTO subscribers (id, email, status, confirmation_token, tags, subscribed_at, created_at, updated_at)
VALUES ($1, $2, 'pending', $3, $4, $5, $5, $5)
ON CONFLICT (email) DO UPDATE SET
	status = 'pending',
	confirmation_token = EXCLUDED.confirmation_token,
	tags = (
		SELECT COALESCE(jsonb_agg(t ORDER BY ord), '[]'::jsonb)
		FROM (
			SELECT t, MIN(ord) AS ord
			FROM jsonb_array_elements_text(subscribers.tags || EXCLUDED.tags) WITH ORDINALITY AS e(t, ord)
			GROUP BY t
		) merged
	),
	subscribed_at = EXCLUDED.subscribed_at,
	updated_at = EXCLUDED.updated_at
WHERE subscribers.status <> 'subscribed'
RETURNING ` + subscriberColumns + `, (xmax = 0)`

	var created bool
	s, err := scanSubscriber(r.db.QueryRowContext(ctx, q,
		p.ID, p.Email, p.ConfirmationToken, jsonList[string](p.Tags), p.At,
	), &created)
	if noRows(err) {
		return nil, false, subscriber.ErrAlreadySubscribed
	}
	if err != nil {
		return nil, false, err
	}
	return s, created, nil
}

func (r *Subscribers) FindByConfirmationToken(ctx context.Context, token, email string) (*subscriber.Subscriber, error) {
	q := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE confirmation_token = $1`
	args := []any{token}
	if email != "" {
		q += ` AND email = $2`
		args = append(args, email)
	}
	return r.findOne(ctx, q, args...)
}

func (r *Subscribers) FindByUnsubscribeToken(ctx context.Context, token string) (*subscriber.Subscriber, error) {
	return r.findOne(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE unsubscribe_token = $1`, token)
}

func (r *Subscribers) FindByEmail(ctx context.Context, email string) (*subscriber.Subscriber, error) {
	return r.findOne(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE email = $1`, email)
}

func (r *Subscribers) findOne(ctx context.Context, q string, args ...any) (*subscriber.Subscriber, error) {
	s, err := scanSubscriber(r.db.QueryRowContext(ctx, q, args...))
	if noRows(err) {
		return nil, subscriber.ErrNotFound
	}
	return s, err
}

// Confirm only moves pending rows. It keeps an existing unsubscribe token so
// links already sent stay valid.
func (r *Subscribers) Confirm(ctx context.Context, id uuid.UUID, unsubscribeToken string, at time.Time) (*subscriber.Subscriber, bool, error) {
	const q = `
UPDATE subscribers SET
	status = 'subscribed',
	confirmed_at = $3,
	unsubscribe_token = COALESCE(unsubscribe_token, $2),
	updated_at = $3
WHERE id = $1 AND status = 'pending'
RETURNING ` + subscriberColumns

	return r.transition(ctx, id, q, id, unsubscribeToken, at)
}

func (r *Subscribers) Unsubscribe(ctx context.Context, id uuid.UUID, reason subscriber.Reason, at time.Time) (*subscriber.Subscriber, bool, error) {
	const q = `
UPDATE subscribers SET
	status = 'unsubscribed',
	unsubscribed_at = $2,
	unsubscribe_reason = $3,
	updated_at = $2
WHERE id = $1 AND status <> 'unsubscribed'
RETURNING ` + subscriberColumns

	return r.transition(ctx, id, q, id, at, nullString(string(reason)))
}

// transition runs a conditional update. When it matches nothing the
// current row is returned unchanged.
func (r *Subscribers) transition(ctx context.Context, id uuid.UUID, q string, args ...any) (*subscriber.Subscriber, bool, error) {
	s, err := scanSubscriber(r.db.QueryRowContext(ctx, q, args...))
	if err == nil {
		return s, true, nil
	}
	if !noRows(err) {
		return nil, false, err
	}

	s, err = r.findOne(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE id = $1`, id)
	if err != nil {
		return nil, false, err
	}
	return s, false, nil
}

// ListSubscribed returns recipients of a bulk send, oldest first.
func (r *Subscribers) ListSubscribed(ctx context.Context) ([]subscriber.Subscriber, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers WHERE status = 'subscribed' ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []subscriber.Subscriber
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *Subscribers) EnsureUnsubscribeToken(ctx context.Context, id uuid.UUID, token string) (string, error) {
	const q = `
UPDATE subscribers SET
	unsubscribe_token = COALESCE(unsubscribe_token, $2),
	updated_at = CASE WHEN unsubscribe_token IS NULL THEN now() ELSE updated_at END
WHERE id = $1
RETURNING unsubscribe_token`

	var current string
	err := r.db.QueryRowContext(ctx, q, id, token).Scan(&current)
	if noRows(err) {
		return "", subscriber.ErrNotFound
	}
	return current, err
}

func (r *Subscribers) SetLastNewsletter(ctx context.Context, subscriberID, newsletterID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE subscribers SET last_newsletter_id = $2, updated_at = now() WHERE id = $1`,
		subscriberID, newsletterID)
	return err
}
