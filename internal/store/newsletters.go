package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/designneighbor/union-yoga-sanity/internal/newsletter"
	"github.com/designneighbor/union-yoga-sanity/pkg/db"
)

const newsletterColumns = `id, title, content, status, platform,
	scheduled_send_time, sent_at,
	sent_count, delivered_count, open_count, click_count, bounce_count, complaint_count,
	delivery_date, created_at, updated_at`

const deliveryColumns = `id, newsletter_id, subscriber_id, email, message_id, status, created_at, updated_at`

// eventCounters maps a delivery status to the campaign counter it bumps.
var eventCounters = map[newsletter.DeliveryStatus]string{
	newsletter.DeliveryDelivered:  "delivered_count",
	newsletter.DeliveryOpened:     "open_count",
	newsletter.DeliveryClicked:    "click_count",
	newsletter.DeliveryBounced:    "bounce_count",
	newsletter.DeliveryComplained: "complaint_count",
}

// Newsletters implements newsletter.Repository.
type Newsletters struct {
	db *sql.DB
}

func NewNewsletters(db *sql.DB) *Newsletters {
	return &Newsletters{db: db}
}

func scanNewsletter(row scanner) (*newsletter.Newsletter, error) {
	var n newsletter.Newsletter
	err := row.Scan(
		&n.ID, &n.Title, &n.Content, &n.Status, &n.Platform,
		&n.ScheduledSendTime, &n.SentAt,
		&n.Stats.SentCount, &n.Stats.DeliveredCount, &n.Stats.OpenCount,
		&n.Stats.ClickCount, &n.Stats.BounceCount, &n.Stats.ComplaintCount,
		&n.Stats.DeliveryDate, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *Newsletters) Create(ctx context.Context, n *newsletter.Newsletter) error {
	const q = `
INSERT INTO newsletters (id, title, content, status, platform, scheduled_send_time, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, q,
		n.ID, n.Title, n.Content, string(n.Status), string(n.Platform),
		n.ScheduledSendTime, n.CreatedAt, n.UpdatedAt,
	)
	return err
}

func (r *Newsletters) Get(ctx context.Context, id uuid.UUID) (*newsletter.Newsletter, error) {
	n, err := scanNewsletter(r.db.QueryRowContext(ctx,
		`SELECT `+newsletterColumns+` FROM newsletters WHERE id = $1`, id))
	if noRows(err) {
		return nil, newsletter.ErrNotFound
	}
	return n, err
}

func (r *Newsletters) ListDue(ctx context.Context, now time.Time) ([]newsletter.Newsletter, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+newsletterColumns+` FROM newsletters
WHERE status = 'scheduled' AND scheduled_send_time <= $1
ORDER BY scheduled_send_time, id`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []newsletter.Newsletter
	for rows.Next() {
		n, err := scanNewsletter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (r *Newsletters) Schedule(ctx context.Context, id uuid.UUID, at time.Time) (*newsletter.Newsletter, error) {
	const q = `
UPDATE newsletters SET status = 'scheduled', scheduled_send_time = $2, updated_at = now()
WHERE id = $1 AND status <> 'sent'
RETURNING ` + newsletterColumns

	n, err := scanNewsletter(r.db.QueryRowContext(ctx, q, id, at))
	if err == nil {
		return n, nil
	}
	if !noRows(err) {
		return nil, err
	}

	var status string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM newsletters WHERE id = $1`, id).Scan(&status)
	switch {
	case noRows(err):
		return nil, newsletter.ErrNotFound
	case err != nil:
		return nil, err
	default:
		return nil, newsletter.ErrInvalidTransition
	}
}

func (r *Newsletters) MarkSent(ctx context.Context, id uuid.UUID, sentCount int, at time.Time) (bool, error) {
	const q = `
UPDATE newsletters SET
	status = 'sent', sent_at = $3, sent_count = $2, delivery_date = $3, updated_at = $3
WHERE id = $1 AND status <> 'sent'`

	res, err := r.db.ExecContext(ctx, q, id, sentCount, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RecordDelivery ignores a message id that is already recorded.
func (r *Newsletters) RecordDelivery(ctx context.Context, d newsletter.Delivery) error {
	const q = `
INSERT INTO deliveries (id, newsletter_id, subscriber_id, email, message_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
ON CONFLICT (message_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, q,
		d.ID, d.NewsletterID, d.SubscriberID, d.Email, d.MessageID, string(d.Status), d.CreatedAt)
	return err
}

func (r *Newsletters) FindDelivery(ctx context.Context, messageID string) (*newsletter.Delivery, error) {
	var d newsletter.Delivery
	err := r.db.QueryRowContext(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE message_id = $1`, messageID,
	).Scan(&d.ID, &d.NewsletterID, &d.SubscriberID, &d.Email, &d.MessageID, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if noRows(err) {
		return nil, newsletter.ErrDeliveryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Newsletters) ApplyEvent(ctx context.Context, d *newsletter.Delivery, status newsletter.DeliveryStatus, at time.Time) error {
	counter, ok := eventCounters[status]
	if !ok {
		return fmt.Errorf("store: no counter for delivery status %q", status)
	}

	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE deliveries SET status = $2, updated_at = $3 WHERE id = $1`,
			d.ID, string(status), at,
		); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE newsletters SET `+counter+` = `+counter+` + 1, updated_at = $2 WHERE id = $1`,
			d.NewsletterID, at,
		)
		return err
	})
}
