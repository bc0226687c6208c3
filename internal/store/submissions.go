package store

import (
	"context"
	"database/sql"

	"github.com/designneighbor/union-yoga-sanity/internal/forms"
)

// Submissions implements forms.Repository.
type Submissions struct {
	db *sql.DB
}

func NewSubmissions(db *sql.DB) *Submissions {
	return &Submissions{db: db}
}

func (r *Submissions) Save(ctx context.Context, rec *forms.Record) error {
	const q = `
INSERT INTO form_submissions (id, form_id, form_name, data, status, submitted_at, ip_address, user_agent, email_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.FormID, rec.FormName, jsonList[forms.Value](rec.Data), string(rec.Status),
		rec.SubmittedAt, rec.IPAddress, rec.UserAgent, nullString(rec.EmailID),
	)
	return err
}

func (r *Submissions) ListByForm(ctx context.Context, formID string) ([]forms.Record, error) {
	const q = `
SELECT id, form_id, form_name, data, status, submitted_at, ip_address, user_agent, COALESCE(email_id, '')
FROM form_submissions WHERE form_id = $1 ORDER BY submitted_at, id`

	rows, err := r.db.QueryContext(ctx, q, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []forms.Record
	for rows.Next() {
		var (
			rec  forms.Record
			data jsonList[forms.Value]
		)
		if err := rows.Scan(&rec.ID, &rec.FormID, &rec.FormName, &data, &rec.Status,
			&rec.SubmittedAt, &rec.IPAddress, &rec.UserAgent, &rec.EmailID); err != nil {
			return nil, err
		}
		rec.Data = data
		out = append(out, rec)
	}
	return out, rows.Err()
}
