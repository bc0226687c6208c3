package store_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/designneighbor/union-yoga-sanity/internal/forms"
	"github.com/designneighbor/union-yoga-sanity/internal/store"
)

func TestSubmissions(t *testing.T) {
	t.Parallel()

	recID := uuid.New()

	t.Run("save", func(t *testing.T) {
		t.Parallel()
		conn, mock := newMock(t)

		mock.ExpectExec("INSERT INTO form_submissions").
			WithArgs(recID, "contact-1", "Contact",
				`[{"fieldName":"name","fieldLabel":"Name","value":"Amy"}]`,
				"unread", now, "203.0.113.9", "unknown", nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.NewSubmissions(conn).Save(context.Background(), &forms.Record{
			ID: recID, FormID: "contact-1", FormName: "Contact",
			Data:   []forms.Value{{FieldName: "name", FieldLabel: "Name", Value: "Amy"}},
			Status: forms.StatusUnread, SubmittedAt: now, IPAddress: "203.0.113.9", UserAgent: "unknown",
		})
		require.NoError(t, err)
	})

	t.Run("list by form", func(t *testing.T) {
		t.Parallel()
		conn, mock := newMock(t)

		mock.ExpectQuery(`FROM form_submissions WHERE form_id = \$1 ORDER BY submitted_at`).
			WithArgs("contact-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "form_id", "form_name", "data", "status", "submitted_at", "ip_address", "user_agent", "email_id"}).
				AddRow(recID.String(), "contact-1", "Contact",
					[]byte(`[{"fieldName":"name","fieldLabel":"Name","value":"Amy"}]`),
					"read", now, "203.0.113.9", "curl", "email-1"))

		recs, err := store.NewSubmissions(conn).ListByForm(context.Background(), "contact-1")
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, forms.StatusRead, recs[0].Status)
		assert.Equal(t, "email-1", recs[0].EmailID)
		assert.Equal(t, []forms.Value{{FieldName: "name", FieldLabel: "Name", Value: "Amy"}}, recs[0].Data)
	})
}
