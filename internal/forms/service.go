package forms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/designneighbor/union-yoga-sanity/internal/emailview"
	"github.com/designneighbor/union-yoga-sanity/internal/provider"
	"github.com/designneighbor/union-yoga-sanity/pkg/mailer/resend"
	"github.com/designneighbor/union-yoga-sanity/pkg/sanitizer"
	"github.com/designneighbor/union-yoga-sanity/pkg/validator"
)

// DefaultFrom is the sender of notification emails when none is configured.
const DefaultFrom = "Union Yoga <no-reply@david-lewis.co>"

// Repository stores submissions.
type Repository interface {
	Save(ctx context.Context, r *Record) error
	// ListByForm returns submissions of formID, oldest first.
	ListByForm(ctx context.Context, formID string) ([]Record, error)
}

// Observer is told about every submission outcome.
type Observer interface {
	FormSubmitted(ok bool)
}

// Service handles form submissions.
type Service struct {
	provider provider.Provider
	repo     Repository
	from     string
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithObserver(o Observer) ServiceOption {
	return func(s *Service) { s.observer = o }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service. A nil provider means email is not configured
// and every submission fails with ErrMisconfigured.
func NewService(p provider.Provider, repo Repository, from string, opts ...ServiceOption) *Service {
	if from == "" {
		from = DefaultFrom
	}
	s := &Service{
		provider: p,
		repo:     repo,
		from:     from,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates sub, emails it to its recipient and stores it. Storing
// is best-effort once the email is out.
func (s *Service) Submit(ctx context.Context, sub Submission, meta Meta) (*Receipt, error) {
	receipt, err := s.submit(ctx, sub, meta)
	if s.observer != nil {
		s.observer.FormSubmitted(err == nil)
	}
	return receipt, err
}

func (s *Service) submit(ctx context.Context, sub Submission, meta Meta) (*Receipt, error) {
	if s.provider == nil {
		return nil, ErrMisconfigured
	}
	if err := validator.Struct(sub); err != nil {
		return nil, ErrMissingFields
	}

	recipient := SanitizeRecipient(sub.RecipientEmail)
	if !ValidRecipient(recipient) {
		return nil, &RecipientError{Original: sub.RecipientEmail, Sanitized: recipient}
	}

	if msgs := Validate(sub.Fields, sub.FormData); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}

	now := s.now().UTC()
	values := answers(sub.Fields, sub.FormData)

	html, err := emailview.RenderFormEmail(ctx, emailview.FormNotification{
		FormID:      sanitizer.PlainText(sub.FormID),
		FormName:    sanitizer.PlainText(sub.FormName),
		SubmittedAt: now,
		Fields:      notificationFields(values),
	})
	if err != nil {
		return nil, fmt.Errorf("forms: render notification: %w", err)
	}

	res := s.provider.SendEmail(ctx, provider.SendRequest{
		Subject:    fmt.Sprintf("New %s Submission", sanitizer.PlainText(sub.FormName)),
		HTML:       html,
		Recipients: []string{recipient},
		From:       s.from,
		Tags:       map[string]string{"category": "form"},
	})
	if !res.Success {
		s.logger.ErrorContext(ctx, "failed to send form notification",
			slog.String("form_id", sub.FormID),
			slog.Any("error", res.Error),
		)
		if errors.Is(res.Error, resend.ErrValidation) {
			return nil, fmt.Errorf("%w: %w", ErrRecipientRejected, res.Error)
		}
		return nil, errors.Join(ErrSendFailed, res.Error)
	}

	record := &Record{
		ID:          uuid.New(),
		FormID:      sub.FormID,
		FormName:    sub.FormName,
		Data:        values,
		Status:      StatusUnread,
		SubmittedAt: now,
		IPAddress:   orUnknown(meta.IP),
		UserAgent:   orUnknown(meta.UserAgent),
		EmailID:     res.MessageID,
	}
	if s.repo != nil {
		if err := s.repo.Save(ctx, record); err != nil {
			s.logger.WarnContext(ctx, "failed to store form submission",
				slog.String("form_id", sub.FormID),
				slog.Any("error", err),
			)
		}
	}

	return &Receipt{EmailID: res.MessageID}, nil
}

// Validate checks data against fields and returns one message per problem.
func Validate(fields []Field, data map[string]string) []string {
	var msgs []string
	for _, f := range fields {
		value := strings.TrimSpace(data[f.Name])
		if value == "" {
			if f.Required {
				msgs = append(msgs, f.Label+" is required")
			}
			continue
		}

		switch f.FieldType {
		case FieldEmail:
			if !validator.IsEmail(data[f.Name]) {
				msgs = append(msgs, f.Label+" must be a valid email address")
			}
		case FieldTel:
			if !validator.IsPhone(data[f.Name]) {
				msgs = append(msgs, f.Label+" must be a valid phone number")
			}
		}
	}
	return msgs
}

// answers pairs every field with its value, tags removed. Unicode is kept
// so the stored submission matches what was typed.
func answers(fields []Field, data map[string]string) []Value {
	out := make([]Value, 0, len(fields))
	for _, f := range fields {
		out = append(out, Value{
			FieldName:  f.Name,
			FieldLabel: sanitizer.Text(f.Label),
			Value:      orNotProvided(sanitizer.Text(data[f.Name])),
		})
	}
	return out
}

// notificationFields narrows stored answers to the ASCII-only text used in
// the notification email.
func notificationFields(values []Value) []emailview.FormField {
	out := make([]emailview.FormField, len(values))
	for i, v := range values {
		out[i] = emailview.FormField{
			Label: sanitizer.PlainText(v.FieldLabel),
			Value: orNotProvided(sanitizer.PlainText(v.Value)),
		}
	}
	return out
}

func orNotProvided(s string) string {
	if s == "" {
		return NotProvided
	}
	return s
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
