// Package forms validates contact form submissions, emails them to the
// form's recipient and keeps a copy for export.
package forms

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldType is the input kind of a form field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldTel      FieldType = "tel"
	FieldTextarea FieldType = "textarea"
	FieldRadio    FieldType = "radio"
	FieldSelect   FieldType = "select"
)

// Option is a choice of a radio or select field.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Field describes one input of a form.
type Field struct {
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	FieldType FieldType `json:"fieldType"`
	Required  bool      `json:"required"`
	Options   []Option  `json:"options,omitempty"`
}

// Submission is the payload posted by the site.
type Submission struct {
	FormID         string            `json:"formId" validate:"required"`
	FormName       string            `json:"formName" validate:"required"`
	Fields         []Field           `json:"fields" validate:"required"`
	RecipientEmail string            `json:"recipientEmail" validate:"required"`
	FormData       map[string]string `json:"formData" validate:"required"`
}

// Meta is request information stored with a submission.
type Meta struct {
	IP        string
	UserAgent string
}

// SubmissionStatus is the inbox state of a stored submission.
type SubmissionStatus string

const (
	StatusUnread   SubmissionStatus = "unread"
	StatusRead     SubmissionStatus = "read"
	StatusArchived SubmissionStatus = "archived"
)

// Value is one answered field of a stored submission.
type Value struct {
	FieldName  string `json:"fieldName"`
	FieldLabel string `json:"fieldLabel"`
	Value      string `json:"value"`
}

// Record is a stored submission.
type Record struct {
	ID          uuid.UUID
	FormID      string
	FormName    string
	Data        []Value
	Status      SubmissionStatus
	SubmittedAt time.Time
	IPAddress   string
	UserAgent   string
	EmailID     string
}

// Receipt is returned for an accepted submission.
type Receipt struct {
	EmailID string
}

// NotProvided replaces empty answers in emails and stored records.
const NotProvided = "Not provided"

var (
	ErrMisconfigured     = errors.New("Email service not configured")                                        //nolint:staticcheck // shown to clients
	ErrMissingFields     = errors.New("Missing required fields")                                             //nolint:staticcheck // shown to clients
	ErrInvalidRecipient  = errors.New("Recipient email contains invalid characters")                         //nolint:staticcheck // shown to clients
	ErrValidation        = errors.New("Validation failed")                                                   //nolint:staticcheck // shown to clients
	ErrRecipientRejected = errors.New("Email validation failed. Please check the recipient email address.") //nolint:staticcheck // shown to clients
	ErrSendFailed        = errors.New("Failed to send email")                                                //nolint:staticcheck // shown to clients
	ErrNotFound          = errors.New("forms: no submissions found")
)

// ValidationError lists every field problem of a submission.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// RecipientError carries the rejected and sanitised recipient address.
type RecipientError struct {
	Original  string
	Sanitized string
}

func (e *RecipientError) Error() string { return ErrInvalidRecipient.Error() }

func (e *RecipientError) Unwrap() error { return ErrInvalidRecipient }
