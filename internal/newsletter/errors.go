package newsletter

import "errors"

var (
	ErrMissingID         = errors.New("newsletter: id is required")
	ErrMissingTestEmail  = errors.New("newsletter: test email is required")
	ErrInvalidEmail      = errors.New("newsletter: invalid email address")
	ErrMissingTitle      = errors.New("newsletter: title is required")
	ErrNotFound          = errors.New("newsletter: not found")
	ErrEmptyContent      = errors.New("newsletter: no content blocks")
	ErrAlreadySent       = errors.New("newsletter: already sent")
	ErrNoSubscribers     = errors.New("newsletter: no active subscribers")
	ErrSendFailed        = errors.New("newsletter: failed to send email")
	ErrInvalidTransition = errors.New("newsletter: invalid status transition")
	ErrInvalidSchedule   = errors.New("newsletter: scheduled time must be in the future")
	ErrDeliveryNotFound  = errors.New("newsletter: delivery not found")
	ErrRender            = errors.New("newsletter: failed to render")
	ErrStore             = errors.New("newsletter: store failure")
)
