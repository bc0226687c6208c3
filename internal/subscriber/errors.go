package subscriber

import "errors"

var (
	ErrInvalidEmail        = errors.New("subscriber: invalid email address")
	ErrMissingToken        = errors.New("subscriber: token is required")
	ErrMissingIdentifier   = errors.New("subscriber: token or email is required")
	ErrNotFound            = errors.New("subscriber: not found")
	ErrAlreadySubscribed   = errors.New("subscriber: email is already subscribed")
	ErrConfirmationNotSent = errors.New("subscriber: failed to send confirmation email")
	ErrStore               = errors.New("subscriber: store failure")
)
