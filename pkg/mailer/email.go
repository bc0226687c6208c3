package mailer

import (
	"context"
	"fmt"
)

// Sender delivers a fully rendered email and returns the provider's message ID.
type Sender interface {
	Send(ctx context.Context, email *Email) (string, error)
}

// Email is a rendered message ready for a Sender.
type Email struct {
	Headers map[string]string
	// Tags are provider metadata attached to the message, e.g. newsletter_id.
	Tags    map[string]string
	Subject string
	HTML    string
	Text    string
	From    string // empty means the sender's configured address
	ReplyTo string
	To      []string
}

// Validate checks the fields every provider requires.
func (e *Email) Validate() error {
	switch {
	case len(e.To) == 0:
		return ErrNoRecipient
	case e.Subject == "":
		return ErrNoSubject
	case e.HTML == "":
		return ErrNoContent
	}
	return nil
}

// Recipient formats "Name <email>", or just the email when name is empty.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}
