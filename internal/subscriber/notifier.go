package subscriber

import (
	"context"
	"embed"
	"io/fs"

	"github.com/designneighbor/union-yoga-sanity/pkg/mailer"
)

//go:embed templates
var templates embed.FS

const confirmTemplate = "confirm_subscription.md"

// Templates returns the email templates rooted so that layouts live under "layouts".
func Templates() fs.FS {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Notifier delivers the double opt-in email.
type Notifier interface {
	SendConfirmation(ctx context.Context, email, confirmURL string) error
}

// MailNotifier sends confirmation emails rendered from Templates.
type MailNotifier struct {
	mailer *mailer.Mailer
	from   string
}

func NewMailNotifier(m *mailer.Mailer, from string) *MailNotifier {
	return &MailNotifier{mailer: m, from: from}
}

func (n *MailNotifier) SendConfirmation(ctx context.Context, email, confirmURL string) error {
	_, err := n.mailer.Send(ctx, mailer.SendParams{
		To:       email,
		Template: confirmTemplate,
		From:     n.from,
		Data: map[string]string{
			"Email": email,
			"URL":   confirmURL,
		},
		Tags: map[string]string{"category": "confirmation"},
	})
	return err
}
