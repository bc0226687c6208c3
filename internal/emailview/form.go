package emailview

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/a-h/templ"
)

// FormField is one labelled value of a submitted form.
type FormField struct {
	Label string
	Value string
}

// FormNotification is the email sent to a form's recipient.
type FormNotification struct {
	FormID      string
	FormName    string
	SubmittedAt time.Time
	Fields      []FormField
}

const submittedLayout = "Jan 2, 2006 3:04 PM MST"

// FormEmail renders n. Values are expected to be plain text already.
func FormEmail(n FormNotification) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.element("h2", "New Form Submission: "+n.FormName)

		h.raw("<p><strong>Form ID:</strong> ")
		h.text(n.FormID)
		h.raw("</p><p><strong>Submitted:</strong> ")
		h.text(n.SubmittedAt.Format(submittedLayout))
		h.raw("</p>")

		h.raw("<h3>Form Data:</h3><ul>")
		for _, f := range n.Fields {
			h.raw("<li><strong>")
			h.text(f.Label)
			h.raw(":</strong> ")
			h.text(orDefault(f.Value, "Not provided"))
			h.raw("</li>")
		}
		h.raw("</ul>")
		return h.err
	})
}

// RenderFormEmail returns the notification HTML for n.
func RenderFormEmail(ctx context.Context, n FormNotification) (string, error) {
	var buf bytes.Buffer
	if err := FormEmail(n).Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
