package emailview

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Page is a minimal status page shown after following an email link.
type Page struct {
	Title   string
	Heading string
	Message string
	Note    string
	Success bool
}

// Status pages for the confirm and unsubscribe links.
var (
	PageConfirmed = Page{
		Title:   "Subscription Confirmed",
		Heading: "Subscription Confirmed!",
		Message: "Thank you for confirming your subscription. You're all set to receive our newsletters.",
		Success: true,
	}
	PageAlreadyConfirmed = Page{
		Title:   "Already Confirmed",
		Heading: "Already Confirmed",
		Message: "Your subscription is already confirmed. Thank you!",
	}
	PageInvalidConfirmation = Page{
		Title:   "Invalid Confirmation",
		Heading: "Invalid Confirmation Link",
		Message: "The confirmation link is invalid or has expired.",
	}
	PageConfirmError = Page{
		Title:   "Error",
		Heading: "Error",
		Message: "An error occurred while confirming your subscription. Please try again later.",
	}

	PageUnsubscribed = Page{
		Title:   "Unsubscribed",
		Heading: "Successfully Unsubscribed",
		Message: "You have been unsubscribed from our newsletter. We're sorry to see you go!",
		Note:    "If you change your mind, you can always subscribe again.",
		Success: true,
	}
	PageAlreadyUnsubscribed = Page{
		Title:   "Already Unsubscribed",
		Heading: "Already Unsubscribed",
		Message: "You are already unsubscribed from our newsletter.",
	}
	PageInvalidUnsubscribe = Page{
		Title:   "Invalid Unsubscribe Link",
		Heading: "Invalid Unsubscribe Link",
		Message: "The unsubscribe link is invalid or has expired.",
	}
	PageUnsubscribeError = Page{
		Title:   "Error",
		Heading: "Error",
		Message: "An error occurred while unsubscribing. Please try again later.",
	}
)

func (p Page) Render(ctx context.Context, w io.Writer) error {
	return StatusPage(p).Render(ctx, w)
}

// StatusPage renders p as a standalone HTML document.
func StatusPage(p Page) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<!DOCTYPE html><html>")
		h.raw("<head>")
		h.element("title", p.Title)
		h.raw("</head>")
		h.open("body", "style", "font-family: Arial, sans-serif; text-align: center; padding: 50px;")

		headingStyle := ""
		if p.Success {
			headingStyle = "color: #1a202c;"
		}
		h.element("h1", p.Heading, "style", headingStyle)
		h.element("p", p.Message)
		if p.Note != "" {
			h.element("p", p.Note, "style", "margin-top: 30px; font-size: 14px; color: #8898aa;")
		}
		h.raw("</body></html>")
		return h.err
	})
}

// PreviewError is the page shown when a newsletter preview cannot be built.
func PreviewError(message, detail string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw("<!DOCTYPE html><html><head><title>Preview Error</title><style>")
		h.raw("body { font-family: Arial, sans-serif; max-width: 600px; margin: 50px auto; padding: 20px; } .error { color: #d32f2f; }")
		h.raw("</style></head><body><h1>Preview Error</h1>")
		h.element("p", message, "class", "error")
		if detail != "" {
			h.element("p", detail)
		}
		h.raw("</body></html>")
		return h.err
	})
}
