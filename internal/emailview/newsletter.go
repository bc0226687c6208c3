// Package emailview renders newsletter emails and the small HTML pages
// served to browsers.
package emailview

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/designneighbor/union-yoga-sanity/internal/content"
)

// DefaultSiteURL is used when Options.SiteURL is empty.
const DefaultSiteURL = "https://example.com"

const unsubscribePath = "/api/newsletters/unsubscribe"

const fontStack = `-apple-system,BlinkMacSystemFont,"Segoe UI",Roboto,"Helvetica Neue",Ubuntu,sans-serif`

// Options personalises a rendered newsletter.
type Options struct {
	Preview          string // inbox preview text
	SiteURL          string
	RecipientEmail   string
	UnsubscribeToken string
}

func (o Options) siteURL() string {
	return strings.TrimRight(orDefault(o.SiteURL, DefaultSiteURL), "/")
}

// UnsubscribeURL prefers the token, then the recipient address, then the bare path.
func (o Options) UnsubscribeURL() string {
	base := o.siteURL() + unsubscribePath
	switch {
	case o.UnsubscribeToken != "":
		return base + "?token=" + url.QueryEscape(o.UnsubscribeToken)
	case o.RecipientEmail != "":
		return base + "?email=" + url.QueryEscape(o.RecipientEmail)
	default:
		return base
	}
}

// Render returns the complete HTML document for blocks. Output depends only
// on its arguments.
func Render(ctx context.Context, blocks content.Blocks, opts Options) (string, error) {
	var buf bytes.Buffer
	if err := Newsletter(blocks, opts).Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Newsletter is the email document as a templ component.
func Newsletter(blocks content.Blocks, opts Options) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}

		h.raw(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">`)
		h.open("html", "lang", "en", "dir", "ltr")
		h.raw(`<head><meta content="text/html; charset=UTF-8" http-equiv="Content-Type"/><meta name="x-apple-disable-message-reformatting"/></head>`)
		if opts.Preview != "" {
			h.open("div", "style", "display:none;overflow:hidden;line-height:1px;opacity:0;max-height:0;max-width:0")
			h.text(opts.Preview)
			h.close("div")
		}

		h.open("body", "style", style("background-color", "#f6f9fc", "font-family", fontStack))
		h.open("table", "align", "center", "width", "100%", "role", "presentation", "cellspacing", "0", "cellpadding", "0", "border", "0",
			"style", style("max-width", "600px", "background-color", "#ffffff", "margin", "0 auto", "padding", "20px 0 48px", "margin-bottom", "64px"))
		h.raw(`<tbody><tr style="width:100%"><td>`)

		site := opts.siteURL()
		for _, b := range blocks {
			writeBlock(h, b, site)
		}
		writeFooter(h, opts.UnsubscribeURL())

		h.raw(`</td></tr></tbody></table>`)
		h.close("body")
		h.close("html")
		return h.err
	})
}

func writeBlock(h *htmlWriter, b content.Block, site string) {
	switch v := b.(type) {
	case content.Hero:
		writeHero(h, v)
	case content.Text:
		writeText(h, v)
	case content.Testimonials:
		writeTestimonials(h, v)
	case content.BlogPosts:
		writeBlogPosts(h, v, site)
	case content.CTA:
		writeCTA(h, v)
	case content.Divider:
		writeDivider(h, v)
	case content.Ignored:
	}
}

func writeFooter(h *htmlWriter, unsubscribeURL string) {
	h.open("div", "style", style("margin-top", "40px", "padding", "20px", "text-align", "center", "border-top", "1px solid #e0e0e0"))
	h.element("p", "You're receiving this email because you subscribed to our newsletter.",
		"style", style("font-size", "12px", "color", "#666666", "margin", "0 0 8px 0"))
	h.element("a", "Unsubscribe",
		"href", href(unsubscribeURL),
		"style", style("font-size", "12px", "color", "#007bff", "text-decoration", "underline"))
	h.close("div")
}
