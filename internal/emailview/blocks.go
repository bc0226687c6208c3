package emailview

import (
	"fmt"
	"strings"

	"github.com/designneighbor/union-yoga-sanity/internal/content"
)

const postDateLayout = "Jan 2, 2006"

func writeHero(h *htmlWriter, b content.Hero) {
	bg := orDefault(b.BackgroundColor, "#ffffff")
	fg := orDefault(b.TextColor, "#000000")

	if src := b.BackgroundImage.Sized(600); src != "" {
		alt := "Hero image"
		if b.BackgroundImage.Alt != "" {
			alt = b.BackgroundImage.Alt
		} else if b.Headline != "" {
			alt = b.Headline
		}

		h.open("div", "style", style("position", "relative", "margin-bottom", "20px"))
		h.open("img", "src", href(src), "alt", alt, "width", "600", "style", style("display", "block", "width", "100%", "height", "auto"))
		if b.Headline != "" || b.Subheading != "" {
			h.open("div", "style", style("position", "absolute", "top", "50%", "left", "50%", "transform", "translate(-50%, -50%)", "text-align", "center", "width", "90%"))
			writeHeroText(h, b, fg)
			h.close("div")
		}
		h.close("div")
		return
	}

	h.open("div", "style", style("background-color", bg, "padding", "60px 20px", "text-align", "center", "margin-bottom", "20px"))
	writeHeroText(h, b, fg)
	h.close("div")
}

func writeHeroText(h *htmlWriter, b content.Hero, color string) {
	if b.Headline != "" {
		h.element("h1", b.Headline, "style", style("color", color, "font-size", "32px", "font-weight", "bold", "line-height", "1.2", "margin", "0 0 16px 0"))
	}
	if b.Subheading != "" {
		h.element("p", b.Subheading, "style", style("color", color, "font-size", "18px", "line-height", "1.5", "margin", "0"))
	}
}

func writeText(h *htmlWriter, b content.Text) {
	if strings.TrimSpace(b.Content) == "" {
		return
	}
	h.open("div", "style", style("padding", "0 20px"))
	h.element("p", b.Content, "style", style("font-size", "16px", "line-height", "1.6", "color", "#333333", "text-align", orDefault(b.TextAlign, "left"), "margin", "0 0 16px 0"))
	h.close("div")
}

func writeCTA(h *htmlWriter, b content.CTA) {
	if b.Text == "" || b.URL == "" {
		return
	}
	h.open("div", "style", style("text-align", orDefault(b.Align, "center"), "padding", "20px"))
	h.element("a", b.Text,
		"href", href(b.URL),
		"style", style(
			"display", "inline-block",
			"padding", "12px 24px",
			"background-color", orDefault(b.BackgroundColor, "#007bff"),
			"color", orDefault(b.TextColor, "#ffffff"),
			"font-size", "16px",
			"font-weight", "bold",
			"text-decoration", "none",
			"border-radius", "4px",
		))
	h.close("div")
}

func writeDivider(h *htmlWriter, b content.Divider) {
	spacing := 20
	if b.Spacing != nil {
		spacing = *b.Spacing
	}
	pad := fmt.Sprintf("%dpx", spacing)

	h.open("div", "style", style("padding-top", pad, "padding-bottom", pad))
	if b.ShowLine {
		h.open("hr", "style", style("border", "none", "border-top", "1px solid "+orDefault(b.LineColor, "#cccccc"), "margin", "0"))
	}
	h.close("div")
}

func writeTestimonials(h *htmlWriter, b content.Testimonials) {
	if len(b.Testimonials) == 0 {
		return
	}
	h.open("div", "style", style("padding", "0 20px", "margin-bottom", "20px"))
	if b.Title != "" {
		h.element("h2", b.Title, "style", style("font-size", "24px", "font-weight", "bold", "text-align", "center", "color", "#333333", "margin", "0 0 20px 0"))
	}

	for _, t := range b.Testimonials {
		h.open("div", "style", style("margin-bottom", "30px", "padding", "20px", "background-color", "#f9f9f9", "border-radius", "8px", "text-align", "center"))
		if src := t.Image.Sized(160); src != "" {
			h.open("img", "src", href(src), "alt", orDefault(t.Name, "Testimonial"), "width", "80", "height", "80",
				"style", style("border-radius", "50%", "margin", "0 auto 16px", "display", "block", "object-fit", "cover"))
		}
		if t.Quote != "" {
			h.element("p", `"`+t.Quote+`"`, "style", style("font-size", "16px", "line-height", "1.6", "color", "#333333", "font-style", "italic", "margin", "0 0 12px 0"))
		}
		if t.Name != "" {
			name := t.Name
			if t.Company != "" {
				name += ", " + t.Company
			}
			h.element("p", name, "style", style("font-size", "14px", "font-weight", "bold", "color", "#666666", "margin", "0"))
		}
		h.close("div")
	}
	h.close("div")
}

func writeBlogPosts(h *htmlWriter, b content.BlogPosts, site string) {
	if len(b.Posts) == 0 {
		return
	}
	h.open("div", "style", style("padding", "0 20px", "margin-bottom", "20px"))
	if b.Title != "" {
		h.element("h2", b.Title, "style", style("font-size", "24px", "font-weight", "bold", "text-align", "center", "color", "#333333", "margin", "0 0 20px 0"))
	}

	for _, p := range b.Posts {
		link := "#"
		if p.Slug != "" {
			link = site + "/blog/" + string(p.Slug)
		}

		h.open("div", "style", style("margin-bottom", "30px", "text-align", "center"))
		if src := p.MainImage.Sized(600); src != "" {
			alt := "Blog post"
			if p.MainImage.Alt != "" {
				alt = p.MainImage.Alt
			} else if p.Title != "" {
				alt = p.Title
			}
			h.open("a", "href", href(link))
			h.open("img", "src", href(src), "alt", alt, "width", "300",
				"style", style("max-width", "100%", "height", "auto", "border-radius", "4px", "margin", "0 auto 12px", "display", "block"))
			h.close("a")
		}
		if p.Title != "" {
			h.open("h3", "style", style("margin", "0 0 8px 0"))
			h.element("a", p.Title, "href", href(link), "style", style("font-size", "18px", "font-weight", "bold", "color", "#007bff", "text-decoration", "none"))
			h.close("h3")
		}
		if p.PublishedAt != nil {
			h.element("p", p.PublishedAt.Format(postDateLayout), "style", style("font-size", "14px", "color", "#666666", "margin", "0"))
		}
		h.close("div")
	}
	h.close("div")
}
