// Package content models newsletter content blocks and resolves the blocks
// that reference testimonials and blog posts.
package content

import (
	"encoding/json"
	"time"
)

// Kind is the "_type" discriminator of a block.
type Kind string

const (
	KindHero         Kind = "emailHero"
	KindText         Kind = "emailText"
	KindTestimonials Kind = "emailTestimonials"
	KindBlogPosts    Kind = "emailBlogPosts"
	KindCTA          Kind = "emailCTA"
	KindDivider      Kind = "emailDivider"
)

// DefaultRecentCount is used when a block asks for recent items without a count.
const DefaultRecentCount = 3

// Block is one of Hero, Text, Testimonials, BlogPosts, CTA, Divider or Ignored.
type Block interface {
	Kind() Kind
	block()
}

type Hero struct {
	Key             string `json:"_key,omitempty"`
	Headline        string `json:"headline,omitempty"`
	Subheading      string `json:"subheading,omitempty"`
	BackgroundImage *Image `json:"backgroundImage,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	TextColor       string `json:"textColor,omitempty"`
}

type Text struct {
	Key       string `json:"_key,omitempty"`
	Content   string `json:"content,omitempty"`
	TextAlign string `json:"textAlign,omitempty"`
}

// Testimonials holds either references, resolved testimonials, or neither
// (meaning "the Count most recent").
type Testimonials struct {
	Key          string        `json:"_key,omitempty"`
	Title        string        `json:"title,omitempty"`
	Count        int           `json:"count,omitempty"`
	Testimonials []Testimonial `json:"testimonials,omitempty"`
}

// BlogPosts mirrors Testimonials for blog posts.
type BlogPosts struct {
	Key   string `json:"_key,omitempty"`
	Title string `json:"title,omitempty"`
	Count int    `json:"count,omitempty"`
	Posts []Post `json:"posts,omitempty"`
}

type CTA struct {
	Key             string `json:"_key,omitempty"`
	Text            string `json:"text,omitempty"`
	URL             string `json:"url,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	TextColor       string `json:"textColor,omitempty"`
	Align           string `json:"align,omitempty"`
}

type Divider struct {
	Key       string `json:"_key,omitempty"`
	Spacing   *int   `json:"spacing,omitempty"`
	ShowLine  bool   `json:"showLine,omitempty"`
	LineColor string `json:"lineColor,omitempty"`
}

// Ignored is any block type this service does not render. Its JSON is kept
// verbatim so it survives a round trip through the store.
type Ignored struct {
	Type string
	Raw  json.RawMessage
}

func (Hero) Kind() Kind         { return KindHero }
func (Text) Kind() Kind         { return KindText }
func (Testimonials) Kind() Kind { return KindTestimonials }
func (BlogPosts) Kind() Kind    { return KindBlogPosts }
func (CTA) Kind() Kind          { return KindCTA }
func (Divider) Kind() Kind      { return KindDivider }
func (b Ignored) Kind() Kind    { return Kind(b.Type) }

func (Hero) block()         {}
func (Text) block()         {}
func (Testimonials) block() {}
func (BlogPosts) block()    {}
func (CTA) block()          {}
func (Divider) block()      {}
func (Ignored) block()      {}

// Testimonial is a quote from a student. Ref is set when the entry is only
// a reference that has not been resolved yet.
type Testimonial struct {
	ID        string     `json:"_id,omitempty"`
	Ref       string     `json:"_ref,omitempty"`
	Quote     string     `json:"quote,omitempty"`
	Name      string     `json:"name,omitempty"`
	Company   string     `json:"company,omitempty"`
	Image     *Image     `json:"image,omitempty"`
	CreatedAt *time.Time `json:"_createdAt,omitempty"`
}

// Post is a blog post summary.
type Post struct {
	ID          string     `json:"_id,omitempty"`
	Ref         string     `json:"_ref,omitempty"`
	Title       string     `json:"title,omitempty"`
	Slug        Slug       `json:"slug,omitzero"`
	MainImage   *Image     `json:"mainImage,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// Image is a CMS image. URL is filled in during enrichment from the asset reference.
type Image struct {
	Asset *AssetRef `json:"asset,omitempty"`
	URL   string    `json:"url,omitempty"`
	Alt   string    `json:"alt,omitempty"`
}

type AssetRef struct {
	Ref string `json:"_ref"`
}

// Slug accepts both "my-post" and {"current":"my-post"}.
type Slug string

func (s Slug) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Current string `json:"current"`
	}{string(s)})
}

func (s *Slug) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = Slug(str)
		return nil
	}
	var obj struct {
		Current string `json:"current"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*s = Slug(obj.Current)
	return nil
}

// IsResolved reports whether the block already carries full testimonials.
func (b Testimonials) IsResolved() bool {
	return len(b.Testimonials) > 0 && b.Testimonials[0].ID != "" && b.Testimonials[0].Quote != ""
}

// RefIDs returns the referenced testimonial IDs in order.
func (b Testimonials) RefIDs() []string {
	ids := make([]string, 0, len(b.Testimonials))
	for _, t := range b.Testimonials {
		if id := firstNonEmpty(t.Ref, t.ID); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// IsResolved reports whether the block already carries full posts.
func (b BlogPosts) IsResolved() bool {
	return len(b.Posts) > 0 && b.Posts[0].ID != "" && b.Posts[0].Title != ""
}

// RefIDs returns the referenced post IDs in order.
func (b BlogPosts) RefIDs() []string {
	ids := make([]string, 0, len(b.Posts))
	for _, p := range b.Posts {
		if id := firstNonEmpty(p.Ref, p.ID); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
