package store

import (
	"context"
	"database/sql"

	"github.com/designneighbor/union-yoga-sanity/internal/content"
)

// Content implements content.Source over the CMS mirror tables.
type Content struct {
	db *sql.DB
}

func NewContent(db *sql.DB) *Content {
	return &Content{db: db}
}

const (
	testimonialColumns = `id, quote, name, company, image, created_at`
	postColumns        = `id, title, slug, main_image, published_at`
)

func (c *Content) TestimonialsByID(ctx context.Context, ids []string) ([]content.Testimonial, error) {
	if len(ids) == 0 {
		return []content.Testimonial{}, nil
	}
	return c.testimonials(ctx,
		`SELECT `+testimonialColumns+` FROM testimonials WHERE id IN (`+placeholders(1, len(ids))+`)`,
		anyArgs(ids)...)
}

func (c *Content) RecentTestimonials(ctx context.Context, limit int) ([]content.Testimonial, error) {
	return c.testimonials(ctx,
		`SELECT `+testimonialColumns+` FROM testimonials ORDER BY created_at DESC LIMIT $1`, limit)
}

func (c *Content) testimonials(ctx context.Context, q string, args ...any) ([]content.Testimonial, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []content.Testimonial{}
	for rows.Next() {
		var (
			t   content.Testimonial
			img jsonValue[content.Image]
		)
		if err := rows.Scan(&t.ID, &t.Quote, &t.Name, &t.Company, &img, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Image = img.V
		out = append(out, t)
	}
	return out, rows.Err()
}

// PostsByID skips posts without a slug; they cannot be linked.
func (c *Content) PostsByID(ctx context.Context, ids []string) ([]content.Post, error) {
	if len(ids) == 0 {
		return []content.Post{}, nil
	}
	return c.posts(ctx,
		`SELECT `+postColumns+` FROM posts WHERE slug IS NOT NULL AND id IN (`+placeholders(1, len(ids))+`)`,
		anyArgs(ids)...)
}

func (c *Content) RecentPosts(ctx context.Context, limit int) ([]content.Post, error) {
	return c.posts(ctx,
		`SELECT `+postColumns+` FROM posts WHERE slug IS NOT NULL ORDER BY published_at DESC NULLS LAST LIMIT $1`, limit)
}

func (c *Content) posts(ctx context.Context, q string, args ...any) ([]content.Post, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []content.Post{}
	for rows.Next() {
		var (
			p    content.Post
			slug sql.NullString
			img  jsonValue[content.Image]
		)
		if err := rows.Scan(&p.ID, &p.Title, &slug, &img, &p.PublishedAt); err != nil {
			return nil, err
		}
		p.Slug = content.Slug(slug.String)
		p.MainImage = img.V
		out = append(out, p)
	}
	return out, rows.Err()
}
