package content

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/designneighbor/union-yoga-sanity/pkg/cache"
)

// Source reads testimonials and posts from the store.
// Post lookups only return posts that have a slug.
type Source interface {
	TestimonialsByID(ctx context.Context, ids []string) ([]Testimonial, error)
	RecentTestimonials(ctx context.Context, limit int) ([]Testimonial, error)
	PostsByID(ctx context.Context, ids []string) ([]Post, error)
	RecentPosts(ctx context.Context, limit int) ([]Post, error)
}

// Enricher resolves Testimonials and BlogPosts blocks before rendering.
type Enricher struct {
	source       Source
	testimonials cache.Cache[[]Testimonial]
	posts        cache.Cache[[]Post]
	ttl          time.Duration
	cdn          ImageCDN
	logger       *slog.Logger
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithCache memoises lookups for ttl.
func WithCache(testimonials cache.Cache[[]Testimonial], posts cache.Cache[[]Post], ttl time.Duration) EnricherOption {
	return func(e *Enricher) {
		e.testimonials = testimonials
		e.posts = posts
		e.ttl = ttl
	}
}

func WithImageCDN(cdn ImageCDN) EnricherOption {
	return func(e *Enricher) { e.cdn = cdn }
}

func WithLogger(l *slog.Logger) EnricherOption {
	return func(e *Enricher) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEnricher returns an Enricher reading from source.
func NewEnricher(source Source, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		source: source,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich returns a copy of blocks with testimonials and posts resolved and
// image URLs filled in. It never fails: a lookup error leaves that block
// with an empty list. Enriching already enriched blocks is a no-op.
func (e *Enricher) Enrich(ctx context.Context, blocks Blocks) Blocks {
	out := make(Blocks, len(blocks))
	for i, b := range blocks {
		switch v := b.(type) {
		case Testimonials:
			out[i] = e.testimonialsBlock(ctx, v)
		case BlogPosts:
			out[i] = e.postsBlock(ctx, v)
		case Hero:
			v.BackgroundImage = e.cdn.resolve(v.BackgroundImage)
			out[i] = v
		default:
			out[i] = b
		}
	}
	return out
}

func (e *Enricher) testimonialsBlock(ctx context.Context, b Testimonials) Testimonials {
	items, err := e.resolveTestimonials(ctx, b)
	if err != nil {
		e.logger.WarnContext(ctx, "failed to enrich testimonials block",
			slog.String("block_key", b.Key),
			slog.Any("error", err),
		)
		items = []Testimonial{}
	}

	resolved := make([]Testimonial, len(items))
	for i, t := range items {
		t.Image = e.cdn.resolve(t.Image)
		resolved[i] = t
	}
	b.Testimonials = resolved
	return b
}

func (e *Enricher) resolveTestimonials(ctx context.Context, b Testimonials) ([]Testimonial, error) {
	if b.IsResolved() {
		return b.Testimonials, nil
	}
	if len(b.Testimonials) > 0 {
		ids := b.RefIDs()
		if len(ids) == 0 {
			return []Testimonial{}, nil
		}
		return lookup(ctx, e.testimonials, e.ttl, "testimonials:ids:"+key(ids), func(ctx context.Context) ([]Testimonial, error) {
			found, err := e.source.TestimonialsByID(ctx, ids)
			if err != nil {
				return nil, err
			}
			return orderByRefs(found, ids, func(t Testimonial) string { return t.ID }), nil
		})
	}

	n := recentCount(b.Count)
	return lookup(ctx, e.testimonials, e.ttl, fmt.Sprintf("testimonials:recent:%d", n), func(ctx context.Context) ([]Testimonial, error) {
		return e.source.RecentTestimonials(ctx, n)
	})
}

func (e *Enricher) postsBlock(ctx context.Context, b BlogPosts) BlogPosts {
	items, err := e.resolvePosts(ctx, b)
	if err != nil {
		e.logger.WarnContext(ctx, "failed to enrich blog posts block",
			slog.String("block_key", b.Key),
			slog.Any("error", err),
		)
		items = []Post{}
	}

	resolved := make([]Post, len(items))
	for i, p := range items {
		p.MainImage = e.cdn.resolve(p.MainImage)
		resolved[i] = p
	}
	b.Posts = resolved
	return b
}

func (e *Enricher) resolvePosts(ctx context.Context, b BlogPosts) ([]Post, error) {
	if b.IsResolved() {
		return b.Posts, nil
	}
	if len(b.Posts) > 0 {
		ids := b.RefIDs()
		if len(ids) == 0 {
			return []Post{}, nil
		}
		return lookup(ctx, e.posts, e.ttl, "posts:ids:"+key(ids), func(ctx context.Context) ([]Post, error) {
			found, err := e.source.PostsByID(ctx, ids)
			if err != nil {
				return nil, err
			}
			return orderByRefs(found, ids, func(p Post) string { return p.ID }), nil
		})
	}

	n := recentCount(b.Count)
	return lookup(ctx, e.posts, e.ttl, fmt.Sprintf("posts:recent:%d", n), func(ctx context.Context) ([]Post, error) {
		return e.source.RecentPosts(ctx, n)
	})
}

// lookup goes through c when configured, straight to fetch otherwise.
func lookup[T any](ctx context.Context, c cache.Cache[[]T], ttl time.Duration, k string, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if c == nil {
		return fetch(ctx)
	}
	return cache.GetOrSet(ctx, c, k, func(ctx context.Context) ([]T, time.Duration, error) {
		v, err := fetch(ctx)
		return v, ttl, err
	})
}

func recentCount(n int) int {
	if n <= 0 {
		return DefaultRecentCount
	}
	return n
}

func key(ids []string) string {
	return strings.Join(ids, ",")
}

// orderByRefs returns items in the order their IDs appear in refs.
func orderByRefs[T any](items []T, refs []string, id func(T) string) []T {
	pos := make(map[string]int, len(refs))
	for i, r := range refs {
		if _, seen := pos[r]; !seen {
			pos[r] = i
		}
	}
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		return pos[id(a)] - pos[id(b)]
	})
	if out == nil {
		out = []T{}
	}
	return out
}
