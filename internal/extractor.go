package internal

import "strings"

// ExtractorSource reads one value from the request. It reports false when
// the value is absent or empty.
type ExtractorSource = func(Context) (string, bool)

// Extractor tries sources in order and returns the first match.
type Extractor struct {
	sources []ExtractorSource
}

func NewExtractor(sources ...ExtractorSource) Extractor {
	return Extractor{sources: sources}
}

// Extract returns the first non-empty value, or ("", false).
func (e Extractor) Extract(c Context) (string, bool) {
	for _, src := range e.sources {
		if v, ok := src(c); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func nonEmpty(v string) (string, bool) {
	return v, v != ""
}

func FromHeader(name string) ExtractorSource {
	return func(c Context) (string, bool) {
		return nonEmpty(strings.TrimSpace(c.Header(name)))
	}
}

// FromForwardedFor reads the originating client address: the first entry
// of X-Forwarded-For.
func FromForwardedFor() ExtractorSource {
	return func(c Context) (string, bool) {
		first, _, _ := strings.Cut(c.Header("X-Forwarded-For"), ",")
		return nonEmpty(strings.TrimSpace(first))
	}
}

// FromBearerToken reads the token of an "Authorization: Bearer" header.
// The scheme is matched case-insensitively.
func FromBearerToken() ExtractorSource {
	return func(c Context) (string, bool) {
		auth := c.Header("Authorization")
		if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
			return "", false
		}
		return nonEmpty(strings.TrimSpace(auth[7:]))
	}
}
