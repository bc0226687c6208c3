// Package sanitizer cleans user-supplied strings before they are stored or
// placed into outgoing email.
package sanitizer

import (
	"html"
	"strings"
	"sync"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
}

// StripHTML removes every tag and returns plain text.
// Entities produced by the policy are decoded so the result can be escaped
// exactly once by whatever renders it next.
func StripHTML(s string) string {
	initPolicies()
	return html.UnescapeString(strictPolicy.Sanitize(s))
}

// StripNonASCII drops every rune outside the 7-bit ASCII range.
func StripNonASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
}

// Text removes tags and surrounding whitespace and keeps every other rune.
func Text(s string) string {
	return strings.TrimSpace(StripHTML(s))
}

// PlainText is Text limited to ASCII, for outgoing email.
func PlainText(s string) string {
	return strings.TrimSpace(StripNonASCII(StripHTML(s)))
}
