package forms

import (
	"regexp"
	"strings"

	"github.com/designneighbor/union-yoga-sanity/pkg/sanitizer"
)

var (
	recipientChars  = regexp.MustCompile(`[^a-zA-Z0-9@._-]`)
	repeatedDots    = regexp.MustCompile(`\.{2,}`)
	repeatedAts     = regexp.MustCompile(`@{2,}`)
	edgeDots        = regexp.MustCompile(`^\.+|\.+$`)
	dotsAroundAt    = regexp.MustCompile(`@\.|\.@`)
	strictRecipient = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// SanitizeRecipient normalises a recipient address to the character set the
// email provider accepts. The result still has to pass ValidRecipient.
func SanitizeRecipient(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = sanitizer.StripNonASCII(s)
	s = recipientChars.ReplaceAllString(s, "")
	s = repeatedDots.ReplaceAllString(s, ".")
	s = repeatedAts.ReplaceAllString(s, "@")
	s = edgeDots.ReplaceAllString(s, "")
	return dotsAroundAt.ReplaceAllString(s, "@")
}

// ValidRecipient reports whether s is a strict user@domain.tld address.
func ValidRecipient(s string) bool {
	return strictRecipient.MatchString(s)
}
