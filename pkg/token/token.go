// Package token generates the opaque tokens embedded in confirmation and
// unsubscribe links.
package token

import (
	"crypto/rand"
	"encoding/hex"
)

// Size is the number of random bytes in a token.
const Size = 32

// New returns Size random bytes hex-encoded (64 characters).
func New() string {
	b := make([]byte, Size)
	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Valid reports whether s has the shape of a token produced by New.
func Valid(s string) bool {
	if len(s) != hex.EncodedLen(Size) {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
