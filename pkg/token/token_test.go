package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/designneighbor/union-yoga-sanity/pkg/token"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("hex encoded 32 bytes", func(t *testing.T) {
		t.Parallel()
		tok := token.New()
		assert.Len(t, tok, 64)
		assert.True(t, token.Valid(tok))
	})

	t.Run("unique", func(t *testing.T) {
		t.Parallel()
		seen := make(map[string]struct{}, 500)
		for range 500 {
			tok := token.New()
			_, dup := seen[tok]
			require.False(t, dup, "duplicate token %s", tok)
			seen[tok] = struct{}{}
		}
	})
}

func TestValid(t *testing.T) {
	t.Parallel()

	assert.False(t, token.Valid(""))
	assert.False(t, token.Valid("abc"))
	assert.False(t, token.Valid(string(make([]byte, 64))))
}
