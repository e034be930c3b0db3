package cryptoutil

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomTokenGenerator_LengthAndAlphabet(t *testing.T) {
	tok, err := RandomTokenGenerator{}.NewToken()
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	require.NoError(t, err)
	assert.Len(t, raw, SessionTokenBytes)
	assert.NotContains(t, tok, "=")
	assert.NotContains(t, tok, "+")
	assert.NotContains(t, tok, "/")
}

func TestRandomTokenGenerator_Unique(t *testing.T) {
	var g TokenGenerator = RandomTokenGenerator{}
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		tok, err := g.NewToken()
		require.NoError(t, err)
		_, dup := seen[tok]
		require.False(t, dup, "duplicate token generated")
		seen[tok] = struct{}{}
	}
}

func TestRandomTokenGenerator_DeterministicReader(t *testing.T) {
	src := bytes.Repeat([]byte{0xAB}, 64)
	g := RandomTokenGenerator{Size: 16, Reader: bytes.NewReader(src)}

	tok, err := g.NewToken()
	require.NoError(t, err)
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(src[:16]), tok)
}

func TestRandomTokenGenerator_Errors(t *testing.T) {
	_, err := RandomTokenGenerator{Size: 8}.NewToken()
	require.Error(t, err)

	_, err = RandomTokenGenerator{Reader: bytes.NewReader([]byte{1, 2, 3})}.NewToken()
	require.Error(t, err)
}
