package cryptoutil

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// SessionTokenBytes is the entropy of a session identifier (256 bits).
const SessionTokenBytes = 32

// TokenGenerator produces opaque, unguessable identifiers.
type TokenGenerator interface {
	NewToken() (string, error)
}

// RandomTokenGenerator draws tokens from a cryptographically secure source and
// encodes them as unpadded base64url, which is safe in cookies and Redis keys.
type RandomTokenGenerator struct {
	// Size is the number of random bytes per token. Zero means SessionTokenBytes.
	Size int
	// Reader overrides the entropy source; nil means crypto/rand.Reader.
	Reader io.Reader
}

// NewToken returns a fresh random token.
func (g RandomTokenGenerator) NewToken() (string, error) {
	size := g.Size
	if size <= 0 {
		size = SessionTokenBytes
	}
	if size < 16 {
		return "", fmt.Errorf("token size must be at least 16 bytes, got %d", size)
	}
	src := g.Reader
	if src == nil {
		src = rand.Reader
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(src, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
