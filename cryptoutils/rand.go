package cryptoutils

import (
	"crypto/rand"
	"fmt"
	"io"
)

// RandSource yields cryptographically secure random bytes. Production code
// uses CryptoRand; tests may inject a deterministic reader.
type RandSource io.Reader

// CryptoRand is the default production random source.
var CryptoRand RandSource = rand.Reader

// RandomBytes reads exactly n bytes from the given source.
func RandomBytes(src RandSource, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(src, buf); err != nil {
		return nil, fmt.Errorf("failed to read %d random bytes: %w", n, err)
	}
	return buf, nil
}
