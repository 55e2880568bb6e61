package cryptoutils

import (
	"errors"
	"fmt"
)

// Error taxonomy for the wallet crypto core. Callers discriminate with
// errors.Is; ErrAuthentication wraps ErrDecryption so a tag failure matches
// both.
var (
	// ErrDeriveKey reports invalid or missing key-derivation input, such as
	// a malformed environment variable or a salt of the wrong length. These
	// are operator-facing failures and carry actionable messages.
	ErrDeriveKey = errors.New("invalid key derivation input")

	// ErrEncryption reports a failure of the encryption primitive itself.
	// Unexpected in practice and treated as fatal by callers.
	ErrEncryption = errors.New("encryption failed")

	// ErrDecryption is the generic decryption failure.
	ErrDecryption = errors.New("decryption failed")

	// ErrAuthentication means the GCM tag did not verify: wrong password,
	// wrong machine identity, mismatched salt, or tampered ciphertext. It is
	// the expected signal for "wrong password" and must stay distinguishable
	// from every other failure so callers can re-prompt instead of aborting.
	ErrAuthentication = fmt.Errorf("%w: message authentication failed (wrong key or tampered data)", ErrDecryption)
)
