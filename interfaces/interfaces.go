package interfaces

import (
	"context"

	"github.com/paperwall/paperwall-agent/cryptoutils"
)

// EncryptionMode is one of the three strategies for protecting the wallet
// private key. Encrypt and Decrypt behave identically across modes, both
// delegate to the derivation engine; only the derivation input differs. The
// secret argument of DeriveKey is the password for the password mode and is
// ignored by the machine-bound and env-injected modes.
//
// The set of implementations is closed: machine-bound, password and
// env-injected. Resolution dispatches over ModeName with an exhaustive
// switch so a fourth mode is a compile-time-visible change.
type EncryptionMode interface {
	// Name returns the mode's persisted identifier.
	Name() ModeName

	// DeriveKey stretches the mode's derivation input with the given salt
	// into an engine-branded encryption key.
	DeriveKey(salt []byte, secret string) (cryptoutils.EncryptionKey, error)

	// Encrypt seals plaintext under key with a fresh IV.
	Encrypt(plaintext []byte, key cryptoutils.EncryptionKey) (cryptoutils.EncryptedData, error)

	// Decrypt opens data under key, failing with an authentication error on
	// any tag mismatch.
	Decrypt(data cryptoutils.EncryptedData, key cryptoutils.EncryptionKey) ([]byte, error)
}

// WalletStore persists the wallet document. Implementations exist for local
// files, S3-compatible object storage and HashiCorp Vault; the document
// contract is identical across backends.
type WalletStore interface {
	// Load reads the wallet document, returning ErrWalletNotFound when no
	// wallet has been initialized at this location.
	Load(ctx context.Context) (*WalletDocument, error)

	// Save writes the wallet document wholesale, replacing any previous one.
	Save(ctx context.Context, doc *WalletDocument) error

	// Available reports whether the backing store is reachable.
	Available(ctx context.Context) bool

	// LocationURI identifies this store for logs and diagnostics.
	LocationURI() string
}
