// Package cryptoutils implements the key derivation and authenticated
// encryption engine protecting wallet private keys at rest.
//
// The engine stretches a mode-specific derivation input into an AES-256 key
// with PBKDF2-HMAC-SHA256 at a fixed iteration count, and encrypts with
// AES-256-GCM using a fresh random 12-byte IV per call. The iteration count
// and hash are constants so that every wallet written by one build remains
// readable by every other.
//
// EncryptionKey is deliberately opaque: only Engine.DeriveKey can produce a
// usable key, which prevents raw byte buffers from being passed to the
// encrypt and decrypt operations by accident.
//
// All randomness consumed by the engine (IVs here, salts and nonces in the
// packages built on top) flows through a single RandSource so tests can
// substitute a deterministic source.
package cryptoutils
