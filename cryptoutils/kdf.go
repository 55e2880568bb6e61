package cryptoutils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// PBKDF2Iterations is fixed so that all wallets remain interoperable.
	// Never make this caller-configurable.
	PBKDF2Iterations = 600_000

	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	// SaltSize is the PBKDF2 salt length in bytes.
	SaltSize = 32

	// IVSize is the AES-GCM nonce length in bytes.
	IVSize = 12

	// TagSize is the AES-GCM authentication tag length in bytes.
	TagSize = 16
)

// EncryptionKey is an opaque symmetric key usable only with Engine.Encrypt
// and Engine.Decrypt. It can only be produced by Engine.DeriveKey; the zero
// value is rejected by both operations. It is never serialized and exists
// only in memory for the duration of one operation.
type EncryptionKey struct {
	key     [KeySize]byte
	derived bool
}

// Zero overwrites the key material. The key is unusable afterwards.
func (k *EncryptionKey) Zero() {
	for i := range k.key {
		k.key[i] = 0
	}
	k.derived = false
}

// EncryptedData is the output of a single Encrypt call. The IV and tag are
// never reused across calls with the same key.
type EncryptedData struct {
	Ciphertext []byte
	IV         [IVSize]byte
	AuthTag    [TagSize]byte
}

// Engine is the key derivation and AES-256-GCM primitive shared by all
// encryption modes.
type Engine struct {
	rand RandSource
}

// NewEngine creates an engine drawing randomness from src. Pass CryptoRand
// outside of tests.
func NewEngine(src RandSource) *Engine {
	if src == nil {
		src = CryptoRand
	}
	return &Engine{rand: src}
}

// DeriveKey stretches input with PBKDF2-HMAC-SHA256 into an AES-256 key.
// The salt must be exactly SaltSize bytes.
func (e *Engine) DeriveKey(salt []byte, input []byte) (EncryptionKey, error) {
	if len(salt) != SaltSize {
		return EncryptionKey{}, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrDeriveKey, SaltSize, len(salt))
	}
	if len(input) == 0 {
		return EncryptionKey{}, fmt.Errorf("%w: derivation input is empty", ErrDeriveKey)
	}

	derived := pbkdf2.Key(input, salt, PBKDF2Iterations, KeySize, sha256.New)

	var key EncryptionKey
	copy(key.key[:], derived)
	key.derived = true
	for i := range derived {
		derived[i] = 0
	}
	return key, nil
}

// Encrypt seals plaintext under key with a fresh random IV. The returned
// ciphertext excludes the tag, which is carried separately in AuthTag.
func (e *Engine) Encrypt(plaintext []byte, key EncryptionKey) (EncryptedData, error) {
	if !key.derived {
		return EncryptedData{}, fmt.Errorf("%w: key was not produced by the derivation engine", ErrEncryption)
	}

	block, err := aes.NewCipher(key.key[:])
	if err != nil {
		return EncryptedData{}, fmt.Errorf("%w: %v", ErrEncryption, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return EncryptedData{}, fmt.Errorf("%w: %v", ErrEncryption, err)
	}

	iv, err := RandomBytes(e.rand, IVSize)
	if err != nil {
		return EncryptedData{}, fmt.Errorf("%w: %v", ErrEncryption, err)
	}

	sealed := gcm.Seal(nil, iv, plaintext, nil)

	var out EncryptedData
	copy(out.IV[:], iv)
	out.Ciphertext = sealed[:len(sealed)-TagSize]
	copy(out.AuthTag[:], sealed[len(sealed)-TagSize:])
	return out, nil
}

// Decrypt opens data with key. A tag mismatch returns ErrAuthentication,
// which is the sole mechanism detecting tampering or a wrong key, salt or
// identity.
func (e *Engine) Decrypt(data EncryptedData, key EncryptionKey) ([]byte, error) {
	if !key.derived {
		return nil, fmt.Errorf("%w: key was not produced by the derivation engine", ErrDecryption)
	}

	block, err := aes.NewCipher(key.key[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	sealed := make([]byte, 0, len(data.Ciphertext)+TagSize)
	sealed = append(sealed, data.Ciphertext...)
	sealed = append(sealed, data.AuthTag[:]...)

	plaintext, err := gcm.Open(nil, data.IV[:], sealed, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}
