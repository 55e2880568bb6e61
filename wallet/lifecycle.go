package wallet

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/paperwall/paperwall-agent/cryptoutils"
	"github.com/paperwall/paperwall-agent/interfaces"
)

// Lifecycle implements the generate/encrypt/decrypt round trip for wallet
// private keys. All salts and private keys are drawn from a single injected
// random source.
type Lifecycle struct {
	rand cryptoutils.RandSource
}

// NewLifecycle creates a lifecycle drawing randomness from src. Pass
// cryptoutils.CryptoRand outside of tests.
func NewLifecycle(src cryptoutils.RandSource) *Lifecycle {
	if src == nil {
		src = cryptoutils.CryptoRand
	}
	return &Lifecycle{rand: src}
}

// GeneratePrivateKey draws 32 random bytes and returns them as 64 lowercase
// hex characters.
func (l *Lifecycle) GeneratePrivateKey() (string, error) {
	raw, err := cryptoutils.RandomBytes(l.rand, 32)
	if err != nil {
		return "", fmt.Errorf("failed to generate private key: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// EncryptKey encrypts the UTF-8 bytes of the hex private key string under a
// fresh 32-byte salt with the given mode. Every call produces a new salt and
// IV; the previous record is meant to be superseded wholesale.
func (l *Lifecycle) EncryptKey(privateKeyHex string, mode interfaces.EncryptionMode, secret string) (interfaces.EncryptedKeyRecord, error) {
	salt, err := cryptoutils.RandomBytes(l.rand, cryptoutils.SaltSize)
	if err != nil {
		return interfaces.EncryptedKeyRecord{}, fmt.Errorf("failed to generate key salt: %w", err)
	}

	key, err := mode.DeriveKey(salt, secret)
	if err != nil {
		return interfaces.EncryptedKeyRecord{}, err
	}
	defer key.Zero()

	enc, err := mode.Encrypt([]byte(privateKeyHex), key)
	if err != nil {
		return interfaces.EncryptedKeyRecord{}, err
	}

	// Flat ciphertext-then-tag layout, kept for compatibility with wallets
	// written before the tag was tracked separately.
	body := make([]byte, 0, len(enc.Ciphertext)+cryptoutils.TagSize)
	body = append(body, enc.Ciphertext...)
	body = append(body, enc.AuthTag[:]...)

	return interfaces.EncryptedKeyRecord{
		EncryptedKey: hex.EncodeToString(body),
		KeySalt:      hex.EncodeToString(salt),
		KeyIV:        hex.EncodeToString(enc.IV[:]),
	}, nil
}

// DecryptKey re-derives the key from the stored salt and supplied secret and
// returns the exact original private key string. Any mismatch in salt,
// identity, password or ciphertext integrity surfaces as a decryption
// failure, never a silent wrong result.
func (l *Lifecycle) DecryptKey(record interfaces.EncryptedKeyRecord, mode interfaces.EncryptionMode, secret string) (string, error) {
	if err := record.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", cryptoutils.ErrDecryption, err)
	}

	salt, _ := hex.DecodeString(record.KeySalt)
	iv, _ := hex.DecodeString(record.KeyIV)
	body, _ := hex.DecodeString(record.EncryptedKey)

	key, err := mode.DeriveKey(salt, secret)
	if err != nil {
		return "", err
	}
	defer key.Zero()

	data := cryptoutils.EncryptedData{Ciphertext: body[:len(body)-cryptoutils.TagSize]}
	copy(data.IV[:], iv)
	copy(data.AuthTag[:], body[len(body)-cryptoutils.TagSize:])

	plaintext, err := mode.Decrypt(data, key)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// DeriveAddress returns the 0x-prefixed checksummed address controlled by
// the given hex private key.
func DeriveAddress(privateKeyHex string) (string, error) {
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	return crypto.PubkeyToAddress(priv.PublicKey).Hex(), nil
}
