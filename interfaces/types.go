package interfaces

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/paperwall/paperwall-agent/cryptoutils"
)

// ModeName identifies one of the wallet encryption modes.
type ModeName string

const (
	// ModeMachineBound derives the wallet key from host identity. No secret
	// is stored or prompted; the wallet is unreadable on any other machine.
	ModeMachineBound ModeName = "machine-bound"

	// ModePassword derives the wallet key from a user-supplied password.
	ModePassword ModeName = "password"

	// ModeEnvInjected derives the wallet key from raw key bytes in the
	// PAPERWALL_WALLET_KEY environment variable, for headless deployments.
	ModeEnvInjected ModeName = "env-injected"
)

// Valid reports whether the mode name is one of the three known modes.
func (m ModeName) Valid() bool {
	switch m {
	case ModeMachineBound, ModePassword, ModeEnvInjected:
		return true
	}
	return false
}

// EncryptedKeyRecord is the persisted form of an encrypted private key.
// EncryptedKey is ciphertext with the GCM tag appended, hex-encoded; the flat
// format is kept for backward compatibility with existing wallet files. A
// record is immutable once written and superseded wholesale on re-encryption.
type EncryptedKeyRecord struct {
	EncryptedKey string `json:"encryptedKey"`
	KeySalt      string `json:"keySalt"`
	KeyIV        string `json:"keyIv"`
}

// Validate checks the field lengths and hex encoding of the record.
func (r EncryptedKeyRecord) Validate() error {
	salt, err := hex.DecodeString(r.KeySalt)
	if err != nil || len(salt) != cryptoutils.SaltSize {
		return fmt.Errorf("invalid keySalt: want %d hex-encoded bytes", cryptoutils.SaltSize)
	}
	iv, err := hex.DecodeString(r.KeyIV)
	if err != nil || len(iv) != cryptoutils.IVSize {
		return fmt.Errorf("invalid keyIv: want %d hex-encoded bytes", cryptoutils.IVSize)
	}
	body, err := hex.DecodeString(r.EncryptedKey)
	if err != nil || len(body) < cryptoutils.TagSize {
		return errors.New("invalid encryptedKey: want hex-encoded ciphertext and auth tag")
	}
	return nil
}

// WalletMetadata carries the wallet's declared encryption mode. A nil
// EncryptionMode is a first-class value meaning "legacy wallet" and must
// resolve to machine-bound, never to an error.
type WalletMetadata struct {
	EncryptionMode *ModeName `json:"encryptionMode,omitempty"`
}

// WalletDocument is the full wallet file contract: the encrypted key record
// plus address and metadata. Stored as a single JSON document, superseded
// wholesale on every re-encryption.
type WalletDocument struct {
	Address string `json:"address"`
	EncryptedKeyRecord
	EncryptionMode *ModeName `json:"encryptionMode,omitempty"`
}

// Metadata extracts the wallet's encryption-mode metadata.
func (d *WalletDocument) Metadata() WalletMetadata {
	return WalletMetadata{EncryptionMode: d.EncryptionMode}
}

var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidateAddress checks that s is a 0x-prefixed 20-byte hex address.
func ValidateAddress(s string) error {
	if !addressRe.MatchString(s) {
		return fmt.Errorf("invalid address %q: want 0x-prefixed 40 hex chars", s)
	}
	return nil
}

// PaymentTerms are the caller-supplied parameters of a payment: the CAIP-2
// network identifier, the amount as a decimal string of smallest-unit value,
// and the recipient address.
type PaymentTerms struct {
	Network string `json:"network"`
	Amount  string `json:"amount"`
	PayTo   string `json:"payTo"`
}

// Validate checks the terms for obvious caller mistakes before signing.
func (t PaymentTerms) Validate() error {
	if !strings.HasPrefix(t.Network, "eip155:") {
		return fmt.Errorf("invalid network %q: want CAIP-2 eip155:<chain-id>", t.Network)
	}
	if t.Amount == "" {
		return errors.New("amount is required")
	}
	for _, c := range t.Amount {
		if c < '0' || c > '9' {
			return fmt.Errorf("invalid amount %q: want decimal smallest-unit value", t.Amount)
		}
	}
	return ValidateAddress(t.PayTo)
}

// PaymentDomain is the EIP-712 domain under which authorizations are signed,
// sourced from the network registry per CAIP-2 chain id. The chain id itself
// is parsed from PaymentTerms.Network.
type PaymentDomain struct {
	Name              string `json:"name"`
	Version           string `json:"version"`
	VerifyingContract string `json:"verifyingContract"`
}

// PaymentAuthorization is the typed-data payload of a transfer authorization.
// From is derived from the signing key; Nonce is fresh random per call so
// repeated payments with identical terms never collide.
type PaymentAuthorization struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	ValidAfter  string `json:"validAfter"`
	ValidBefore string `json:"validBefore"`
	Nonce       string `json:"nonce"`
}

// SignedPayment couples an authorization with its 65-byte recoverable
// secp256k1 signature, hex-encoded with a 0x prefix.
type SignedPayment struct {
	Signature     string               `json:"signature"`
	Authorization PaymentAuthorization `json:"authorization"`
}
