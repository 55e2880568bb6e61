package encmode

import (
	"fmt"
	"unicode"

	"github.com/paperwall/paperwall-agent/cryptoutils"
	"github.com/paperwall/paperwall-agent/interfaces"
)

// MinPasswordLength is the strength floor enforced on key generation.
const MinPasswordLength = 8

// PasswordEncryptionMode derives the wallet key from a caller-supplied
// password. Strength is checked before key generation only; decryption
// accepts any password and simply fails authentication when it is wrong.
type PasswordEncryptionMode struct {
	baseMode
}

// NewPasswordEncryptionMode creates a password mode backed by engine.
func NewPasswordEncryptionMode(engine *cryptoutils.Engine) *PasswordEncryptionMode {
	return &PasswordEncryptionMode{baseMode: baseMode{engine: engine}}
}

// Name implements interfaces.EncryptionMode.
func (m *PasswordEncryptionMode) Name() interfaces.ModeName {
	return interfaces.ModePassword
}

// DeriveKey stretches the password with salt.
func (m *PasswordEncryptionMode) DeriveKey(salt []byte, password string) (cryptoutils.EncryptionKey, error) {
	if password == "" {
		return cryptoutils.EncryptionKey{}, fmt.Errorf("%w: password is empty", cryptoutils.ErrDeriveKey)
	}
	return m.engine.DeriveKey(salt, []byte(password))
}

// ValidatePasswordStrength rejects passwords below the strength bar: at
// least MinPasswordLength characters and at least three of the four classes
// lower/upper/digit/symbol. Called on key-generation flows, never on
// decryption.
func ValidatePasswordStrength(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", cryptoutils.ErrDeriveKey, MinPasswordLength)
	}

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}

	classes := 0
	for _, ok := range []bool{lower, upper, digit, symbol} {
		if ok {
			classes++
		}
	}
	if classes < 3 {
		return fmt.Errorf("%w: password must mix at least three of: lowercase, uppercase, digits, symbols", cryptoutils.ErrDeriveKey)
	}
	return nil
}
