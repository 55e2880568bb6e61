package encmode

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/paperwall/paperwall-agent/cryptoutils"
	"github.com/paperwall/paperwall-agent/interfaces"
)

// WalletKeyEnvVar names the environment variable holding the base64-encoded
// 32-byte wallet key for env-injected mode.
const WalletKeyEnvVar = "PAPERWALL_WALLET_KEY"

// EnvInjectedEncryptionMode derives the wallet key from raw key bytes read
// from WalletKeyEnvVar. Designed for headless deployment where no
// interactive prompt is possible; every validation failure carries an
// actionable message for the operator.
type EnvInjectedEncryptionMode struct {
	baseMode

	// lookupEnv is overridable for tests only.
	lookupEnv func(string) (string, bool)
}

// NewEnvInjectedEncryptionMode creates an env-injected mode backed by engine.
func NewEnvInjectedEncryptionMode(engine *cryptoutils.Engine) *EnvInjectedEncryptionMode {
	return &EnvInjectedEncryptionMode{
		baseMode:  baseMode{engine: engine},
		lookupEnv: os.LookupEnv,
	}
}

// Name implements interfaces.EncryptionMode.
func (m *EnvInjectedEncryptionMode) Name() interfaces.ModeName {
	return interfaces.ModeEnvInjected
}

// DeriveKey stretches the injected key bytes with salt. The secret argument
// is ignored.
func (m *EnvInjectedEncryptionMode) DeriveKey(salt []byte, _ string) (cryptoutils.EncryptionKey, error) {
	input, err := m.injectedKey()
	if err != nil {
		return cryptoutils.EncryptionKey{}, err
	}
	return m.engine.DeriveKey(salt, input)
}

// injectedKey reads and strictly validates the environment variable. Each
// failure mode has a distinct message: these are operational failures seen
// by whoever deploys the agent, not internal bugs.
func (m *EnvInjectedEncryptionMode) injectedKey() ([]byte, error) {
	value, ok := m.lookupEnv(WalletKeyEnvVar)
	if !ok || value == "" {
		return nil, fmt.Errorf("%w: %s is not set or empty; export a base64-encoded 32-byte key",
			cryptoutils.ErrDeriveKey, WalletKeyEnvVar)
	}
	if strings.IndexFunc(value, unicode.IsSpace) >= 0 {
		return nil, fmt.Errorf("%w: %s contains whitespace; re-export the value without quotes or trailing newlines",
			cryptoutils.ErrDeriveKey, WalletKeyEnvVar)
	}

	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not valid base64: %v",
			cryptoutils.ErrDeriveKey, WalletKeyEnvVar, err)
	}
	if len(decoded) != cryptoutils.KeySize {
		return nil, fmt.Errorf("%w: %s decodes to %d bytes, want exactly %d; generate one with 'openssl rand -base64 32'",
			cryptoutils.ErrDeriveKey, WalletKeyEnvVar, len(decoded), cryptoutils.KeySize)
	}
	return decoded, nil
}
