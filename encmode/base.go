package encmode

import (
	"github.com/paperwall/paperwall-agent/cryptoutils"
)

// baseMode supplies the encrypt/decrypt half of the EncryptionMode contract,
// identical across all modes.
type baseMode struct {
	engine *cryptoutils.Engine
}

func (b baseMode) Encrypt(plaintext []byte, key cryptoutils.EncryptionKey) (cryptoutils.EncryptedData, error) {
	return b.engine.Encrypt(plaintext, key)
}

func (b baseMode) Decrypt(data cryptoutils.EncryptedData, key cryptoutils.EncryptionKey) ([]byte, error) {
	return b.engine.Decrypt(data, key)
}
