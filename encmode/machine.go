package encmode

import (
	"fmt"
	"os"

	"github.com/paperwall/paperwall-agent/cryptoutils"
	"github.com/paperwall/paperwall-agent/interfaces"
)

// machineBindingContext versions the machine-bound derivation input. Bumping
// it invalidates every machine-bound wallet, so it never changes within a
// major release.
const machineBindingContext = "paperwall-agent-machine-bound-v1"

// MachineBindingMode derives the wallet key from host identity
// (hostname and uid) instead of a user secret.
type MachineBindingMode struct {
	baseMode

	// hostnameFn and uidFn are overridable for tests only.
	hostnameFn func() (string, error)
	uidFn      func() int
}

// NewMachineBindingMode creates a machine-bound mode backed by engine.
func NewMachineBindingMode(engine *cryptoutils.Engine) *MachineBindingMode {
	return &MachineBindingMode{
		baseMode:   baseMode{engine: engine},
		hostnameFn: os.Hostname,
		uidFn:      os.Getuid,
	}
}

// Name implements interfaces.EncryptionMode.
func (m *MachineBindingMode) Name() interfaces.ModeName {
	return interfaces.ModeMachineBound
}

// DeriveKey stretches the host identity string with salt. The secret
// argument is ignored.
func (m *MachineBindingMode) DeriveKey(salt []byte, _ string) (cryptoutils.EncryptionKey, error) {
	input, err := m.machineIdentity()
	if err != nil {
		return cryptoutils.EncryptionKey{}, err
	}
	return m.engine.DeriveKey(salt, input)
}

func (m *MachineBindingMode) machineIdentity() ([]byte, error) {
	hostname, err := m.hostnameFn()
	if err != nil {
		return nil, fmt.Errorf("%w: could not determine hostname for machine binding: %v", cryptoutils.ErrDeriveKey, err)
	}
	return []byte(fmt.Sprintf("%s:%d:%s", hostname, m.uidFn(), machineBindingContext)), nil
}
