package encmode

import (
	"github.com/paperwall/paperwall-agent/cryptoutils"
	"github.com/paperwall/paperwall-agent/interfaces"
)

// Detector resolves which encryption mode a wallet record uses and maps mode
// names onto fresh strategy instances.
type Detector struct {
	engine *cryptoutils.Engine
}

// NewDetector creates a detector whose resolved modes share engine.
func NewDetector(engine *cryptoutils.Engine) *Detector {
	return &Detector{engine: engine}
}

// DetectMode returns the mode recorded in the wallet metadata. Absence of
// the field means a legacy wallet and resolves to machine-bound; an
// unrecognized value returns UnknownEncryptionModeError naming the literal
// string.
func (d *Detector) DetectMode(md interfaces.WalletMetadata) (interfaces.ModeName, error) {
	if md.EncryptionMode == nil {
		return interfaces.ModeMachineBound, nil
	}
	name := *md.EncryptionMode
	if !name.Valid() {
		return "", &interfaces.UnknownEncryptionModeError{Name: string(name)}
	}
	return name, nil
}

// ResolveMode maps a mode name to a fresh strategy instance. The switch is
// exhaustive over the closed set of modes; unknown names fail the same way
// as DetectMode.
func (d *Detector) ResolveMode(name interfaces.ModeName) (interfaces.EncryptionMode, error) {
	switch name {
	case interfaces.ModeMachineBound:
		return NewMachineBindingMode(d.engine), nil
	case interfaces.ModePassword:
		return NewPasswordEncryptionMode(d.engine), nil
	case interfaces.ModeEnvInjected:
		return NewEnvInjectedEncryptionMode(d.engine), nil
	default:
		return nil, &interfaces.UnknownEncryptionModeError{Name: string(name)}
	}
}

// DetectAndResolve composes DetectMode and ResolveMode.
func (d *Detector) DetectAndResolve(md interfaces.WalletMetadata) (interfaces.EncryptionMode, error) {
	name, err := d.DetectMode(md)
	if err != nil {
		return nil, err
	}
	return d.ResolveMode(name)
}
