package interfaces

import (
	"errors"
	"fmt"
)

// ErrWalletNotFound is returned by wallet stores when no wallet document
// exists at the configured location.
var ErrWalletNotFound = errors.New("wallet not found")

// ErrWalletExists is returned when initialization would overwrite an
// existing wallet document.
var ErrWalletExists = errors.New("wallet already exists")

// UnknownEncryptionModeError reports an unrecognized encryption mode name in
// wallet metadata or an explicit selection. It always names the literal
// offending string and is never recovered locally.
type UnknownEncryptionModeError struct {
	Name string
}

func (e *UnknownEncryptionModeError) Error() string {
	return fmt.Sprintf("unknown encryption mode %q: valid modes are %q, %q and %q",
		e.Name, ModeMachineBound, ModePassword, ModeEnvInjected)
}
