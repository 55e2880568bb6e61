package encmode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paperwall/paperwall-agent/cryptoutils"
	"github.com/paperwall/paperwall-agent/interfaces"
)

func modePtr(m interfaces.ModeName) *interfaces.ModeName { return &m }

func TestDetectModeLegacyWalletResolvesToMachineBound(t *testing.T) {
	d := NewDetector(cryptoutils.NewEngine(cryptoutils.CryptoRand))

	name, err := d.DetectMode(interfaces.WalletMetadata{})
	require.NoError(t, err)
	require.Equal(t, interfaces.ModeMachineBound, name)
}

func TestDetectModeKnownNames(t *testing.T) {
	d := NewDetector(cryptoutils.NewEngine(cryptoutils.CryptoRand))

	for _, mode := range []interfaces.ModeName{
		interfaces.ModeMachineBound,
		interfaces.ModePassword,
		interfaces.ModeEnvInjected,
	} {
		name, err := d.DetectMode(interfaces.WalletMetadata{EncryptionMode: modePtr(mode)})
		require.NoError(t, err)
		require.Equal(t, mode, name)
	}
}

func TestDetectModeUnknownNameNamesTheString(t *testing.T) {
	d := NewDetector(cryptoutils.NewEngine(cryptoutils.CryptoRand))

	_, err := d.DetectMode(interfaces.WalletMetadata{EncryptionMode: modePtr("hardware-hsm")})
	require.Error(t, err)

	var unknownErr *interfaces.UnknownEncryptionModeError
	require.ErrorAs(t, err, &unknownErr)
	require.Equal(t, "hardware-hsm", unknownErr.Name)
	require.Contains(t, err.Error(), `"hardware-hsm"`)
}

func TestResolveModeReturnsFreshInstances(t *testing.T) {
	d := NewDetector(cryptoutils.NewEngine(cryptoutils.CryptoRand))

	m1, err := d.ResolveMode(interfaces.ModePassword)
	require.NoError(t, err)
	m2, err := d.ResolveMode(interfaces.ModePassword)
	require.NoError(t, err)
	require.NotSame(t, m1, m2)
	require.Equal(t, interfaces.ModePassword, m1.Name())

	_, err = d.ResolveMode("tpm")
	var unknownErr *interfaces.UnknownEncryptionModeError
	require.ErrorAs(t, err, &unknownErr)
	require.Equal(t, "tpm", unknownErr.Name)
}

func TestDetectAndResolve(t *testing.T) {
	d := NewDetector(cryptoutils.NewEngine(cryptoutils.CryptoRand))

	mode, err := d.DetectAndResolve(interfaces.WalletMetadata{EncryptionMode: modePtr(interfaces.ModeEnvInjected)})
	require.NoError(t, err)
	require.Equal(t, interfaces.ModeEnvInjected, mode.Name())

	// Legacy wallet metadata never errors.
	mode, err = d.DetectAndResolve(interfaces.WalletMetadata{})
	require.NoError(t, err)
	require.Equal(t, interfaces.ModeMachineBound, mode.Name())
}
