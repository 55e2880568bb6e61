package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultNetworks(t *testing.T) {
	r := Default()

	base, err := r.Lookup("eip155:8453")
	require.NoError(t, err)
	require.Equal(t, "base", base.Label)
	require.Equal(t, "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", base.Token.Address)
	require.Equal(t, 6, base.Token.Decimals)

	sepolia, err := r.Lookup("eip155:84532")
	require.NoError(t, err)
	require.Equal(t, "USDC", sepolia.Token.Symbol)

	domain := sepolia.PaymentDomain()
	require.Equal(t, "USDC", domain.Name)
	require.Equal(t, "2", domain.Version)
	require.Equal(t, sepolia.Token.Address, domain.VerifyingContract)
}

func TestLookupUnknownNetwork(t *testing.T) {
	_, err := Default().Lookup("eip155:1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "eip155:1")
	require.Contains(t, err.Error(), "eip155:8453")
}

func TestLookupLabel(t *testing.T) {
	n, err := Default().LookupLabel("base-sepolia")
	require.NoError(t, err)
	require.Equal(t, "eip155:84532", n.CAIP2)

	_, err = Default().LookupLabel("mainnet")
	require.Error(t, err)
}

func TestLoadOverlaysConfigOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.json")
	cfg := `{
	  "networks": [
	    {
	      "caip2": "eip155:84532",
	      "label": "base-sepolia",
	      "rpcUrl": "http://localhost:8545",
	      "token": {"address": "0x036CbD53842c5426634e7929541eC2318f3dCF7e", "symbol": "USDC", "decimals": 6},
	      "domain": {"name": "USDC", "version": "2"}
	    },
	    {
	      "caip2": "eip155:31337",
	      "label": "anvil",
	      "rpcUrl": "http://localhost:8545",
	      "token": {"address": "0x5FbDB2315678afecb367f032d93F642f64180aa3", "symbol": "TUSD", "decimals": 6},
	      "domain": {"name": "TestUSD", "version": "1"}
	    }
	  ]
	}`
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))

	r, err := Load(path)
	require.NoError(t, err)

	// Overridden default.
	sepolia, err := r.Lookup("eip155:84532")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8545", sepolia.RPCURL)

	// Added network.
	anvil, err := r.Lookup("eip155:31337")
	require.NoError(t, err)
	require.Equal(t, "TestUSD", anvil.Domain.Name)

	// Untouched default survives the overlay.
	_, err = r.Lookup("eip155:8453")
	require.NoError(t, err)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	r, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default().IDs(), r.IDs())
}

func TestLoadRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "nope.json")
	_, err := Load(missing)
	require.Error(t, err)

	badJSON := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badJSON, []byte("{"), 0644))
	_, err = Load(badJSON)
	require.Error(t, err)

	noID := filepath.Join(dir, "noid.json")
	require.NoError(t, os.WriteFile(noID, []byte(`{"networks":[{"label":"x","token":{"address":"0x036CbD53842c5426634e7929541eC2318f3dCF7e"}}]}`), 0644))
	_, err = Load(noID)
	require.Error(t, err)

	badAddr := filepath.Join(dir, "badaddr.json")
	require.NoError(t, os.WriteFile(badAddr, []byte(`{"networks":[{"caip2":"eip155:1","token":{"address":"nope"}}]}`), 0644))
	_, err = Load(badAddr)
	require.Error(t, err)
}
