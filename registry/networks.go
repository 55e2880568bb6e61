package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/paperwall/paperwall-agent/interfaces"
)

// Token describes the settlement token on one network.
type Token struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Domain carries the EIP-712 domain name and version the token contract
// verifies signatures under. The verifying contract is always the token
// address.
type Domain struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Network is one registry entry, keyed by its CAIP-2 identifier.
type Network struct {
	CAIP2  string `json:"caip2"`
	Label  string `json:"label"`
	RPCURL string `json:"rpcUrl"`
	Token  Token  `json:"token"`
	Domain Domain `json:"domain"`
}

// PaymentDomain builds the EIP-712 domain for signing payments on this
// network.
func (n Network) PaymentDomain() interfaces.PaymentDomain {
	return interfaces.PaymentDomain{
		Name:              n.Domain.Name,
		Version:           n.Domain.Version,
		VerifyingContract: n.Token.Address,
	}
}

// Registry resolves CAIP-2 identifiers to network parameters. Immutable after
// construction.
type Registry struct {
	networks map[string]Network
}

// defaultNetworks are the networks the agent supports out of the box, settling
// in native USDC.
var defaultNetworks = []Network{
	{
		CAIP2:  "eip155:8453",
		Label:  "base",
		RPCURL: "https://mainnet.base.org",
		Token: Token{
			Address:  "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
			Symbol:   "USDC",
			Decimals: 6,
		},
		Domain: Domain{Name: "USD Coin", Version: "2"},
	},
	{
		CAIP2:  "eip155:84532",
		Label:  "base-sepolia",
		RPCURL: "https://sepolia.base.org",
		Token: Token{
			Address:  "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
			Symbol:   "USDC",
			Decimals: 6,
		},
		Domain: Domain{Name: "USDC", Version: "2"},
	},
}

// Default returns a registry holding only the built-in networks.
func Default() *Registry {
	r := &Registry{networks: make(map[string]Network, len(defaultNetworks))}
	for _, n := range defaultNetworks {
		r.networks[n.CAIP2] = n
	}
	return r
}

// configFile is the on-disk shape of a networks.json override file.
type configFile struct {
	Networks []Network `json:"networks"`
}

// Load returns the built-in registry overlaid with the networks from the JSON
// config at path. File entries replace defaults with the same CAIP-2 id. An
// empty path returns the defaults unchanged.
func Load(path string) (*Registry, error) {
	r := Default()
	if path == "" {
		return r, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read network config: %w", err)
	}

	var cfg configFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse network config %s: %w", path, err)
	}

	for _, n := range cfg.Networks {
		if n.CAIP2 == "" {
			return nil, fmt.Errorf("network config %s: entry %q is missing caip2", path, n.Label)
		}
		if err := interfaces.ValidateAddress(n.Token.Address); err != nil {
			return nil, fmt.Errorf("network config %s: %s: %w", path, n.CAIP2, err)
		}
		r.networks[n.CAIP2] = n
	}
	return r, nil
}

// Lookup resolves a CAIP-2 identifier. Unknown identifiers fail with an error
// naming the id and the known alternatives.
func (r *Registry) Lookup(caip2 string) (Network, error) {
	n, ok := r.networks[caip2]
	if !ok {
		return Network{}, fmt.Errorf("unknown network %q, known networks: %v", caip2, r.IDs())
	}
	return n, nil
}

// LookupLabel resolves a human-friendly network label, e.g. "base-sepolia".
func (r *Registry) LookupLabel(label string) (Network, error) {
	for _, n := range r.networks {
		if n.Label == label {
			return n, nil
		}
	}
	return Network{}, fmt.Errorf("unknown network label %q", label)
}

// IDs returns the known CAIP-2 identifiers, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.networks))
	for id := range r.networks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
