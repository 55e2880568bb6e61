package payment

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseEVMChainID extracts the numeric chain id from a CAIP-2 network
// identifier in the eip155 namespace, e.g. "eip155:8453" -> 8453.
func ParseEVMChainID(network string) (uint64, error) {
	namespace, reference, ok := strings.Cut(network, ":")
	if !ok || namespace != "eip155" {
		return 0, fmt.Errorf("unsupported network %q: want CAIP-2 eip155:<chain-id>", network)
	}
	chainID, err := strconv.ParseUint(reference, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chain id in network %q: %w", network, err)
	}
	return chainID, nil
}
