// Package interfaces defines the core types and contracts shared between the
// wallet, encryption-mode and payment components. It carries the data shapes
// of the wallet document and of the x402 payment wire contract without
// implementation details.
package interfaces
