// Package wallet implements the private key lifecycle: generation,
// encryption under a pluggable mode, and decryption back to the exact
// original key. The Keystore ties the lifecycle to a wallet store and the
// mode detector, giving callers init/load/unlock/re-encrypt operations over
// a persisted wallet document.
package wallet
