// Package payment builds, signs and submits x402 payment authorizations.
//
// The signer produces an EIP-3009 TransferWithAuthorization payload signed
// as EIP-712 typed data with the wallet's secp256k1 key. Each call draws a
// fresh 32-byte nonce, so identical terms never produce identical
// signatures and a captured authorization cannot be replayed as a second
// payment.
//
// The submission client posts a signed payment to a publisher endpoint,
// guarded by a URL allow-list so a signed authorization is never sent to an
// attacker-controlled address, and classifies the outcome into an AP2
// receipt: intent until a terminal response arrives, then settled or
// declined exactly once. Retry policy belongs to the caller.
package payment
