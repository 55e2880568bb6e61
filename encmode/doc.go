// Package encmode implements the three wallet encryption modes and the
// detector that resolves which mode a given wallet record uses.
//
// Machine-bound mode binds the wallet to the host machine and user with no
// stored secret; losing access when the machine identity changes is the
// accepted tradeoff of that mode, not a bug. Password mode stretches a
// user-supplied password. Env-injected mode reads raw key bytes from
// PAPERWALL_WALLET_KEY for headless deployments where no prompt is possible.
//
// Wallets written before mode metadata existed carry no encryptionMode
// field; the detector resolves those to machine-bound.
package encmode
