// Package walletstore persists the wallet document behind a small Store
// interface with backends selected by location URI:
//
//   - file:///path/to/wallet.json - local filesystem, owner-read-write only
//   - s3://bucket/prefix?region=... - S3-compatible object storage
//   - vault://host:port/mount/path - HashiCorp Vault KV v2
//
// Remote backends exist for headless agents whose hosts are disposable; the
// document contract is byte-identical across backends. The store only moves
// ciphertext: key protection is the encryption mode's job, and storage
// permissions are the operator's.
package walletstore
