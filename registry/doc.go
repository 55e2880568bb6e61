// Package registry maps CAIP-2 network identifiers to the chain parameters a
// payment needs: the settlement token, its EIP-712 signing domain and an RPC
// endpoint. Built-in defaults cover the supported networks; a JSON config file
// can override or extend them.
package registry
