package types

import "github.com/ethereum/go-ethereum/common"

// NodeInfo is this process's own identity, written once at bootstrap.
// DKGKeyPair rotates only on node re-initialization.
type NodeInfo struct {
	IDAddress   common.Address
	RPCEndpoint string
	DKGKeyPair  *DKGKeyPair
}

// DKGKeyPair is the node's share of key material used across DKG rounds.
// The pairing/scalar arithmetic itself is supplied by package bls; this is
// just the serialized envelope the caches persist.
type DKGKeyPair struct {
	PublicKey  []byte
	PrivateKey []byte
}
