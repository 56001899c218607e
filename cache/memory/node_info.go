// Package memory provides process-local, read/write-lock-guarded
// implementations of the cache contracts, used by `demo` mode and as the
// working set behind the bbolt-backed cache in package boltcache.
package memory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/randcast-network/randcast-node/types"
)

// NodeInfoCache is the in-memory NodeInfoHandler.
type NodeInfoCache struct {
	mu   sync.RWMutex
	info types.NodeInfo
}

// NewNodeInfoCache returns an empty node identity cache.
func NewNodeInfoCache() *NodeInfoCache {
	return &NodeInfoCache{}
}

func (c *NodeInfoCache) GetIDAddress(context.Context) (common.Address, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.info.IDAddress, nil
}

func (c *NodeInfoCache) GetRPCEndpoint(context.Context) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.info.RPCEndpoint, nil
}

func (c *NodeInfoCache) GetDKGPrivateKey(context.Context) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.info.DKGKeyPair == nil {
		return nil, nil
	}
	return c.info.DKGKeyPair.PrivateKey, nil
}

func (c *NodeInfoCache) GetDKGPublicKey(context.Context) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.info.DKGKeyPair == nil {
		return nil, nil
	}
	return c.info.DKGKeyPair.PublicKey, nil
}

func (c *NodeInfoCache) SetIDAddress(_ context.Context, addr common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info.IDAddress = addr
	return nil
}

func (c *NodeInfoCache) SetRPCEndpoint(_ context.Context, endpoint string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info.RPCEndpoint = endpoint
	return nil
}

func (c *NodeInfoCache) SetDKGKeyPair(_ context.Context, kp *types.DKGKeyPair) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info.DKGKeyPair = kp
	return nil
}

// Snapshot returns a copy of the held NodeInfo, for a durable cache to
// persist after every mutation.
func (c *NodeInfoCache) Snapshot() types.NodeInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.info
}

// Restore replaces the held NodeInfo wholesale, for a durable cache to
// rehydrate from disk on open.
func (c *NodeInfoCache) Restore(info types.NodeInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.info = info
}
