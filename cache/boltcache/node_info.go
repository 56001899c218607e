package boltcache

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	bolt "go.etcd.io/bbolt"

	"github.com/randcast-network/randcast-node/cache/memory"
	"github.com/randcast-network/randcast-node/types"
)

// selfKey is the lone record in nodeBucket: this node carries exactly one
// identity, never keyed by request id.
var selfKey = []byte("self")

// NodeInfoCache is a bbolt-durable NodeInfoHandler.
type NodeInfoCache struct {
	store *Store
	mem   *memory.NodeInfoCache
}

// OpenNodeInfoCache rehydrates node identity from the store, if present.
func OpenNodeInfoCache(store *Store) (*NodeInfoCache, error) {
	c := &NodeInfoCache{store: store, mem: memory.NewNodeInfoCache()}
	err := store.db.View(func(tx *bolt.Tx) error {
		var info types.NodeInfo
		ok, err := getJSON(tx, nodeBucket, selfKey, &info)
		if err != nil || !ok {
			return err
		}
		c.mem.Restore(info)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *NodeInfoCache) persist() error {
	snap := c.mem.Snapshot()
	return c.store.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx, nodeBucket, selfKey, snap)
	})
}

func (c *NodeInfoCache) GetIDAddress(ctx context.Context) (common.Address, error) {
	return c.mem.GetIDAddress(ctx)
}

func (c *NodeInfoCache) GetRPCEndpoint(ctx context.Context) (string, error) {
	return c.mem.GetRPCEndpoint(ctx)
}

func (c *NodeInfoCache) GetDKGPrivateKey(ctx context.Context) ([]byte, error) {
	return c.mem.GetDKGPrivateKey(ctx)
}

func (c *NodeInfoCache) GetDKGPublicKey(ctx context.Context) ([]byte, error) {
	return c.mem.GetDKGPublicKey(ctx)
}

func (c *NodeInfoCache) SetIDAddress(ctx context.Context, addr common.Address) error {
	if err := c.mem.SetIDAddress(ctx, addr); err != nil {
		return err
	}
	return c.persist()
}

func (c *NodeInfoCache) SetRPCEndpoint(ctx context.Context, endpoint string) error {
	if err := c.mem.SetRPCEndpoint(ctx, endpoint); err != nil {
		return err
	}
	return c.persist()
}

func (c *NodeInfoCache) SetDKGKeyPair(ctx context.Context, kp *types.DKGKeyPair) error {
	if err := c.mem.SetDKGKeyPair(ctx, kp); err != nil {
		return err
	}
	return c.persist()
}
