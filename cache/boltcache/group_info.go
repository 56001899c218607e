package boltcache

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	bolt "go.etcd.io/bbolt"

	"github.com/randcast-network/randcast-node/cache"
	"github.com/randcast-network/randcast-node/cache/memory"
	"github.com/randcast-network/randcast-node/types"
)

var groupKey = []byte("group")

// GroupInfoCache is a bbolt-durable GroupInfoHandler: every mutation
// write-throughs the whole group snapshot under one record, the way
// drand's boltdb store rewrites the full chain tip on each new beacon.
type GroupInfoCache struct {
	store *Store
	mem   *memory.GroupInfoCache
}

// OpenGroupInfoCache rehydrates group state from the store, if present.
// selfAddr seeds a fresh cache when no prior state exists.
func OpenGroupInfoCache(store *Store, selfAddr common.Address) (*GroupInfoCache, error) {
	c := &GroupInfoCache{store: store, mem: memory.NewGroupInfoCache(selfAddr)}
	err := store.db.View(func(tx *bolt.Tx) error {
		var snap memory.GroupInfoSnapshot
		ok, err := getJSON(tx, groupBucket, groupKey, &snap)
		if err != nil || !ok {
			return err
		}
		c.mem.Restore(snap)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *GroupInfoCache) persist() error {
	snap := c.mem.Snapshot()
	return c.store.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx, groupBucket, groupKey, snap)
	})
}

func (c *GroupInfoCache) GetGroup(ctx context.Context) (*types.Group, error) { return c.mem.GetGroup(ctx) }
func (c *GroupInfoCache) GetIndex(ctx context.Context) (uint32, error)       { return c.mem.GetIndex(ctx) }
func (c *GroupInfoCache) GetEpoch(ctx context.Context) (uint32, error)       { return c.mem.GetEpoch(ctx) }
func (c *GroupInfoCache) GetSize(ctx context.Context) (uint32, error)        { return c.mem.GetSize(ctx) }
func (c *GroupInfoCache) GetThreshold(ctx context.Context) (uint32, error) {
	return c.mem.GetThreshold(ctx)
}
func (c *GroupInfoCache) GetState(ctx context.Context) (types.GroupState, error) {
	return c.mem.GetState(ctx)
}
func (c *GroupInfoCache) GetSelfIndex(ctx context.Context) (uint32, error) {
	return c.mem.GetSelfIndex(ctx)
}
func (c *GroupInfoCache) GetPublicKey(ctx context.Context) ([]byte, error) {
	return c.mem.GetPublicKey(ctx)
}
func (c *GroupInfoCache) GetSecretShare(ctx context.Context) ([]byte, error) {
	return c.mem.GetSecretShare(ctx)
}
func (c *GroupInfoCache) GetMembers(ctx context.Context) ([]*types.Member, error) {
	return c.mem.GetMembers(ctx)
}
func (c *GroupInfoCache) GetMember(ctx context.Context, addr common.Address) (*types.Member, error) {
	return c.mem.GetMember(ctx, addr)
}
func (c *GroupInfoCache) GetCommitters(ctx context.Context) ([]common.Address, error) {
	return c.mem.GetCommitters(ctx)
}
func (c *GroupInfoCache) GetDKGStatus(ctx context.Context) (int, error) { return c.mem.GetDKGStatus(ctx) }
func (c *GroupInfoCache) GetDKGStartBlockHeight(ctx context.Context) (uint64, error) {
	return c.mem.GetDKGStartBlockHeight(ctx)
}

func (c *GroupInfoCache) SaveTaskInfo(
	ctx context.Context,
	index, epoch, size, threshold uint32,
	members []*types.Member,
	startBlockHeight uint64,
) error {
	if err := c.mem.SaveTaskInfo(ctx, index, epoch, size, threshold, members, startBlockHeight); err != nil {
		return err
	}
	return c.persist()
}

func (c *GroupInfoCache) SaveOutput(
	ctx context.Context,
	index, epoch uint32,
	output cache.DKGOutput,
	selfAddr common.Address,
	secretShare []byte,
) error {
	if err := c.mem.SaveOutput(ctx, index, epoch, output, selfAddr, secretShare); err != nil {
		return err
	}
	return c.persist()
}

func (c *GroupInfoCache) SaveCommitters(ctx context.Context, index, epoch uint32, committers []common.Address) error {
	if err := c.mem.SaveCommitters(ctx, index, epoch, committers); err != nil {
		return err
	}
	return c.persist()
}

func (c *GroupInfoCache) UpdateDKGStatus(ctx context.Context, index, epoch uint32, status int) (bool, error) {
	changed, err := c.mem.UpdateDKGStatus(ctx, index, epoch, status)
	if err != nil {
		return false, err
	}
	if changed {
		if err := c.persist(); err != nil {
			return false, err
		}
	}
	return changed, nil
}
