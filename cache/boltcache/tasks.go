package boltcache

import (
	"context"

	bolt "go.etcd.io/bbolt"

	"github.com/randcast-network/randcast-node/cache/memory"
	"github.com/randcast-network/randcast-node/types"
)

type taskRecord struct {
	Task    *types.RandomnessTask
	Handled bool
}

// BLSTasksCache is a bbolt-durable BLSTasksHandler: an in-memory working set
// (package memory) that write-throughs every mutation to disk, and is
// rehydrated from disk on Open. This mirrors drand's BoltStore, which keeps
// beacons as JSON-encoded records and reads them back on restart.
type BLSTasksCache struct {
	store *Store
	mem   *memory.BLSTasksCache
}

// OpenBLSTasksCache rehydrates the task cache from the store.
func OpenBLSTasksCache(store *Store) (*BLSTasksCache, error) {
	c := &BLSTasksCache{store: store, mem: memory.NewBLSTasksCache()}
	var unhandled []*types.RandomnessTask
	err := store.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(tasksBucket).ForEach(func(k, v []byte) error {
			var rec taskRecord
			if err := unmarshalInto(v, &rec); err != nil {
				return err
			}
			if !rec.Handled {
				unhandled = append(unhandled, rec.Task)
				return nil
			}
			return c.mem.Add(context.Background(), rec.Task)
		})
	})
	if err != nil {
		return nil, err
	}
	// Only handled tasks are loaded so far: mark them all, then add the
	// unhandled ones so they stay available.
	_, _ = c.mem.CheckAndGetAvailableTasks(context.Background(), ^uint64(0), 0, 0)
	for _, t := range unhandled {
		if err := c.mem.Add(context.Background(), t); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *BLSTasksCache) Contains(ctx context.Context, requestID []byte) (bool, error) {
	return c.mem.Contains(ctx, requestID)
}

func (c *BLSTasksCache) Get(ctx context.Context, requestID []byte) (*types.RandomnessTask, error) {
	return c.mem.Get(ctx, requestID)
}

func (c *BLSTasksCache) Add(ctx context.Context, task *types.RandomnessTask) error {
	if err := c.mem.Add(ctx, task); err != nil {
		return err
	}
	return c.store.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx, tasksBucket, key(task.RequestID), taskRecord{Task: task})
	})
}

func (c *BLSTasksCache) IsHandled(ctx context.Context, requestID []byte) (bool, error) {
	return c.mem.IsHandled(ctx, requestID)
}

func (c *BLSTasksCache) CheckAndGetAvailableTasks(
	ctx context.Context,
	currentBlockHeight uint64,
	currentGroupIndex uint32,
	exclusiveWindow uint64,
) ([]*types.RandomnessTask, error) {
	available, err := c.mem.CheckAndGetAvailableTasks(ctx, currentBlockHeight, currentGroupIndex, exclusiveWindow)
	if err != nil || len(available) == 0 {
		return available, err
	}
	err = c.store.db.Update(func(tx *bolt.Tx) error {
		for _, t := range available {
			if err := putJSON(tx, tasksBucket, key(t.RequestID), taskRecord{Task: t, Handled: true}); err != nil {
				return err
			}
		}
		return nil
	})
	return available, err
}
