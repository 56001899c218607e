package boltcache

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	bolt "go.etcd.io/bbolt"

	"github.com/randcast-network/randcast-node/cache/memory"
	"github.com/randcast-network/randcast-node/types"
)

// resultRecord is the durable shape of one SignatureResultCache entry; Order
// persists PartialSignatures' arrival order separately since the in-memory
// type keeps it unexported.
type resultRecord struct {
	GroupIndex        uint32
	Task              types.RandomnessTask
	Message           []byte
	Threshold         uint32
	PartialSignatures map[common.Address][]byte
	Order             []common.Address
	CommittedTimes    uint32
	State             types.ResultCacheState
}

// ResultCache is a bbolt-durable SignatureResultCacheHandler.
type ResultCache struct {
	store *Store
	mem   *memory.ResultCache
}

// OpenResultCache rehydrates the cache from the store, resetting any entry
// left in `committing` back to `not_committed` (spec.md §7's startup rule:
// a process that died mid-commit cannot know whether its on-chain submission
// actually landed, so it must re-derive readiness from scratch on restart).
func OpenResultCache(store *Store) (*ResultCache, error) {
	c := &ResultCache{store: store, mem: memory.NewResultCache()}
	err := store.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(resultBucket)
		return b.ForEach(func(k, v []byte) error {
			var rec resultRecord
			if err := unmarshalInto(v, &rec); err != nil {
				return err
			}
			entry := types.NewSignatureResultCache(rec.GroupIndex, rec.Task, rec.Message, rec.Threshold)
			for addr, sig := range rec.PartialSignatures {
				entry.AddPartialSignature(addr, sig)
			}
			entry.RestoreOrder(rec.Order)
			entry.CommittedTimes = rec.CommittedTimes
			entry.State = rec.State
			if entry.State == types.Committing {
				entry.State = types.NotCommitted
				rec.State = types.NotCommitted
				if err := putJSON(tx, resultBucket, k, toRecord(entry)); err != nil {
					return err
				}
			}
			c.mem.RestoreEntry(entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func toRecord(e *types.SignatureResultCache) resultRecord {
	return resultRecord{
		GroupIndex:        e.GroupIndex,
		Task:              e.Task,
		Message:           e.Message,
		Threshold:         e.Threshold,
		PartialSignatures: e.PartialSignatures,
		Order:             e.OrderedPartialSignatures(),
		CommittedTimes:    e.CommittedTimes,
		State:             e.State,
	}
}

func (c *ResultCache) persist(requestID []byte) error {
	entry, err := c.mem.Get(context.Background(), requestID)
	if err != nil {
		return err
	}
	return c.store.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx, resultBucket, key(requestID), toRecord(entry))
	})
}

func (c *ResultCache) Contains(ctx context.Context, requestID []byte) (bool, error) {
	return c.mem.Contains(ctx, requestID)
}

func (c *ResultCache) Get(ctx context.Context, requestID []byte) (*types.SignatureResultCache, error) {
	return c.mem.Get(ctx, requestID)
}

func (c *ResultCache) Add(ctx context.Context, groupIndex uint32, task types.RandomnessTask, message []byte, threshold uint32) error {
	if err := c.mem.Add(ctx, groupIndex, task, message, threshold); err != nil {
		return err
	}
	return c.persist(task.RequestID)
}

func (c *ResultCache) AddPartialSignature(ctx context.Context, requestID []byte, addr common.Address, sig []byte) (bool, error) {
	added, err := c.mem.AddPartialSignature(ctx, requestID, addr, sig)
	if err != nil || !added {
		return added, err
	}
	return added, c.persist(requestID)
}

func (c *ResultCache) GetReadyToCommitSignatures(ctx context.Context, currentBlockHeight uint64) ([]*types.SignatureResultCache, error) {
	ready, err := c.mem.GetReadyToCommitSignatures(ctx, currentBlockHeight)
	if err != nil || len(ready) == 0 {
		return ready, err
	}
	err = c.store.db.Update(func(tx *bolt.Tx) error {
		for _, e := range ready {
			if err := putJSON(tx, resultBucket, key(e.Task.RequestID), toRecord(e)); err != nil {
				return err
			}
		}
		return nil
	})
	return ready, err
}

func (c *ResultCache) UpdateCommitResult(ctx context.Context, requestID []byte, newState types.ResultCacheState) error {
	if err := c.mem.UpdateCommitResult(ctx, requestID, newState); err != nil {
		return err
	}
	return c.persist(requestID)
}

func (c *ResultCache) IncrCommittedTimes(ctx context.Context, requestID []byte) error {
	if err := c.mem.IncrCommittedTimes(ctx, requestID); err != nil {
		return err
	}
	return c.persist(requestID)
}
