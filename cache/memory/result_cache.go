package memory

import (
	"context"
	"encoding/hex"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/randcast-network/randcast-node/errs"
	"github.com/randcast-network/randcast-node/types"
)

// ResultCache is the in-memory SignatureResultCacheHandler. At construction
// (representing node startup) any entry left in `committing` from a prior
// process would be reset to not_committed; since this cache never survives a
// restart, that reset is implicit. The bbolt-backed cache in package
// boltcache performs the reset explicitly on Open, for the durable case.
type ResultCache struct {
	mu      sync.Mutex
	entries map[string]*types.SignatureResultCache
}

// NewResultCache returns an empty signature result cache.
func NewResultCache() *ResultCache {
	return &ResultCache{entries: make(map[string]*types.SignatureResultCache)}
}

func (c *ResultCache) Contains(_ context.Context, requestID []byte) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[hex.EncodeToString(requestID)]
	return ok, nil
}

func (c *ResultCache) Get(_ context.Context, requestID []byte) (*types.SignatureResultCache, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[hex.EncodeToString(requestID)]
	if !ok {
		return nil, errs.ErrCommitterCacheNotExisted
	}
	return e, nil
}

func (c *ResultCache) Add(_ context.Context, groupIndex uint32, task types.RandomnessTask, message []byte, threshold uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := hex.EncodeToString(task.RequestID)
	if _, exists := c.entries[k]; exists {
		return nil
	}
	c.entries[k] = types.NewSignatureResultCache(groupIndex, task, message, threshold)
	return nil
}

func (c *ResultCache) AddPartialSignature(_ context.Context, requestID []byte, addr common.Address, sig []byte) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[hex.EncodeToString(requestID)]
	if !ok {
		return false, errs.ErrCommitterCacheNotExisted
	}
	return e.AddPartialSignature(addr, sig), nil
}

// GetReadyToCommitSignatures is the atomic select-mark-return compound
// operation from spec.md §4.3.
func (c *ResultCache) GetReadyToCommitSignatures(_ context.Context, currentBlockHeight uint64) ([]*types.SignatureResultCache, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ready []*types.SignatureResultCache
	for _, e := range c.entries {
		if e.State != types.NotCommitted {
			continue
		}
		confirmedAt := e.Task.AssignmentBlockHeight + uint64(e.Task.RequestConfirmations)
		if currentBlockHeight < confirmedAt {
			continue
		}
		if !e.ReadyToCommit() {
			continue
		}
		e.State = types.Committing
		ready = append(ready, e)
	}
	return ready, nil
}

func (c *ResultCache) UpdateCommitResult(_ context.Context, requestID []byte, newState types.ResultCacheState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[hex.EncodeToString(requestID)]
	if !ok {
		return errs.ErrCommitterCacheNotExisted
	}
	e.State = newState
	return nil
}

func (c *ResultCache) IncrCommittedTimes(_ context.Context, requestID []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[hex.EncodeToString(requestID)]
	if !ok {
		return errs.ErrCommitterCacheNotExisted
	}
	e.CommittedTimes++
	return nil
}

// Entries returns every held entry, for a durable cache to persist.
func (c *ResultCache) Entries() []*types.SignatureResultCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*types.SignatureResultCache, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out
}

// RestoreEntry installs e directly, for a durable cache to rehydrate from
// disk on open.
func (c *ResultCache) RestoreEntry(e *types.SignatureResultCache) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[hex.EncodeToString(e.Task.RequestID)] = e
}

// ResetStaleCommitting reverts any entry left in `committing` back to
// not_committed. Called at startup (spec.md §7): "at startup any cache entry
// in committing is reset to not_committed".
func (c *ResultCache) ResetStaleCommitting(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.State == types.Committing {
			e.State = types.NotCommitted
			n++
		}
	}
	return n, nil
}
