package memory

import (
	"context"
	"encoding/hex"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/randcast-network/randcast-node/errs"
	"github.com/randcast-network/randcast-node/types"
)

const handledTaskDedupSize = 100_000

type taskEntry struct {
	task    *types.RandomnessTask
	handled bool
}

// BLSTasksCache is the in-memory BLSTasksHandler. handled holds a bounded LRU
// of request ids this node has already returned from
// CheckAndGetAvailableTasks, so a long-running node doesn't grow this set
// without bound once tasks are pruned from tasks itself.
type BLSTasksCache struct {
	mu      sync.Mutex
	tasks   map[string]*taskEntry
	handled *lru.Cache
}

// NewBLSTasksCache returns an empty task cache.
func NewBLSTasksCache() *BLSTasksCache {
	handled, err := lru.New(handledTaskDedupSize)
	if err != nil {
		panic(err)
	}
	return &BLSTasksCache{
		tasks:   make(map[string]*taskEntry),
		handled: handled,
	}
}

func key(requestID []byte) string {
	return hex.EncodeToString(requestID)
}

func (c *BLSTasksCache) Contains(_ context.Context, requestID []byte) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.tasks[key(requestID)]
	return ok, nil
}

func (c *BLSTasksCache) Get(_ context.Context, requestID []byte) (*types.RandomnessTask, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.tasks[key(requestID)]
	if !ok {
		return nil, errs.ErrTaskNotFound
	}
	t := *e.task
	return &t, nil
}

func (c *BLSTasksCache) Add(_ context.Context, task *types.RandomnessTask) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key(task.RequestID)
	if _, exists := c.tasks[k]; exists {
		return nil
	}
	c.tasks[k] = &taskEntry{task: task}
	return nil
}

func (c *BLSTasksCache) IsHandled(_ context.Context, requestID []byte) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.tasks[key(requestID)]
	if !ok {
		return false, errs.ErrTaskNotFound
	}
	return e.handled, nil
}

// CheckAndGetAvailableTasks is the atomic select-mark-return compound
// operation from spec.md §4.3: a task is available to this node if it was
// assigned to currentGroupIndex, or if the exclusive window assigned to the
// originating group has expired. Selected tasks are marked handled and never
// returned again.
func (c *BLSTasksCache) CheckAndGetAvailableTasks(
	_ context.Context,
	currentBlockHeight uint64,
	currentGroupIndex uint32,
	exclusiveWindow uint64,
) ([]*types.RandomnessTask, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var available []*types.RandomnessTask
	for k, e := range c.tasks {
		if e.handled {
			continue
		}
		ownGroup := e.task.GroupIndex == currentGroupIndex
		windowExpired := currentBlockHeight > e.task.AssignmentBlockHeight+exclusiveWindow
		if !ownGroup && !windowExpired {
			continue
		}
		e.handled = true
		c.handled.Add(k, struct{}{})
		t := *e.task
		available = append(available, &t)
	}
	return available, nil
}
