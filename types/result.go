package types

import "github.com/ethereum/go-ethereum/common"

// ResultCacheState is the lifecycle of one aggregation cache entry.
type ResultCacheState int

const (
	NotCommitted ResultCacheState = iota
	Committing
	Committed
	CommittedByOthers
)

func (s ResultCacheState) String() string {
	switch s {
	case NotCommitted:
		return "not_committed"
	case Committing:
		return "committing"
	case Committed:
		return "committed"
	case CommittedByOthers:
		return "committed_by_others"
	default:
		return "unknown"
	}
}

// SignatureResultCache is one active request_id's worth of aggregation state,
// spec.md §3 "BLSResultCache<RandomnessResultCache>". Owned by the
// aggregating committer.
type SignatureResultCache struct {
	GroupIndex        uint32
	Task              RandomnessTask
	Message           []byte
	Threshold         uint32
	PartialSignatures map[common.Address][]byte
	// partialOrder preserves arrival order of PartialSignatures' keys.
	partialOrder   []common.Address
	CommittedTimes uint32
	State          ResultCacheState
}

// NewSignatureResultCache builds an empty not_committed entry.
func NewSignatureResultCache(groupIndex uint32, task RandomnessTask, message []byte, threshold uint32) *SignatureResultCache {
	return &SignatureResultCache{
		GroupIndex:        groupIndex,
		Task:              task,
		Message:           message,
		Threshold:         threshold,
		PartialSignatures: make(map[common.Address][]byte),
		State:             NotCommitted,
	}
}

// AddPartialSignature records addr's partial, idempotent on duplicate
// (request_id, address). Returns false if addr had already posted.
func (c *SignatureResultCache) AddPartialSignature(addr common.Address, sig []byte) bool {
	if _, exists := c.PartialSignatures[addr]; exists {
		return false
	}
	c.PartialSignatures[addr] = sig
	c.partialOrder = append(c.partialOrder, addr)
	return true
}

// OrderedPartialSignatures returns partials in arrival order, for
// deterministic aggregation input and for the on-chain fulfill payload.
func (c *SignatureResultCache) OrderedPartialSignatures() []common.Address {
	out := make([]common.Address, len(c.partialOrder))
	copy(out, c.partialOrder)
	return out
}

// RestoreOrder sets the arrival order directly, for rehydrating a cache
// entry from a durable record that persisted the order alongside the map.
func (c *SignatureResultCache) RestoreOrder(order []common.Address) {
	c.partialOrder = order
}

// ReadyToCommit reports whether enough partials have arrived to aggregate.
func (c *SignatureResultCache) ReadyToCommit() bool {
	return uint32(len(c.PartialSignatures)) >= c.Threshold
}
