// Package chain holds C1 of spec.md's component table: the lightweight
// identity and block-height state every other component reads to know which
// chain, signer, and contract set it is talking about.
package chain

import (
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Identity is the static per-chain configuration spec.md §4.8's multi-chain
// routing keys everything else off of.
type Identity struct {
	ChainID            uint32
	IsMainChain        bool
	RPCEndpoint        string
	Signer             *bind.TransactOpts
	ControllerAddress  common.Address
	AdapterAddress     common.Address
	CoordinatorAddress common.Address
}

// BlockCache is the read/write-lock-guarded current-height store the Block
// listener (C6) writes and every other listener/subscriber reads.
type BlockCache struct {
	mu     sync.RWMutex
	height uint64
}

// NewBlockCache returns a cache starting at height 0.
func NewBlockCache() *BlockCache {
	return &BlockCache{}
}

// Height returns the last height recorded by the Block listener.
func (c *BlockCache) Height() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height
}

// SetHeight records a newly observed chain head. It is a no-op if height is
// not an advance, since listeners poll and may observe the same head twice.
func (c *BlockCache) SetHeight(height uint64) (advanced bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if height <= c.height {
		return false
	}
	c.height = height
	return true
}
