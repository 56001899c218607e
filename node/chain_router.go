package node

import (
	"context"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/randcast-network/randcast-node/cache"
	"github.com/randcast-network/randcast-node/chain"
	"github.com/randcast-network/randcast-node/contractclient"
)

// ChainBackend is what one chain's RPC provider must supply: contract calls,
// transaction submission and receipts, head reads, and gas prices. Satisfied
// by *ethclient.Client.
type ChainBackend interface {
	bind.ContractBackend
	bind.DeployBackend
	BlockNumber(ctx context.Context) (uint64, error)
}

// ChainComponents bundles everything the node holds for one chain: its
// identity, its live backend and contract clients, and its task/result
// stores. The main chain additionally carries the controller client; relayed
// chains consume randomness only (spec.md §4.8).
type ChainComponents struct {
	Identity chain.Identity
	Blocks   *chain.BlockCache
	Backend  ChainBackend
	Signer   *bind.TransactOpts

	Controller *contractclient.ControllerClient
	Adapter    *contractclient.AdapterClient

	Tasks   cache.BLSTasksHandler
	Results cache.SignatureResultCacheHandler
}

// ChainRouter dispatches per-chain operations on chain_id: the main chain
// owns group formation and node identity; each relayed chain has its own
// task and result stores but shares the main chain's group info.
type ChainRouter struct {
	main    *ChainComponents
	relayed map[uint32]*ChainComponents
}

// NewChainRouter builds a router over main and the relayed set.
func NewChainRouter(main *ChainComponents, relayed []*ChainComponents) *ChainRouter {
	r := &ChainRouter{main: main, relayed: make(map[uint32]*ChainComponents, len(relayed))}
	for _, c := range relayed {
		r.relayed[c.Identity.ChainID] = c
	}
	return r
}

// Main returns the main chain's components.
func (r *ChainRouter) Main() *ChainComponents { return r.main }

// MainChainID returns the id of the group-formation anchor chain.
func (r *ChainRouter) MainChainID() uint32 { return r.main.Identity.ChainID }

// Chain resolves chainID to its components, main chain included.
func (r *ChainRouter) Chain(chainID uint32) (*ChainComponents, bool) {
	if chainID == r.main.Identity.ChainID {
		return r.main, true
	}
	c, ok := r.relayed[chainID]
	return c, ok
}

// ResultCache implements committer.ChainRouter: the per-chain result cache
// the committer service deposits verified partials into.
func (r *ChainRouter) ResultCache(chainID uint32) (cache.SignatureResultCacheHandler, bool) {
	c, ok := r.Chain(chainID)
	if !ok {
		return nil, false
	}
	return c.Results, true
}

// ChainIDs lists every chain this node participates on, main chain first.
func (r *ChainRouter) ChainIDs() []uint32 {
	out := make([]uint32, 0, 1+len(r.relayed))
	out = append(out, r.main.Identity.ChainID)
	relayed := make([]uint32, 0, len(r.relayed))
	for id := range r.relayed {
		relayed = append(relayed, id)
	}
	sort.Slice(relayed, func(i, j int) bool { return relayed[i] < relayed[j] })
	return append(out, relayed...)
}

// big.Int chain ids are what go-ethereum signing wants; keep one conversion.
func chainIDBig(chainID uint32) *big.Int {
	return new(big.Int).SetUint64(uint64(chainID))
}

var _ ChainBackend = (*ethclient.Client)(nil)
