// Package subscriber implements C7 of spec.md's component table: the event
// handlers that drive DKG execution, partial signing, aggregation, and
// fulfillment. Each subscriber is constructed as an eventbus.Handler closure
// and registered by node/context.go against its topic; subscribers that act
// on per-chain events filter on the event's chain id, since every chain
// shares the one process-wide bus.
package subscriber

import (
	"context"

	"github.com/randcast-network/randcast-node/chain"
	"github.com/randcast-network/randcast-node/eventbus"
	"github.com/randcast-network/randcast-node/log"
)

// NewBlockSubscriber records every observed chain head into that chain's
// block cache (spec.md §4.5 "Block subscriber": side effect only). blocks is
// read-only after construction.
func NewBlockSubscriber(l log.Logger, blocks map[uint32]*chain.BlockCache) eventbus.Handler {
	l = l.Named("subscriber-block")
	return func(_ context.Context, event eventbus.Event) {
		ev, ok := event.(eventbus.NewBlockEvent)
		if !ok {
			return
		}
		cache, ok := blocks[ev.ChainID]
		if !ok {
			l.Warnw("block event for unknown chain", "chain_id", ev.ChainID)
			return
		}
		cache.SetHeight(ev.BlockHeight)
	}
}
