package listener

import (
	"context"

	clockwork "github.com/jonboulle/clockwork"

	"github.com/randcast-network/randcast-node/chain"
	"github.com/randcast-network/randcast-node/eventbus"
	"github.com/randcast-network/randcast-node/log"
)

// ChainHeightReader reads the current block height of one chain.
type ChainHeightReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// NewBlockListener polls chainID's head, records it in blocks, and
// publishes NewBlock on every advance (spec.md §4.4 "Block").
func NewBlockListener(
	l log.Logger,
	clock clockwork.Clock,
	chainID uint32,
	reader ChainHeightReader,
	blocks *chain.BlockCache,
	bus *eventbus.Bus,
	cfg Config,
) func(ctx context.Context) error {
	l = l.Named("listener-block")
	return func(ctx context.Context) error {
		return tickLoop(ctx, l, clock, cfg, func(ctx context.Context) error {
			height, err := reader.BlockNumber(ctx)
			if err != nil {
				return err
			}
			if blocks.SetHeight(height) {
				bus.Publish(eventbus.NewBlockEvent{ChainID: chainID, BlockHeight: height})
			}
			return nil
		})
	}
}
