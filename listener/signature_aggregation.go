package listener

import (
	"context"

	clockwork "github.com/jonboulle/clockwork"

	"github.com/randcast-network/randcast-node/cache"
	"github.com/randcast-network/randcast-node/chain"
	"github.com/randcast-network/randcast-node/eventbus"
	"github.com/randcast-network/randcast-node/log"
)

// NewSignatureAggregationListener periodically selects result-cache entries
// that have crossed both the confirmation depth and the signature threshold,
// and publishes them for the aggregation subscriber (spec.md §4.4
// "RandomnessSignatureAggregation"). Selection atomically moves the entries
// to committing, so one entry is never aggregated by two ticks.
func NewSignatureAggregationListener(
	l log.Logger,
	clock clockwork.Clock,
	chainID uint32,
	results cache.SignatureResultCacheHandler,
	blocks *chain.BlockCache,
	bus *eventbus.Bus,
	cfg Config,
) func(ctx context.Context) error {
	l = l.Named("listener-signature-aggregation").With("chain_id", chainID)
	return func(ctx context.Context) error {
		return tickLoop(ctx, l, clock, cfg, func(ctx context.Context) error {
			ready, err := results.GetReadyToCommitSignatures(ctx, blocks.Height())
			if err != nil {
				return err
			}
			if len(ready) == 0 {
				return nil
			}

			ids := make([][]byte, len(ready))
			for i, entry := range ready {
				ids[i] = entry.Task.RequestID
			}
			l.Infow("signatures ready to aggregate", "count", len(ids))
			bus.Publish(eventbus.ReadyToFulfillRandomnessTaskEvent{ChainID: chainID, RequestIDs: ids})
			return nil
		})
	}
}
