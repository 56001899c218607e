package listener

import (
	"context"

	clockwork "github.com/jonboulle/clockwork"

	"github.com/randcast-network/randcast-node/cache"
	"github.com/randcast-network/randcast-node/chain"
	"github.com/randcast-network/randcast-node/dkg"
	"github.com/randcast-network/randcast-node/eventbus"
	"github.com/randcast-network/randcast-node/log"
)

// NewPostGroupingListener watches for DKG rounds that have outlived the
// on-chain timeout: once the group is waiting for post-processing and more
// than dkgTimeoutBlocks have passed since the round started, it publishes
// DKGPostProcess and marks the status post_process_success (spec.md §4.4
// "PostGrouping").
func NewPostGroupingListener(
	l log.Logger,
	clock clockwork.Clock,
	group cache.GroupInfoHandler,
	blocks *chain.BlockCache,
	dkgTimeoutBlocks uint64,
	bus *eventbus.Bus,
	cfg Config,
) func(ctx context.Context) error {
	l = l.Named("listener-post-grouping")
	return func(ctx context.Context) error {
		return tickLoop(ctx, l, clock, cfg, func(ctx context.Context) error {
			status, err := group.GetDKGStatus(ctx)
			if err != nil {
				return err
			}
			if dkg.Status(status) != dkg.WaitForPostProcess {
				return nil
			}

			start, err := group.GetDKGStartBlockHeight(ctx)
			if err != nil {
				return err
			}
			height := blocks.Height()
			if height <= start || height-start <= dkgTimeoutBlocks {
				return nil
			}

			index, err := group.GetIndex(ctx)
			if err != nil {
				return err
			}
			epoch, err := group.GetEpoch(ctx)
			if err != nil {
				return err
			}

			changed, err := group.UpdateDKGStatus(ctx, index, epoch, int(dkg.PostProcessSuccess))
			if err != nil {
				return err
			}
			if !changed {
				return nil
			}
			l.Infow("DKG round timed out, requesting post-processing",
				"group_index", index, "epoch", epoch,
				"start_block", start, "current_block", height)
			bus.Publish(eventbus.DKGPostProcessEvent{GroupIndex: index, Epoch: epoch})
			return nil
		})
	}
}
