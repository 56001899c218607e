package listener

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	clockwork "github.com/jonboulle/clockwork"

	"github.com/randcast-network/randcast-node/cache"
	"github.com/randcast-network/randcast-node/contractclient"
	"github.com/randcast-network/randcast-node/dkg"
	"github.com/randcast-network/randcast-node/eventbus"
	"github.com/randcast-network/randcast-node/log"
)

// GroupViewReader reads the controller's on-chain view of a group.
type GroupViewReader interface {
	GetGroup(ctx context.Context, opts *bind.CallOpts, index uint32) (*contractclient.GroupView, error)
}

// NewPostCommitGroupingListener polls the controller for the group's
// readiness once this node has committed its DKG output; on the transition
// it advances the DKG status to wait_for_post_process and publishes
// DKGSuccess (spec.md §4.4 "PostCommitGrouping").
func NewPostCommitGroupingListener(
	l log.Logger,
	clock clockwork.Clock,
	controller GroupViewReader,
	group cache.GroupInfoHandler,
	bus *eventbus.Bus,
	cfg Config,
) func(ctx context.Context) error {
	l = l.Named("listener-post-commit-grouping")
	return func(ctx context.Context) error {
		return tickLoop(ctx, l, clock, cfg, func(ctx context.Context) error {
			status, err := group.GetDKGStatus(ctx)
			if err != nil {
				return err
			}
			if dkg.Status(status) != dkg.CommitSuccess {
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

			view, err := controller.GetGroup(ctx, &bind.CallOpts{Context: ctx}, index)
			if err != nil {
				return err
			}
			if !view.IsReady || view.Epoch != epoch {
				return nil
			}

			changed, err := group.UpdateDKGStatus(ctx, index, epoch, int(dkg.WaitForPostProcess))
			if err != nil {
				return err
			}
			if !changed {
				return nil
			}
			l.Infow("group is ready on chain", "group_index", index, "epoch", epoch,
				"committers", len(view.Committers))
			bus.Publish(eventbus.DKGSuccessEvent{
				GroupIndex: index,
				Epoch:      epoch,
				Committers: view.Committers,
			})
			return nil
		})
	}
}
