package subscriber

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/randcast-network/randcast-node/eventbus"
	"github.com/randcast-network/randcast-node/log"
	"github.com/randcast-network/randcast-node/scheduler"
)

// DKGPostProcessor submits the cleanup transaction for a timed-out DKG round.
type DKGPostProcessor interface {
	PostProcessDKG(ctx context.Context, opts *bind.TransactOpts, groupIndex, epoch uint32) (*ethtypes.Transaction, error)
}

// NewPostGroupingSubscriber reacts to a DKG round outliving its timeout by
// asking the controller to post-process it (spec.md §4.5 "PostGrouping").
// The transaction runs as a dynamic task so a slow chain never stalls the
// subscription's event queue.
func NewPostGroupingSubscriber(
	l log.Logger,
	signer *bind.TransactOpts,
	controller DKGPostProcessor,
	dts *scheduler.DynamicTaskScheduler,
) eventbus.Handler {
	l = l.Named("subscriber-post-grouping")
	return func(ctx context.Context, event eventbus.Event) {
		ev, ok := event.(eventbus.DKGPostProcessEvent)
		if !ok {
			return
		}
		dts.AddTask(ctx, func(ctx context.Context) error {
			if _, err := controller.PostProcessDKG(ctx, signer, ev.GroupIndex, ev.Epoch); err != nil {
				l.Errorw("post_process_dkg failed",
					"group_index", ev.GroupIndex, "epoch", ev.Epoch, "err", err)
				return err
			}
			l.Infow("post-processed timed-out DKG round",
				"group_index", ev.GroupIndex, "epoch", ev.Epoch)
			return nil
		})
	}
}
