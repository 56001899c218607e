package listener

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	clockwork "github.com/jonboulle/clockwork"

	"github.com/randcast-network/randcast-node/cache"
	"github.com/randcast-network/randcast-node/contractclient"
	"github.com/randcast-network/randcast-node/dkg"
	"github.com/randcast-network/randcast-node/eventbus"
	"github.com/randcast-network/randcast-node/log"
	"github.com/randcast-network/randcast-node/types"
)

// DKGTaskSource streams decoded DKGTask logs from the controller.
type DKGTaskSource interface {
	WatchDKGTask(opts *bind.WatchOpts) (<-chan *contractclient.DKGTaskLog, error)
}

// NewPreGroupingListener subscribes to the controller's DKGTask logs; when a
// task names this node, it adopts the new (index, epoch) generation in the
// group cache, moves the DKG status to in_phase, and publishes RunDKG
// (spec.md §4.4 "PreGrouping"). The log subscription is re-established after
// one interval if it drops.
func NewPreGroupingListener(
	l log.Logger,
	clock clockwork.Clock,
	selfAddr common.Address,
	source DKGTaskSource,
	group cache.GroupInfoHandler,
	bus *eventbus.Bus,
	cfg Config,
) func(ctx context.Context) error {
	l = l.Named("listener-pre-grouping")
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return func(ctx context.Context) error {
		for {
			if err := watchDKGTasks(ctx, l, selfAddr, source, group, bus); err != nil && ctx.Err() == nil {
				l.Warnw("DKGTask subscription dropped, re-establishing", "err", err)
			}
			if ctx.Err() != nil {
				return nil
			}
			timer := clock.NewTimer(cfg.nextDelay())
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.Chan():
			}
		}
	}
}

func watchDKGTasks(
	ctx context.Context,
	l log.Logger,
	selfAddr common.Address,
	source DKGTaskSource,
	group cache.GroupInfoHandler,
	bus *eventbus.Bus,
) error {
	tasks, err := source.WatchDKGTask(&bind.WatchOpts{Context: ctx})
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case task, ok := <-tasks:
			if !ok {
				return nil
			}
			if !containsAddress(task.Members, selfAddr) {
				l.Debugw("ignoring DKG task not naming this node",
					"group_index", task.GroupIndex, "epoch", task.Epoch)
				continue
			}
			if err := adoptDKGTask(ctx, group, task); err != nil {
				l.Errorw("failed to adopt DKG task",
					"group_index", task.GroupIndex, "epoch", task.Epoch, "err", err)
				continue
			}
			l.Infow("adopted DKG task",
				"group_index", task.GroupIndex, "epoch", task.Epoch,
				"size", task.Size, "threshold", task.Threshold)
			bus.Publish(eventbus.RunDKGEvent{
				GroupIndex:         task.GroupIndex,
				Epoch:              task.Epoch,
				Size:               task.Size,
				Threshold:          task.Threshold,
				Members:            task.Members,
				CoordinatorAddress: task.CoordinatorAddress,
				AssignmentBlockNum: task.BlockNumber.Uint64(),
			})
		}
	}
}

func adoptDKGTask(ctx context.Context, group cache.GroupInfoHandler, task *contractclient.DKGTaskLog) error {
	members := make([]*types.Member, 0, len(task.Members))
	for i, addr := range task.Members {
		members = append(members, &types.Member{Index: uint32(i), IDAddress: addr})
	}
	if err := group.SaveTaskInfo(ctx, task.GroupIndex, task.Epoch, task.Size, task.Threshold, members, task.BlockNumber.Uint64()); err != nil {
		return err
	}
	_, err := group.UpdateDKGStatus(ctx, task.GroupIndex, task.Epoch, int(dkg.InPhase))
	return err
}

func containsAddress(list []common.Address, addr common.Address) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}
