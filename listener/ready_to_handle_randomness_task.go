package listener

import (
	"context"

	clockwork "github.com/jonboulle/clockwork"

	"github.com/randcast-network/randcast-node/cache"
	"github.com/randcast-network/randcast-node/chain"
	"github.com/randcast-network/randcast-node/eventbus"
	"github.com/randcast-network/randcast-node/log"
	"github.com/randcast-network/randcast-node/types"
)

// NewReadyToHandleRandomnessTaskListener periodically asks the task store for
// work this node's group may serve: tasks assigned to the group, plus tasks
// whose originating group's exclusive window has expired (spec.md §4.4
// "ReadyToHandleRandomnessTask"). Selected tasks are published for the
// signing subscriber.
func NewReadyToHandleRandomnessTaskListener(
	l log.Logger,
	clock clockwork.Clock,
	chainID uint32,
	group cache.GroupInfoHandler,
	tasks cache.BLSTasksHandler,
	blocks *chain.BlockCache,
	exclusiveWindow uint64,
	bus *eventbus.Bus,
	cfg Config,
) func(ctx context.Context) error {
	l = l.Named("listener-ready-to-handle").With("chain_id", chainID)
	return func(ctx context.Context) error {
		return tickLoop(ctx, l, clock, cfg, func(ctx context.Context) error {
			state, err := group.GetState(ctx)
			if err != nil {
				return err
			}
			if state != types.GroupReady {
				return nil
			}
			index, err := group.GetIndex(ctx)
			if err != nil {
				return err
			}

			available, err := tasks.CheckAndGetAvailableTasks(ctx, blocks.Height(), index, exclusiveWindow)
			if err != nil {
				return err
			}
			if len(available) == 0 {
				return nil
			}
			l.Infow("tasks ready to handle", "count", len(available))
			bus.Publish(eventbus.ReadyToHandleRandomnessTaskEvent{ChainID: chainID, Tasks: available})
			return nil
		})
	}
}
