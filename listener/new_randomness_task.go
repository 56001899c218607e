package listener

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	clockwork "github.com/jonboulle/clockwork"

	"github.com/randcast-network/randcast-node/cache"
	"github.com/randcast-network/randcast-node/contractclient"
	"github.com/randcast-network/randcast-node/eventbus"
	"github.com/randcast-network/randcast-node/log"
	"github.com/randcast-network/randcast-node/types"
)

// RandomnessRequestSource streams decoded RandomnessRequest logs from the
// chain's adapter contract.
type RandomnessRequestSource interface {
	WatchRandomnessRequest(opts *bind.WatchOpts) (<-chan *contractclient.RandomnessRequestLog, error)
}

// NewRandomnessTaskListener subscribes to chainID's RandomnessRequest logs,
// records each request in the task store, and publishes NewRandomnessTask
// (spec.md §4.4 "NewRandomnessTask"). The log subscription is re-established
// after one interval if it drops.
func NewRandomnessTaskListener(
	l log.Logger,
	clock clockwork.Clock,
	chainID uint32,
	source RandomnessRequestSource,
	tasks cache.BLSTasksHandler,
	bus *eventbus.Bus,
	cfg Config,
) func(ctx context.Context) error {
	l = l.Named("listener-new-randomness-task").With("chain_id", chainID)
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return func(ctx context.Context) error {
		for {
			if err := watchRandomnessRequests(ctx, l, chainID, source, tasks, bus); err != nil && ctx.Err() == nil {
				l.Warnw("RandomnessRequest subscription dropped, re-establishing", "err", err)
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

func watchRandomnessRequests(
	ctx context.Context,
	l log.Logger,
	chainID uint32,
	source RandomnessRequestSource,
	tasks cache.BLSTasksHandler,
	bus *eventbus.Bus,
) error {
	requests, err := source.WatchRandomnessRequest(&bind.WatchOpts{Context: ctx})
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case req, ok := <-requests:
			if !ok {
				return nil
			}
			task := &types.RandomnessTask{
				RequestID:             req.RequestID[:],
				SubscriptionID:        req.SubID,
				GroupIndex:            req.GroupIndex,
				Seed:                  req.Seed,
				RequestConfirmations:  req.RequestConfirmations,
				CallbackGasLimit:      req.CallbackGasLimit,
				CallbackMaxGasPrice:   req.CallbackMaxGasPrice,
				AssignmentBlockHeight: req.BlockNumber,
				Requester:             req.Sender,
			}
			if err := tasks.Add(ctx, task); err != nil {
				l.Errorw("failed to record randomness task",
					"request_id", task.RequestIDHex(), "err", err)
				continue
			}
			l.Infow("recorded randomness task",
				"request_id", task.RequestIDHex(),
				"group_index", task.GroupIndex,
				"assignment_block", task.AssignmentBlockHeight)
			bus.Publish(eventbus.NewRandomnessTaskEvent{ChainID: chainID, RequestID: task.RequestID})
		}
	}
}
