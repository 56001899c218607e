package subscriber

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	clockwork "github.com/jonboulle/clockwork"

	"github.com/randcast-network/randcast-node/cache"
	"github.com/randcast-network/randcast-node/dkg"
	"github.com/randcast-network/randcast-node/eventbus"
	"github.com/randcast-network/randcast-node/log"
	"github.com/randcast-network/randcast-node/scheduler"
)

// DKGController is the slice of the controller contract the DKG driver
// needs: submitting the round's committed output.
type DKGController interface {
	CommitDKG(ctx context.Context, opts *bind.TransactOpts, groupIndex, epoch uint32,
		groupPublicKey, ownPartialPublicKey []byte, disqualified []common.Address) (*ethtypes.Transaction, error)
}

// CoordinatorProvider builds a dkg.Coordinator bound to one ephemeral
// coordinator contract address.
type CoordinatorProvider interface {
	Coordinator(addr common.Address) (dkg.Coordinator, error)
}

// InGroupingConfig tunes the DKG driver.
type InGroupingConfig struct {
	// PhaseInterval is how often the board polls the coordinator while
	// waiting for a phase to advance.
	PhaseInterval time.Duration
	// ShutdownCheckInterval is how often the dynamic task's shutdown
	// predicate re-reads the group generation.
	ShutdownCheckInterval time.Duration
}

// NewInGroupingSubscriber is the DKG driver (spec.md §4.5 "InGrouping"). On
// RunDKG it spawns a dynamic task that runs all three phases against the
// task's coordinator, saves the resulting key material, and commits the
// output to the controller. The task's shutdown predicate fires as soon as
// the group cache has moved to a different (index, epoch), so a superseded
// round is abandoned at its next suspension point rather than finishing
// against a stale generation.
func NewInGroupingSubscriber(
	l log.Logger,
	clock clockwork.Clock,
	selfAddr common.Address,
	signer *bind.TransactOpts,
	group cache.GroupInfoHandler,
	node cache.NodeInfoHandler,
	controller DKGController,
	coordinators CoordinatorProvider,
	dts *scheduler.DynamicTaskScheduler,
	cfg InGroupingConfig,
) eventbus.Handler {
	l = l.Named("subscriber-in-grouping")
	return func(ctx context.Context, event eventbus.Event) {
		ev, ok := event.(eventbus.RunDKGEvent)
		if !ok {
			return
		}
		l.Infow("starting DKG round", "group_index", ev.GroupIndex, "epoch", ev.Epoch)

		stale := func() bool {
			index, err := group.GetIndex(context.Background())
			if err != nil {
				return false
			}
			epoch, err := group.GetEpoch(context.Background())
			if err != nil {
				return false
			}
			return index != ev.GroupIndex || epoch != ev.Epoch
		}

		dts.AddTaskWithShutdownSignal(ctx, func(ctx context.Context) error {
			return runDKGRound(ctx, l, clock, selfAddr, signer, group, node, controller, coordinators, ev, cfg)
		}, stale, cfg.ShutdownCheckInterval)
	}
}

func runDKGRound(
	ctx context.Context,
	l log.Logger,
	clock clockwork.Clock,
	selfAddr common.Address,
	signer *bind.TransactOpts,
	group cache.GroupInfoHandler,
	node cache.NodeInfoHandler,
	controller DKGController,
	coordinators CoordinatorProvider,
	ev eventbus.RunDKGEvent,
	cfg InGroupingConfig,
) error {
	coord, err := coordinators.Coordinator(ev.CoordinatorAddress)
	if err != nil {
		l.Errorw("failed to bind coordinator", "address", ev.CoordinatorAddress.Hex(), "err", err)
		return err
	}
	privateKey, err := node.GetDKGPrivateKey(ctx)
	if err != nil {
		return err
	}

	output, secretShare, err := dkg.Run(ctx, l, clock, coord,
		ev.GroupIndex, ev.Epoch, selfAddr, privateKey, ev.Threshold, cfg.PhaseInterval)
	if err != nil {
		l.Errorw("DKG round failed", "group_index", ev.GroupIndex, "epoch", ev.Epoch, "err", err)
		return err
	}

	if err := group.SaveOutput(ctx, ev.GroupIndex, ev.Epoch, *output, selfAddr, secretShare); err != nil {
		l.Errorw("failed to save DKG output", "group_index", ev.GroupIndex, "epoch", ev.Epoch, "err", err)
		return err
	}

	if _, err := controller.CommitDKG(ctx, signer, ev.GroupIndex, ev.Epoch,
		output.GroupPublicKey, output.OwnPartialPublicKey, output.DisqualifiedAddresses); err != nil {
		l.Errorw("commit_dkg rejected", "group_index", ev.GroupIndex, "epoch", ev.Epoch, "err", err)
		return err
	}

	if _, err := group.UpdateDKGStatus(ctx, ev.GroupIndex, ev.Epoch, int(dkg.CommitSuccess)); err != nil {
		return err
	}
	l.Infow("DKG output committed", "group_index", ev.GroupIndex, "epoch", ev.Epoch,
		"disqualified", len(output.DisqualifiedAddresses))
	return nil
}
