package subscriber

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	clockwork "github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/randcast-network/randcast-node/cache/memory"
	"github.com/randcast-network/randcast-node/dkg"
	"github.com/randcast-network/randcast-node/eventbus"
	"github.com/randcast-network/randcast-node/log"
	"github.com/randcast-network/randcast-node/scheduler"
	"github.com/randcast-network/randcast-node/types"
)

// stallingCoordinator blocks every read until the caller's context dies,
// standing in for a round whose phases never open.
type stallingCoordinator struct{}

func (stallingCoordinator) Publish(ctx context.Context, _ []byte) error { return ctx.Err() }
func (stallingCoordinator) InPhase(ctx context.Context) (int8, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}
func (stallingCoordinator) GetShares(ctx context.Context) ([][]byte, error)         { return nil, ctx.Err() }
func (stallingCoordinator) GetResponses(ctx context.Context) ([][]byte, error)      { return nil, ctx.Err() }
func (stallingCoordinator) GetJustifications(ctx context.Context) ([][]byte, error) { return nil, ctx.Err() }
func (stallingCoordinator) GetParticipants(ctx context.Context) ([]common.Address, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (stallingCoordinator) GetDKGKeys(ctx context.Context) ([][]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type stallingProvider struct{}

func (stallingProvider) Coordinator(common.Address) (dkg.Coordinator, error) {
	return stallingCoordinator{}, nil
}

type countingController struct {
	commits atomic.Int32
}

func (c *countingController) CommitDKG(context.Context, *bind.TransactOpts, uint32, uint32, []byte, []byte, []common.Address) (*ethtypes.Transaction, error) {
	c.commits.Add(1)
	return nil, nil
}

// A re-DKG for a later epoch arrives while the epoch-1 round is stuck in its
// first phase: the shutdown predicate fires, the epoch-1 work is cancelled,
// and commit_dkg is never attempted for the stale round.
func TestInGroupingAbandonsStaleEpoch(t *testing.T) {
	ctx := context.Background()
	group := memory.NewGroupInfoCache(nodeA)
	nodeInfo := memory.NewNodeInfoCache()
	require.NoError(t, nodeInfo.SetDKGKeyPair(ctx, &types.DKGKeyPair{PrivateKey: []byte{0x01}, PublicKey: []byte{0x02}}))

	members := []*types.Member{{Index: 0, IDAddress: nodeA}}
	require.NoError(t, group.SaveTaskInfo(ctx, 1, 1, 1, 1, members, 100))
	_, err := group.UpdateDKGStatus(ctx, 1, 1, int(dkg.InPhase))
	require.NoError(t, err)

	controller := &countingController{}
	dts := scheduler.NewDynamicTaskScheduler(ctx, log.DefaultLogger(), clockwork.NewRealClock())
	defer dts.Shutdown()

	handler := NewInGroupingSubscriber(log.DefaultLogger(), clockwork.NewRealClock(), nodeA, nil,
		group, nodeInfo, controller, stallingProvider{}, dts, InGroupingConfig{
			PhaseInterval:         time.Millisecond,
			ShutdownCheckInterval: 5 * time.Millisecond,
		})

	handler(ctx, eventbus.RunDKGEvent{GroupIndex: 1, Epoch: 1, Size: 1, Threshold: 1})

	// Give the round time to start and verify it is genuinely stuck.
	time.Sleep(25 * time.Millisecond)
	require.Zero(t, controller.commits.Load())

	// Chain advances a new DKG for epoch 2; the cache adopts it.
	require.NoError(t, group.SaveTaskInfo(ctx, 1, 2, 1, 1, members, 200))

	// The epoch-1 dynamic task is cancelled at the next predicate check and
	// never commits anything for the stale round.
	time.Sleep(50 * time.Millisecond)
	require.Zero(t, controller.commits.Load())

	status, err := group.GetDKGStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, int(dkg.None), status)
}
