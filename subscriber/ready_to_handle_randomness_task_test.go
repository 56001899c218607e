package subscriber

import (
	"context"
	"sync"
	"testing"
	"time"

	clockwork "github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/randcast-network/randcast-node/bls"
	"github.com/randcast-network/randcast-node/cache/memory"
	"github.com/randcast-network/randcast-node/eventbus"
	"github.com/randcast-network/randcast-node/log"
	"github.com/randcast-network/randcast-node/retry"
	rpccommitter "github.com/randcast-network/randcast-node/rpc/committer"
	"github.com/randcast-network/randcast-node/scheduler"
	"github.com/randcast-network/randcast-node/types"
)

type fakeSender struct {
	mu    sync.Mutex
	calls []struct {
		endpoint string
		req      *rpccommitter.CommitPartialSignatureRequest
	}
}

func (f *fakeSender) CommitPartialSignature(_ context.Context, _ retry.Descriptor, endpoint string, req *rpccommitter.CommitPartialSignatureRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, struct {
		endpoint string
		req      *rpccommitter.CommitPartialSignatureRequest
	}{endpoint, req})
	return nil
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// A committer node signs the task, deposits its own partial locally, and
// gossips to the one other committer (but never to itself or non-committers).
func TestReadyToHandleAsCommitter(t *testing.T) {
	g := newTestGroup(t, nodeA)
	results := memory.NewResultCache()
	sender := &fakeSender{}
	dts := scheduler.NewDynamicTaskScheduler(context.Background(), log.DefaultLogger(), clockwork.NewRealClock())
	defer dts.Shutdown()

	handler := NewReadyToHandleRandomnessTaskSubscriber(log.DefaultLogger(), testChainID, nodeA,
		g.cache, results, sender, dts, retry.Descriptor{MaxAttempts: 1})

	task := newTestTask(1e12)
	handler(context.Background(), eventbus.ReadyToHandleRandomnessTaskEvent{
		ChainID: testChainID,
		Tasks:   []*types.RandomnessTask{task},
	})

	// Own partial landed in the local result cache.
	entry, err := results.Get(context.Background(), task.RequestID)
	require.NoError(t, err)
	require.Equal(t, uint32(2), entry.Threshold)
	require.Contains(t, entry.PartialSignatures, nodeA)
	require.Equal(t, task.ActualSeed(), entry.Message)

	// The deposited partial verifies under this node's partial public key.
	member, err := g.cache.GetMember(context.Background(), nodeA)
	require.NoError(t, err)
	pk, err := bls.UnmarshalPublicKey(member.PartialPublicKey)
	require.NoError(t, err)
	require.NoError(t, bls.PartialVerify(pk, entry.Message, entry.PartialSignatures[nodeA]))

	// Exactly one peer committer (nodeB) was gossiped to.
	require.Eventually(t, func() bool { return sender.callCount() == 1 }, time.Second, time.Millisecond)
	sender.mu.Lock()
	defer sender.mu.Unlock()
	call := sender.calls[0]
	require.Contains(t, call.endpoint, nodeB.Hex())
	require.Equal(t, nodeA.Bytes(), call.req.GetSenderAddress())
	require.Equal(t, task.RequestID, call.req.GetRequestId())
	require.Equal(t, rpccommitter.TaskTypeRandomness, call.req.GetTaskType())
}

// A non-committer signs and gossips to every committer, without touching its
// own result cache.
func TestReadyToHandleAsNonCommitter(t *testing.T) {
	g := newTestGroup(t, nodeC)
	results := memory.NewResultCache()
	sender := &fakeSender{}
	dts := scheduler.NewDynamicTaskScheduler(context.Background(), log.DefaultLogger(), clockwork.NewRealClock())
	defer dts.Shutdown()

	handler := NewReadyToHandleRandomnessTaskSubscriber(log.DefaultLogger(), testChainID, nodeC,
		g.cache, results, sender, dts, retry.Descriptor{MaxAttempts: 1})

	task := newTestTask(1e12)
	handler(context.Background(), eventbus.ReadyToHandleRandomnessTaskEvent{
		ChainID: testChainID,
		Tasks:   []*types.RandomnessTask{task},
	})

	require.Eventually(t, func() bool { return sender.callCount() == 2 }, time.Second, time.Millisecond)

	ok, err := results.Contains(context.Background(), task.RequestID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReadyToHandleIgnoresOtherChains(t *testing.T) {
	g := newTestGroup(t, nodeA)
	results := memory.NewResultCache()
	sender := &fakeSender{}
	dts := scheduler.NewDynamicTaskScheduler(context.Background(), log.DefaultLogger(), clockwork.NewRealClock())
	defer dts.Shutdown()

	handler := NewReadyToHandleRandomnessTaskSubscriber(log.DefaultLogger(), testChainID, nodeA,
		g.cache, results, sender, dts, retry.Descriptor{MaxAttempts: 1})

	handler(context.Background(), eventbus.ReadyToHandleRandomnessTaskEvent{
		ChainID: testChainID + 1,
		Tasks:   []*types.RandomnessTask{newTestTask(1e12)},
	})

	time.Sleep(50 * time.Millisecond)
	require.Zero(t, sender.callCount())
}
