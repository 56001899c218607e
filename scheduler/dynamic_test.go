package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	clockwork "github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/randcast-network/randcast-node/log"
)

func TestDynamicTaskRunsToCompletion(t *testing.T) {
	dts := NewDynamicTaskScheduler(context.Background(), log.DefaultLogger(), clockwork.NewRealClock())
	defer dts.Shutdown()

	var ran atomic.Bool
	h := dts.AddTask(context.Background(), func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	require.Eventually(t, h.Done, time.Second, time.Millisecond)
	require.True(t, ran.Load())
}

func TestShutdownPredicateCancelsWork(t *testing.T) {
	dts := NewDynamicTaskScheduler(context.Background(), log.DefaultLogger(), clockwork.NewRealClock())
	defer dts.Shutdown()

	var stale atomic.Bool
	cancelled := make(chan struct{})
	h := dts.AddTaskWithShutdownSignal(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}, stale.Load, 5*time.Millisecond)

	// The predicate is false, so the work keeps waiting.
	time.Sleep(25 * time.Millisecond)
	require.False(t, h.Done())

	// The moment the predicate flips (a new group generation arrived), the
	// monitor cancels the work at its next check.
	stale.Store(true)
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("work was not cancelled after predicate became true")
	}
	require.Eventually(t, h.Done, time.Second, time.Millisecond)
}

func TestExplicitCancel(t *testing.T) {
	dts := NewDynamicTaskScheduler(context.Background(), log.DefaultLogger(), clockwork.NewRealClock())
	defer dts.Shutdown()

	h := dts.AddTask(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.False(t, h.Done())
	h.Cancel()
	require.Eventually(t, h.Done, time.Second, time.Millisecond)
}

func TestSweeperDrainsCompletedHandles(t *testing.T) {
	clock := clockwork.NewFakeClock()
	dts := NewDynamicTaskScheduler(context.Background(), log.DefaultLogger(), clock)
	defer dts.Shutdown()

	h := dts.AddTask(context.Background(), func(ctx context.Context) error { return nil })
	require.Eventually(t, h.Done, time.Second, time.Millisecond)
	require.Equal(t, 1, dts.Len())

	clock.BlockUntil(1)
	clock.Advance(defaultSweepInterval)
	require.Eventually(t, func() bool { return dts.Len() == 0 }, time.Second, time.Millisecond)
}
