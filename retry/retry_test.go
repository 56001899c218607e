package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	clockwork "github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func TestDoSucceedsAfterRetries(t *testing.T) {
	d := Descriptor{Base: time.Millisecond, Factor: 2, MaxAttempts: 5}
	calls := 0
	err := Do(context.Background(), clockwork.NewRealClock(), d, func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestDoStopsAtMaxAttempts(t *testing.T) {
	d := Descriptor{Base: time.Millisecond, Factor: 2, MaxAttempts: 4}
	calls := 0
	err := Do(context.Background(), clockwork.NewRealClock(), d, func(context.Context) error {
		calls++
		return errTransient
	})
	require.ErrorIs(t, err, errTransient)
	require.Equal(t, 4, calls)
}

func TestTerminalErrorStopsImmediately(t *testing.T) {
	d := Descriptor{Base: time.Millisecond, Factor: 2, MaxAttempts: 10}
	terminal := errors.New("already committed")
	calls := 0
	err := Do(context.Background(), clockwork.NewRealClock(), d, func(context.Context) error {
		calls++
		return Terminal(terminal)
	})
	require.ErrorIs(t, err, terminal)
	require.Equal(t, 1, calls)
}

func TestTerminalNilIsSuccess(t *testing.T) {
	require.NoError(t, Terminal(nil))
}

func TestDoHonorsContextCancellation(t *testing.T) {
	d := Descriptor{Base: time.Hour, Factor: 2, MaxAttempts: 0}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, clockwork.NewRealClock(), d, func(context.Context) error {
			return errTransient
		})
	}()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after context cancellation")
	}
}

func TestBackoffDelayGrowsExponentially(t *testing.T) {
	d := Descriptor{Base: 100 * time.Millisecond, Factor: 2}
	require.Equal(t, 100*time.Millisecond, backoffDelay(d, 0))
	require.Equal(t, 200*time.Millisecond, backoffDelay(d, 1))
	require.Equal(t, 800*time.Millisecond, backoffDelay(d, 3))
}

func TestBackoffJitterStaysInRange(t *testing.T) {
	d := Descriptor{Base: 100 * time.Millisecond, Factor: 2, UseJitter: true}
	for i := 0; i < 100; i++ {
		delay := backoffDelay(d, 1)
		require.GreaterOrEqual(t, delay, 100*time.Millisecond)
		require.Less(t, delay, 200*time.Millisecond)
	}
}
