package dkg

import (
	"context"
	"sync"
	"testing"
	"time"

	kdkg "github.com/drand/kyber/share/dkg"
	"github.com/ethereum/go-ethereum/common"
	clockwork "github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/randcast-network/randcast-node/log"
)

// fakeCoordinator scripts the contract's phase progression in memory.
type fakeCoordinator struct {
	mu             sync.Mutex
	phase          int8
	shares         [][]byte
	responses      [][]byte
	justifications [][]byte
	published      [][]byte
}

func (f *fakeCoordinator) setPhase(p int8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phase = p
}

func (f *fakeCoordinator) Publish(_ context.Context, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, value)
	return nil
}

func (f *fakeCoordinator) InPhase(context.Context) (int8, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase, nil
}

func (f *fakeCoordinator) GetShares(context.Context) ([][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shares, nil
}

func (f *fakeCoordinator) GetResponses(context.Context) ([][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.responses, nil
}

func (f *fakeCoordinator) GetJustifications(context.Context) ([][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.justifications, nil
}

func (f *fakeCoordinator) GetParticipants(context.Context) ([]common.Address, error) {
	return nil, nil
}

func (f *fakeCoordinator) GetDKGKeys(context.Context) ([][]byte, error) {
	return nil, nil
}

func TestBoardFollowsContractPhases(t *testing.T) {
	coord := &fakeCoordinator{}

	deal, err := EncodeDealBundle(&kdkg.DealBundle{DealerIndex: 0, SessionID: []byte("s")})
	require.NoError(t, err)
	resp, err := EncodeResponseBundle(&kdkg.ResponseBundle{ShareIndex: 1, SessionID: []byte("s")})
	require.NoError(t, err)
	coord.mu.Lock()
	coord.shares = [][]byte{deal}
	coord.responses = [][]byte{resp}
	coord.mu.Unlock()

	board := NewBoard(log.DefaultLogger(), clockwork.NewRealClock(), coord, 4, time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- board.Run(context.Background()) }()

	expectPhase := func(want kdkg.Phase) {
		t.Helper()
		select {
		case got := <-board.NextPhase():
			require.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for phase %v", want)
		}
	}

	coord.setPhase(phaseShares)
	expectPhase(kdkg.DealPhase)

	coord.setPhase(phaseResponses)
	expectPhase(kdkg.ResponsePhase)
	select {
	case got := <-board.IncomingDeal():
		require.Equal(t, uint32(0), got.DealerIndex)
	case <-time.After(time.Second):
		t.Fatal("deal bundle was not delivered")
	}

	coord.setPhase(phaseJustifications)
	expectPhase(kdkg.JustifPhase)
	select {
	case got := <-board.IncomingResponse():
		require.Equal(t, uint32(1), got.ShareIndex)
	case <-time.After(time.Second):
		t.Fatal("response bundle was not delivered")
	}

	coord.setPhase(-1)
	expectPhase(kdkg.FinishPhase)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("board did not finish")
	}
}

func TestBoardPushPublishes(t *testing.T) {
	coord := &fakeCoordinator{}
	board := NewBoard(log.DefaultLogger(), clockwork.NewRealClock(), coord, 4, time.Millisecond)

	board.PushDeals(&kdkg.DealBundle{DealerIndex: 3, SessionID: []byte("s")})

	require.Eventually(t, func() bool {
		coord.mu.Lock()
		defer coord.mu.Unlock()
		return len(coord.published) == 1
	}, time.Second, time.Millisecond)

	coord.mu.Lock()
	defer coord.mu.Unlock()
	decoded, err := DecodeDealBundle(coord.published[0])
	require.NoError(t, err)
	require.Equal(t, uint32(3), decoded.DealerIndex)
}

func TestBoardRunStopsOnCancel(t *testing.T) {
	coord := &fakeCoordinator{}
	board := NewBoard(log.DefaultLogger(), clockwork.NewRealClock(), coord, 4, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- board.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("board did not stop on cancellation")
	}
}
