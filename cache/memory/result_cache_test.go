package memory

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/randcast-network/randcast-node/errs"
	"github.com/randcast-network/randcast-node/types"
)

var (
	addrA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	addrB = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	addrC = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

func resultTask(id byte) types.RandomnessTask {
	return types.RandomnessTask{
		RequestID:             []byte{id},
		GroupIndex:            1,
		Seed:                  big.NewInt(42),
		RequestConfirmations:  3,
		AssignmentBlockHeight: 100,
	}
}

func TestAddIsIdempotentOnRequestID(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache()
	task := resultTask(0x01)

	require.NoError(t, c.Add(ctx, 1, task, []byte("msg"), 2))
	_, err := c.AddPartialSignature(ctx, task.RequestID, addrA, []byte("sig-a"))
	require.NoError(t, err)

	// A second Add for the same request id must not reset the entry.
	require.NoError(t, c.Add(ctx, 1, task, []byte("msg"), 2))
	entry, err := c.Get(ctx, task.RequestID)
	require.NoError(t, err)
	require.Len(t, entry.PartialSignatures, 1)
}

func TestAddPartialSignatureDeduplicatesPerAddress(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache()
	task := resultTask(0x01)
	require.NoError(t, c.Add(ctx, 1, task, []byte("msg"), 2))

	added, err := c.AddPartialSignature(ctx, task.RequestID, addrA, []byte("sig-a"))
	require.NoError(t, err)
	require.True(t, added)

	added, err = c.AddPartialSignature(ctx, task.RequestID, addrA, []byte("sig-a-again"))
	require.NoError(t, err)
	require.False(t, added)

	entry, err := c.Get(ctx, task.RequestID)
	require.NoError(t, err)
	require.Equal(t, []byte("sig-a"), entry.PartialSignatures[addrA])
}

func TestAddPartialSignatureUnknownRequest(t *testing.T) {
	c := NewResultCache()
	_, err := c.AddPartialSignature(context.Background(), []byte{0xff}, addrA, []byte("sig"))
	require.ErrorIs(t, err, errs.ErrCommitterCacheNotExisted)
}

func TestGetReadyToCommitSignatures(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache()
	task := resultTask(0x01)
	require.NoError(t, c.Add(ctx, 1, task, []byte("msg"), 2))

	_, err := c.AddPartialSignature(ctx, task.RequestID, addrA, []byte("sig-a"))
	require.NoError(t, err)

	// One partial of two: not ready regardless of height.
	ready, err := c.GetReadyToCommitSignatures(ctx, 200)
	require.NoError(t, err)
	require.Empty(t, ready)

	_, err = c.AddPartialSignature(ctx, task.RequestID, addrB, []byte("sig-b"))
	require.NoError(t, err)

	// Threshold met but confirmations not yet: assignment 100 + 3 = 103.
	ready, err = c.GetReadyToCommitSignatures(ctx, 102)
	require.NoError(t, err)
	require.Empty(t, ready)

	ready, err = c.GetReadyToCommitSignatures(ctx, 103)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	require.Equal(t, types.Committing, ready[0].State)

	// The selection marked the entry committing, so a re-query skips it.
	ready, err = c.GetReadyToCommitSignatures(ctx, 104)
	require.NoError(t, err)
	require.Empty(t, ready)
}

func TestUpdateCommitResultTransitions(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache()
	task := resultTask(0x01)
	require.NoError(t, c.Add(ctx, 1, task, []byte("msg"), 1))

	require.NoError(t, c.UpdateCommitResult(ctx, task.RequestID, types.Committing))
	require.NoError(t, c.UpdateCommitResult(ctx, task.RequestID, types.NotCommitted))
	require.NoError(t, c.UpdateCommitResult(ctx, task.RequestID, types.Committing))
	require.NoError(t, c.UpdateCommitResult(ctx, task.RequestID, types.CommittedByOthers))

	entry, err := c.Get(ctx, task.RequestID)
	require.NoError(t, err)
	require.Equal(t, types.CommittedByOthers, entry.State)
}

func TestResetStaleCommitting(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache()
	for i, state := range []types.ResultCacheState{types.Committing, types.Committed, types.NotCommitted} {
		task := resultTask(byte(i + 1))
		require.NoError(t, c.Add(ctx, 1, task, []byte("msg"), 1))
		require.NoError(t, c.UpdateCommitResult(ctx, task.RequestID, state))
	}

	n, err := c.ResetStaleCommitting(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	entry, err := c.Get(ctx, []byte{0x01})
	require.NoError(t, err)
	require.Equal(t, types.NotCommitted, entry.State)
	entry, err = c.Get(ctx, []byte{0x02})
	require.NoError(t, err)
	require.Equal(t, types.Committed, entry.State)
}

func TestOrderedPartialSignaturesPreserveArrival(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache()
	task := resultTask(0x01)
	require.NoError(t, c.Add(ctx, 1, task, []byte("msg"), 3))

	for _, addr := range []common.Address{addrC, addrA, addrB} {
		_, err := c.AddPartialSignature(ctx, task.RequestID, addr, addr.Bytes())
		require.NoError(t, err)
	}

	entry, err := c.Get(ctx, task.RequestID)
	require.NoError(t, err)
	require.Equal(t, []common.Address{addrC, addrA, addrB}, entry.OrderedPartialSignatures())
}
