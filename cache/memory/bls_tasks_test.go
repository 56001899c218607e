package memory

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/randcast-network/randcast-node/errs"
	"github.com/randcast-network/randcast-node/types"
)

func newTask(id byte, groupIndex uint32, assignmentHeight uint64) *types.RandomnessTask {
	return &types.RandomnessTask{
		RequestID:             []byte{id},
		GroupIndex:            groupIndex,
		Seed:                  big.NewInt(42),
		RequestConfirmations:  3,
		AssignmentBlockHeight: assignmentHeight,
	}
}

func TestAddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c := NewBLSTasksCache()

	task := newTask(0x01, 1, 100)
	require.NoError(t, c.Add(ctx, task))
	require.NoError(t, c.Add(ctx, task))

	ok, err := c.Contains(ctx, task.RequestID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestGetUnknownTask(t *testing.T) {
	c := NewBLSTasksCache()
	_, err := c.Get(context.Background(), []byte{0xff})
	require.ErrorIs(t, err, errs.ErrTaskNotFound)
}

func TestCheckAndGetReturnsOwnGroupTasks(t *testing.T) {
	ctx := context.Background()
	c := NewBLSTasksCache()
	require.NoError(t, c.Add(ctx, newTask(0x01, 2, 100)))
	require.NoError(t, c.Add(ctx, newTask(0x02, 3, 100)))

	got, err := c.CheckAndGetAvailableTasks(ctx, 101, 2, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, []byte{0x01}, got[0].RequestID)

	handled, err := c.IsHandled(ctx, []byte{0x01})
	require.NoError(t, err)
	require.True(t, handled)
}

func TestCheckAndGetReturnsEachTaskAtMostOnce(t *testing.T) {
	ctx := context.Background()
	c := NewBLSTasksCache()
	require.NoError(t, c.Add(ctx, newTask(0x01, 2, 100)))

	got, err := c.CheckAndGetAvailableTasks(ctx, 101, 2, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)

	again, err := c.CheckAndGetAvailableTasks(ctx, 102, 2, 10)
	require.NoError(t, err)
	require.Empty(t, again)
}

// A task assigned to group 2 at block 100 with a 10-block exclusive window
// is invisible to group 1 through block 110 and available from block 111.
func TestExclusiveWindowFallback(t *testing.T) {
	ctx := context.Background()
	c := NewBLSTasksCache()
	require.NoError(t, c.Add(ctx, newTask(0x01, 2, 100)))

	got, err := c.CheckAndGetAvailableTasks(ctx, 110, 1, 10)
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = c.CheckAndGetAvailableTasks(ctx, 111, 1, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, []byte{0x01}, got[0].RequestID)
}
