package memory

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/randcast-network/randcast-node/cache"
	"github.com/randcast-network/randcast-node/dkg"
	"github.com/randcast-network/randcast-node/errs"
	"github.com/randcast-network/randcast-node/types"
)

var (
	self  = common.HexToAddress("0x0000000000000000000000000000000000000001")
	peer1 = common.HexToAddress("0x0000000000000000000000000000000000000002")
	peer2 = common.HexToAddress("0x0000000000000000000000000000000000000003")
)

func testMembers() []*types.Member {
	return []*types.Member{
		{Index: 0, IDAddress: self},
		{Index: 1, IDAddress: peer1},
		{Index: 2, IDAddress: peer2},
	}
}

func testOutput() cache.DKGOutput {
	return cache.DKGOutput{
		GroupPublicKey:      []byte("group-public-key"),
		OwnPartialPublicKey: []byte("self-partial"),
		MemberPartialPublicKeys: map[common.Address][]byte{
			self:  []byte("self-partial"),
			peer1: []byte("peer1-partial"),
			peer2: []byte("peer2-partial"),
		},
		MemberRPCEndpoints: map[common.Address]string{
			peer1: "peer1:50061",
			peer2: "peer2:50061",
		},
	}
}

// adopt runs the happy-path generation adoption: save task info and move the
// status to in_phase, the way the pre-grouping listener does.
func adopt(t *testing.T, c *GroupInfoCache, index, epoch uint32) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.SaveTaskInfo(ctx, index, epoch, 3, 2, testMembers(), 100))
	changed, err := c.UpdateDKGStatus(ctx, index, epoch, int(dkg.InPhase))
	require.NoError(t, err)
	require.True(t, changed)
}

func TestSaveOutputHappyPath(t *testing.T) {
	ctx := context.Background()
	c := NewGroupInfoCache(self)
	adopt(t, c, 1, 1)

	require.NoError(t, c.SaveOutput(ctx, 1, 1, testOutput(), self, []byte("secret-share")))

	pub, err := c.GetPublicKey(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("group-public-key"), pub)

	share, err := c.GetSecretShare(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("secret-share"), share)

	m, err := c.GetMember(ctx, peer1)
	require.NoError(t, err)
	require.Equal(t, []byte("peer1-partial"), m.PartialPublicKey)
	require.Equal(t, "peer1:50061", m.RPCEndpoint)
}

func TestSaveOutputRejectsStaleGeneration(t *testing.T) {
	ctx := context.Background()
	c := NewGroupInfoCache(self)
	adopt(t, c, 1, 2)

	var indexObsolete *errs.ErrGroupIndexObsolete
	require.ErrorAs(t, c.SaveOutput(ctx, 9, 2, testOutput(), self, nil), &indexObsolete)

	var epochObsolete *errs.ErrGroupEpochObsolete
	require.ErrorAs(t, c.SaveOutput(ctx, 1, 1, testOutput(), self, nil), &epochObsolete)
}

func TestSaveOutputRequiresInPhase(t *testing.T) {
	ctx := context.Background()
	c := NewGroupInfoCache(self)
	require.NoError(t, c.SaveTaskInfo(ctx, 1, 1, 3, 2, testMembers(), 100))

	// Status is still none: the round never started.
	require.Error(t, c.SaveOutput(ctx, 1, 1, testOutput(), self, nil))
}

func TestSaveCommittersTransitionsToReady(t *testing.T) {
	ctx := context.Background()
	c := NewGroupInfoCache(self)
	adopt(t, c, 1, 1)
	require.NoError(t, c.SaveOutput(ctx, 1, 1, testOutput(), self, []byte("share")))

	require.NoError(t, c.SaveCommitters(ctx, 1, 1, []common.Address{self, peer1}))

	state, err := c.GetState(ctx)
	require.NoError(t, err)
	require.Equal(t, types.GroupReady, state)

	committers, err := c.GetCommitters(ctx)
	require.NoError(t, err)
	require.Equal(t, []common.Address{self, peer1}, committers)
}

func TestSaveCommittersRequiresOutput(t *testing.T) {
	ctx := context.Background()
	c := NewGroupInfoCache(self)
	adopt(t, c, 1, 1)

	require.ErrorIs(t, c.SaveCommitters(ctx, 1, 1, []common.Address{self}), errs.ErrGroupNotReady)
}

func TestMutationsOnReadyGroupFail(t *testing.T) {
	ctx := context.Background()
	c := NewGroupInfoCache(self)
	adopt(t, c, 1, 1)
	require.NoError(t, c.SaveOutput(ctx, 1, 1, testOutput(), self, []byte("share")))
	require.NoError(t, c.SaveCommitters(ctx, 1, 1, []common.Address{self, peer1}))

	require.ErrorIs(t, c.SaveOutput(ctx, 1, 1, testOutput(), self, nil), errs.ErrGroupAlreadyReady)
	require.ErrorIs(t, c.SaveCommitters(ctx, 1, 1, []common.Address{self}), errs.ErrGroupAlreadyReady)
}

func TestNewTaskResetsGeneration(t *testing.T) {
	ctx := context.Background()
	c := NewGroupInfoCache(self)
	adopt(t, c, 1, 1)
	require.NoError(t, c.SaveOutput(ctx, 1, 1, testOutput(), self, []byte("share")))

	// A re-DKG arrives: epoch bumps, status resets, secret share is cleared.
	require.NoError(t, c.SaveTaskInfo(ctx, 1, 2, 3, 2, testMembers(), 200))

	status, err := c.GetDKGStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, int(dkg.None), status)

	_, err = c.GetSecretShare(ctx)
	require.ErrorIs(t, err, errs.ErrGroupNotReady)

	start, err := c.GetDKGStartBlockHeight(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(200), start)
}

func TestGetSelfIndex(t *testing.T) {
	ctx := context.Background()
	c := NewGroupInfoCache(peer1)
	adopt(t, c, 1, 1)

	idx, err := c.GetSelfIndex(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(1), idx)
}

func TestUpdateDKGStatusRejectsStaleGeneration(t *testing.T) {
	ctx := context.Background()
	c := NewGroupInfoCache(self)
	adopt(t, c, 1, 2)

	_, err := c.UpdateDKGStatus(ctx, 1, 1, int(dkg.CommitSuccess))
	var epochObsolete *errs.ErrGroupEpochObsolete
	require.ErrorAs(t, err, &epochObsolete)
}
