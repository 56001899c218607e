package subscriber

import (
	"context"
	"math/big"
	"testing"

	"github.com/drand/kyber/share"
	"github.com/drand/kyber/util/random"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/randcast-network/randcast-node/bls"
	"github.com/randcast-network/randcast-node/cache"
	"github.com/randcast-network/randcast-node/cache/memory"
	"github.com/randcast-network/randcast-node/dkg"
	"github.com/randcast-network/randcast-node/types"
)

const testChainID = 31337

var (
	nodeA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	nodeB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	nodeC = common.HexToAddress("0x00000000000000000000000000000000000000cc")
)

// testGroup is a ready 3-member, threshold-2 group with real BLS shares,
// viewed from self's node.
type testGroup struct {
	cache  *memory.GroupInfoCache
	shares []*share.PriShare
}

func newTestGroup(t *testing.T, self common.Address) *testGroup {
	t.Helper()
	ctx := context.Background()

	secret := bls.KeyGroup().Scalar().Pick(random.New())
	priPoly := share.NewPriPoly(bls.KeyGroup(), 2, secret, random.New())
	pubPoly := priPoly.Commit(bls.KeyGroup().Point().Base())
	shares := priPoly.Shares(3)

	addrs := []common.Address{nodeA, nodeB, nodeC}
	members := make([]*types.Member, len(addrs))
	partialKeys := make(map[common.Address][]byte, len(addrs))
	endpoints := make(map[common.Address]string, len(addrs))
	selfIndex := 0
	for i, addr := range addrs {
		members[i] = &types.Member{Index: uint32(i), IDAddress: addr}
		pk, err := pubPoly.Eval(i).V.MarshalBinary()
		require.NoError(t, err)
		partialKeys[addr] = pk
		endpoints[addr] = addr.Hex() + ":50061"
		if addr == self {
			selfIndex = i
		}
	}
	groupPub, err := pubPoly.Commit().MarshalBinary()
	require.NoError(t, err)

	g := memory.NewGroupInfoCache(self)
	require.NoError(t, g.SaveTaskInfo(ctx, 1, 1, 3, 2, members, 100))
	_, err = g.UpdateDKGStatus(ctx, 1, 1, int(dkg.InPhase))
	require.NoError(t, err)
	selfShare, err := shares[selfIndex].V.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, g.SaveOutput(ctx, 1, 1, cache.DKGOutput{
		GroupPublicKey:          groupPub,
		OwnPartialPublicKey:     partialKeys[self],
		MemberPartialPublicKeys: partialKeys,
		MemberRPCEndpoints:      endpoints,
	}, self, selfShare))
	require.NoError(t, g.SaveCommitters(ctx, 1, 1, []common.Address{nodeA, nodeB}))

	return &testGroup{cache: g, shares: shares}
}

func newTestTask(maxGasPrice int64) *types.RandomnessTask {
	return &types.RandomnessTask{
		RequestID:             []byte{0x01},
		GroupIndex:            1,
		Seed:                  big.NewInt(42),
		RequestConfirmations:  3,
		CallbackMaxGasPrice:   big.NewInt(maxGasPrice),
		AssignmentBlockHeight: 100,
	}
}
