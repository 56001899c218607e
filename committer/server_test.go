package committer

import (
	"context"
	"math/big"
	"testing"

	"github.com/drand/kyber/share"
	"github.com/drand/kyber/util/random"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/randcast-network/randcast-node/bls"
	"github.com/randcast-network/randcast-node/cache"
	"github.com/randcast-network/randcast-node/cache/memory"
	"github.com/randcast-network/randcast-node/dkg"
	"github.com/randcast-network/randcast-node/log"
	rpccommitter "github.com/randcast-network/randcast-node/rpc/committer"
	"github.com/randcast-network/randcast-node/types"
)

const testChainID = 31337

var (
	nodeA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	nodeB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	nodeC = common.HexToAddress("0x00000000000000000000000000000000000000cc")
)

type staticRouter struct {
	caches map[uint32]cache.SignatureResultCacheHandler
}

func (r *staticRouter) ResultCache(chainID uint32) (cache.SignatureResultCacheHandler, bool) {
	c, ok := r.caches[chainID]
	return c, ok
}

// fixture is one committer node (B) in a 3-member, threshold-2 ready group,
// with real BLS shares so partial verification actually runs.
type fixture struct {
	server  *Server
	results *memory.ResultCache
	shares  []*share.PriShare
	task    types.RandomnessTask
	message []byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	secret := bls.KeyGroup().Scalar().Pick(random.New())
	priPoly := share.NewPriPoly(bls.KeyGroup(), 2, secret, random.New())
	pubPoly := priPoly.Commit(bls.KeyGroup().Point().Base())
	shares := priPoly.Shares(3)

	addrs := []common.Address{nodeA, nodeB, nodeC}
	members := make([]*types.Member, len(addrs))
	partialKeys := make(map[common.Address][]byte, len(addrs))
	for i, addr := range addrs {
		members[i] = &types.Member{Index: uint32(i), IDAddress: addr}
		pk, err := pubPoly.Eval(i).V.MarshalBinary()
		require.NoError(t, err)
		partialKeys[addr] = pk
	}
	groupPub, err := pubPoly.Commit().MarshalBinary()
	require.NoError(t, err)

	group := memory.NewGroupInfoCache(nodeB)
	require.NoError(t, group.SaveTaskInfo(ctx, 1, 1, 3, 2, members, 100))
	_, err = group.UpdateDKGStatus(ctx, 1, 1, int(dkg.InPhase))
	require.NoError(t, err)
	selfShare, err := shares[1].V.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, group.SaveOutput(ctx, 1, 1, cache.DKGOutput{
		GroupPublicKey:          groupPub,
		OwnPartialPublicKey:     partialKeys[nodeB],
		MemberPartialPublicKeys: partialKeys,
	}, nodeB, selfShare))
	require.NoError(t, group.SaveCommitters(ctx, 1, 1, []common.Address{nodeB, nodeC}))

	results := memory.NewResultCache()
	task := types.RandomnessTask{
		RequestID:             []byte{0x01},
		GroupIndex:            1,
		Seed:                  big.NewInt(42),
		RequestConfirmations:  3,
		AssignmentBlockHeight: 100,
	}
	message := task.ActualSeed()
	require.NoError(t, results.Add(ctx, 1, task, message, 2))

	router := &staticRouter{caches: map[uint32]cache.SignatureResultCacheHandler{testChainID: results}}
	server := NewServer(log.DefaultLogger(), nodeB, group, router)
	return &fixture{server: server, results: results, shares: shares, task: task, message: message}
}

func (f *fixture) request(t *testing.T, sender common.Address, shareIndex int, message []byte) *rpccommitter.CommitPartialSignatureRequest {
	t.Helper()
	partial, err := bls.PartialSign(f.shares[shareIndex].V, message)
	require.NoError(t, err)
	return &rpccommitter.CommitPartialSignatureRequest{
		SenderAddress:    sender.Bytes(),
		ChainId:          testChainID,
		TaskType:         rpccommitter.TaskTypeRandomness,
		RequestId:        f.task.RequestID,
		Message:          message,
		PartialSignature: partial,
	}
}

func TestCommitPartialSignatureAccepts(t *testing.T) {
	f := newFixture(t)

	reply, err := f.server.CommitPartialSignature(context.Background(), f.request(t, nodeA, 0, f.message))
	require.NoError(t, err)
	require.True(t, reply.GetResult())

	entry, err := f.results.Get(context.Background(), f.task.RequestID)
	require.NoError(t, err)
	require.Len(t, entry.PartialSignatures, 1)
}

// Sending the same partial twice: the second call fails invalid_argument and
// the cache is unchanged.
func TestCommitPartialSignatureDeduplicates(t *testing.T) {
	f := newFixture(t)
	req := f.request(t, nodeA, 0, f.message)

	_, err := f.server.CommitPartialSignature(context.Background(), req)
	require.NoError(t, err)

	_, err = f.server.CommitPartialSignature(context.Background(), req)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	entry, err := f.results.Get(context.Background(), f.task.RequestID)
	require.NoError(t, err)
	require.Len(t, entry.PartialSignatures, 1)
}

// A partial over a message with the wrong assignment height is rejected
// before anything is recorded.
func TestCommitPartialSignatureRejectsMismatchedMessage(t *testing.T) {
	f := newFixture(t)

	crafted := f.task
	crafted.AssignmentBlockHeight = 101
	req := f.request(t, nodeA, 0, crafted.ActualSeed())

	_, err := f.server.CommitPartialSignature(context.Background(), req)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	entry, err := f.results.Get(context.Background(), f.task.RequestID)
	require.NoError(t, err)
	require.Empty(t, entry.PartialSignatures)
}

func TestCommitPartialSignatureRejectsForgedPartial(t *testing.T) {
	f := newFixture(t)

	// A signs with its own share but claims to be C.
	req := f.request(t, nodeC, 0, f.message)
	_, err := f.server.CommitPartialSignature(context.Background(), req)
	require.Equal(t, codes.Internal, status.Code(err))
}

func TestCommitPartialSignatureRejectsNonMember(t *testing.T) {
	f := newFixture(t)
	req := f.request(t, nodeA, 0, f.message)
	req.SenderAddress = common.HexToAddress("0x00000000000000000000000000000000000000ee").Bytes()

	_, err := f.server.CommitPartialSignature(context.Background(), req)
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestCommitPartialSignatureRejectsUnknownChain(t *testing.T) {
	f := newFixture(t)
	req := f.request(t, nodeA, 0, f.message)
	req.ChainId = 999

	_, err := f.server.CommitPartialSignature(context.Background(), req)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestCommitPartialSignatureRejectsUnknownTaskType(t *testing.T) {
	f := newFixture(t)
	req := f.request(t, nodeA, 0, f.message)
	req.TaskType = rpccommitter.TaskTypeGroupRelay

	_, err := f.server.CommitPartialSignature(context.Background(), req)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestCommitPartialSignatureRejectsUnderivedTask(t *testing.T) {
	f := newFixture(t)
	req := f.request(t, nodeA, 0, f.message)
	req.RequestId = []byte{0x99}

	_, err := f.server.CommitPartialSignature(context.Background(), req)
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestCommitPartialSignatureRequiresReadyGroup(t *testing.T) {
	group := memory.NewGroupInfoCache(nodeB)
	router := &staticRouter{caches: map[uint32]cache.SignatureResultCacheHandler{testChainID: memory.NewResultCache()}}
	server := NewServer(log.DefaultLogger(), nodeB, group, router)

	_, err := server.CommitPartialSignature(context.Background(), &rpccommitter.CommitPartialSignatureRequest{
		SenderAddress: nodeA.Bytes(),
		ChainId:       testChainID,
		RequestId:     []byte{0x01},
	})
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestCommitPartialSignatureRequiresBeingCommitter(t *testing.T) {
	f := newFixture(t)
	// Rebuild the server as node A, a member but not a committer.
	notCommitter := NewServer(log.DefaultLogger(), nodeA, f.serverGroup(), f.serverRouter())

	_, err := notCommitter.CommitPartialSignature(context.Background(), f.request(t, nodeC, 2, f.message))
	require.Equal(t, codes.NotFound, status.Code(err))
}

func (f *fixture) serverGroup() cache.GroupInfoHandler { return f.server.group }
func (f *fixture) serverRouter() ChainRouter           { return f.server.router }
