// Package committer implements C8 of spec.md's component table: the
// node-to-node partial-signature exchange. Server validates an incoming
// partial through the nine ordered checks of spec.md §4.6 and deposits it
// into the addressed chain's result cache; Client gossips this node's own
// partial to every peer committer with exponential-backoff retry.
package committer

import (
	"bytes"
	"context"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/randcast-network/randcast-node/bls"
	"github.com/randcast-network/randcast-node/cache"
	"github.com/randcast-network/randcast-node/errs"
	"github.com/randcast-network/randcast-node/log"
	"github.com/randcast-network/randcast-node/metrics"
	rpccommitter "github.com/randcast-network/randcast-node/rpc/committer"
	"github.com/randcast-network/randcast-node/types"
)

// ChainRouter resolves a chain_id to that chain's result cache (spec.md
// §4.8); the main chain and every relayed chain each own one.
type ChainRouter interface {
	ResultCache(chainID uint32) (cache.SignatureResultCacheHandler, bool)
}

// Server implements rpc/committer.CommitterServiceServer.
type Server struct {
	rpccommitter.UnimplementedCommitterServiceServer

	log      log.Logger
	selfAddr common.Address
	group    cache.GroupInfoHandler
	router   ChainRouter
}

// NewServer returns a committer RPC server bound to group and router.
// selfAddr identifies this node for the "are we a committer" check.
func NewServer(l log.Logger, selfAddr common.Address, group cache.GroupInfoHandler, router ChainRouter) *Server {
	return &Server{
		log:      l.Named("committer-server"),
		selfAddr: selfAddr,
		group:    group,
		router:   router,
	}
}

// CommitPartialSignature runs the nine-step validation of spec.md §4.6.
func (s *Server) CommitPartialSignature(
	ctx context.Context,
	req *rpccommitter.CommitPartialSignatureRequest,
) (*rpccommitter.CommitPartialSignatureReply, error) {
	// 1. local group must be ready.
	state, err := s.group.GetState(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if state != types.GroupReady {
		return nil, status.Error(codes.NotFound, errs.ErrGroupNotReady.Error())
	}

	// 2. local node must itself be a committer.
	committers, err := s.group.GetCommitters(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if !isCommitter(committers, s.selfAddr) {
		return nil, status.Error(codes.NotFound, errs.ErrNotCommitter.Error())
	}

	// 3. sender must be a group member.
	sender := common.BytesToAddress(req.GetSenderAddress())
	member, err := s.group.GetMember(ctx, sender)
	if err != nil {
		return nil, status.Error(codes.NotFound, errs.ErrMemberNotExist.Error())
	}

	// 4. partial signature must verify against the sender's partial public key.
	senderKey, err := bls.UnmarshalPublicKey(member.PartialPublicKey)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if err := bls.PartialVerify(senderKey, req.GetMessage(), req.GetPartialSignature()); err != nil {
		return nil, status.Error(codes.Internal, errs.ErrInvalidPartialSignature.Error())
	}

	// 5. only Randomness is accepted today.
	if req.GetTaskType() != rpccommitter.TaskTypeRandomness {
		return nil, status.Error(codes.InvalidArgument, errs.ErrInvalidTaskType.Error())
	}

	// 6. route to the per-chain result cache.
	resultCache, ok := s.router.ResultCache(req.GetChainId())
	if !ok {
		return nil, status.Error(codes.InvalidArgument, errs.ErrInvalidChainID.Error())
	}

	// 7. this committer must have already derived the task's message itself.
	exists, err := resultCache.Contains(ctx, req.GetRequestId())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if !exists {
		return nil, status.Error(codes.NotFound, errs.ErrCommitterCacheNotExisted.Error())
	}

	// 8. the message must match this committer's own derivation.
	entry, err := resultCache.Get(ctx, req.GetRequestId())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if !bytes.Equal(entry.Message, req.GetMessage()) {
		return nil, status.Error(codes.InvalidArgument, errs.ErrInvalidTaskMessage.Error())
	}

	// 9. record the partial, idempotent per (request_id, address).
	added, err := resultCache.AddPartialSignature(ctx, req.GetRequestId(), sender, req.GetPartialSignature())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if !added {
		return nil, status.Error(codes.InvalidArgument, errs.ErrAlreadyCommittedPartialSig.Error())
	}

	metrics.PartialSignaturesAccepted.WithLabelValues(strconv.FormatUint(uint64(req.GetChainId()), 10)).Inc()
	s.log.Debugw("recorded partial signature", "request_id", entry.Task.RequestIDHex(), "sender", sender.Hex())
	return &rpccommitter.CommitPartialSignatureReply{Result: true}, nil
}

func isCommitter(committers []common.Address, addr common.Address) bool {
	for _, c := range committers {
		if c == addr {
			return true
		}
	}
	return false
}
