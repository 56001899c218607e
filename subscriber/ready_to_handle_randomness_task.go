package subscriber

import (
	"context"

	"github.com/drand/kyber"
	"github.com/ethereum/go-ethereum/common"

	"github.com/randcast-network/randcast-node/bls"
	"github.com/randcast-network/randcast-node/cache"
	"github.com/randcast-network/randcast-node/committer"
	"github.com/randcast-network/randcast-node/eventbus"
	"github.com/randcast-network/randcast-node/log"
	"github.com/randcast-network/randcast-node/retry"
	rpccommitter "github.com/randcast-network/randcast-node/rpc/committer"
	"github.com/randcast-network/randcast-node/scheduler"
	"github.com/randcast-network/randcast-node/types"
)

// PartialSender gossips one partial signature to a peer committer endpoint.
// Satisfied by *committer.Client; narrowed here so tests can fake the wire.
type PartialSender interface {
	CommitPartialSignature(ctx context.Context, rd retry.Descriptor, endpoint string,
		req *rpccommitter.CommitPartialSignatureRequest) error
}

var _ PartialSender = (*committer.Client)(nil)

// NewReadyToHandleRandomnessTaskSubscriber signs every task handed to this
// node and routes the partials (spec.md §4.5 "ReadyToHandleRandomnessTask"):
// deposit into the local result cache when this node is itself a committer,
// and one SendingPartialSignature dynamic task per peer committer, each with
// its own exponential-backoff retry.
func NewReadyToHandleRandomnessTaskSubscriber(
	l log.Logger,
	chainID uint32,
	selfAddr common.Address,
	group cache.GroupInfoHandler,
	results cache.SignatureResultCacheHandler,
	sender PartialSender,
	dts *scheduler.DynamicTaskScheduler,
	rd retry.Descriptor,
) eventbus.Handler {
	l = l.Named("subscriber-ready-to-handle").With("chain_id", chainID)
	return func(ctx context.Context, event eventbus.Event) {
		ev, ok := event.(eventbus.ReadyToHandleRandomnessTaskEvent)
		if !ok || ev.ChainID != chainID {
			return
		}

		shareBytes, err := group.GetSecretShare(ctx)
		if err != nil {
			l.Errorw("no secret share available, dropping tasks", "count", len(ev.Tasks), "err", err)
			return
		}
		secretShare, err := bls.UnmarshalSecretShare(shareBytes)
		if err != nil {
			l.Errorw("failed to decode secret share", "err", err)
			return
		}
		groupIndex, err := group.GetIndex(ctx)
		if err != nil {
			return
		}
		threshold, err := group.GetThreshold(ctx)
		if err != nil {
			return
		}
		committers, err := group.GetCommitters(ctx)
		if err != nil {
			return
		}

		for _, task := range ev.Tasks {
			handleTask(ctx, l, chainID, selfAddr, group, results, sender, dts, rd,
				task, secretShare, groupIndex, threshold, committers)
		}
	}
}

func handleTask(
	ctx context.Context,
	l log.Logger,
	chainID uint32,
	selfAddr common.Address,
	group cache.GroupInfoHandler,
	results cache.SignatureResultCacheHandler,
	sender PartialSender,
	dts *scheduler.DynamicTaskScheduler,
	rd retry.Descriptor,
	task *types.RandomnessTask,
	secretShare kyber.Scalar,
	groupIndex, threshold uint32,
	committers []common.Address,
) {
	message := task.ActualSeed()
	partial, err := bls.PartialSign(secretShare, message)
	if err != nil {
		l.Errorw("partial_sign failed", "request_id", task.RequestIDHex(), "err", err)
		return
	}
	l.Infow("signed randomness task", "request_id", task.RequestIDHex(),
		"assignment_block", task.AssignmentBlockHeight)

	if containsAddress(committers, selfAddr) {
		if err := results.Add(ctx, groupIndex, *task, message, threshold); err != nil {
			l.Errorw("failed to open result cache entry", "request_id", task.RequestIDHex(), "err", err)
			return
		}
		if _, err := results.AddPartialSignature(ctx, task.RequestID, selfAddr, partial); err != nil {
			l.Errorw("failed to deposit own partial", "request_id", task.RequestIDHex(), "err", err)
		}
	}

	req := &rpccommitter.CommitPartialSignatureRequest{
		SenderAddress:    selfAddr.Bytes(),
		ChainId:          chainID,
		TaskType:         rpccommitter.TaskTypeRandomness,
		RequestId:        task.RequestID,
		Message:          message,
		PartialSignature: partial,
	}
	for _, c := range committers {
		if c == selfAddr {
			continue
		}
		member, err := group.GetMember(ctx, c)
		if err != nil || member.RPCEndpoint == "" {
			l.Warnw("committer has no reachable endpoint", "committer", c.Hex())
			continue
		}
		endpoint := member.RPCEndpoint
		peer := c
		dts.AddTask(ctx, func(ctx context.Context) error {
			if err := sender.CommitPartialSignature(ctx, rd, endpoint, req); err != nil {
				l.Warnw("failed to deliver partial signature",
					"request_id", task.RequestIDHex(), "committer", peer.Hex(), "err", err)
				return err
			}
			l.Debugw("delivered partial signature",
				"request_id", task.RequestIDHex(), "committer", peer.Hex())
			return nil
		})
	}
}

func containsAddress(list []common.Address, addr common.Address) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}
