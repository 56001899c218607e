package subscriber

import (
	"context"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/randcast-network/randcast-node/bls"
	"github.com/randcast-network/randcast-node/cache"
	"github.com/randcast-network/randcast-node/eventbus"
	"github.com/randcast-network/randcast-node/log"
	"github.com/randcast-network/randcast-node/metrics"
	"github.com/randcast-network/randcast-node/scheduler"
	"github.com/randcast-network/randcast-node/types"
)

// RandomnessAdapter is the slice of the adapter contract the fulfillment
// path needs.
type RandomnessAdapter interface {
	IsTaskPending(ctx context.Context, opts *bind.CallOpts, requestID [32]byte) (bool, error)
	FulfillRandomness(ctx context.Context, opts *bind.TransactOpts, groupIndex uint32,
		requestID [32]byte, signature []byte, partialSignatures [][]byte) (*ethtypes.Transaction, error)
}

// GasPriceReader reads the chain's current gas price, for the task's
// callback_max_gas_price gate.
type GasPriceReader interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// ReceiptWaiter blocks until a submitted transaction is mined. Satisfied by
// *ethclient.Client through bind.WaitMined.
type ReceiptWaiter interface {
	bind.DeployBackend
}

// NewSignatureAggregationSubscriber aggregates each ready cache entry into
// the group signature and attempts on-chain fulfillment (spec.md §4.5
// "RandomnessSignatureAggregation"). Entries arrive in state committing;
// every exit path moves them to committed, committed_by_others, or back to
// not_committed, so no entry is ever stranded mid-flight.
func NewSignatureAggregationSubscriber(
	l log.Logger,
	chainID uint32,
	signer *bind.TransactOpts,
	group cache.GroupInfoHandler,
	results cache.SignatureResultCacheHandler,
	adapter RandomnessAdapter,
	gas GasPriceReader,
	backend ReceiptWaiter,
	dts *scheduler.DynamicTaskScheduler,
) eventbus.Handler {
	l = l.Named("subscriber-signature-aggregation").With("chain_id", chainID)
	return func(ctx context.Context, event eventbus.Event) {
		ev, ok := event.(eventbus.ReadyToFulfillRandomnessTaskEvent)
		if !ok || ev.ChainID != chainID {
			return
		}
		for _, requestID := range ev.RequestIDs {
			entry, err := results.Get(ctx, requestID)
			if err != nil {
				l.Errorw("ready entry vanished from result cache",
					"request_id", common.Bytes2Hex(requestID), "err", err)
				continue
			}
			aggregateAndFulfill(ctx, l, chainID, signer, group, results, adapter, gas, backend, dts, entry)
		}
	}
}

func aggregateAndFulfill(
	ctx context.Context,
	l log.Logger,
	chainID uint32,
	signer *bind.TransactOpts,
	group cache.GroupInfoHandler,
	results cache.SignatureResultCacheHandler,
	adapter RandomnessAdapter,
	gas GasPriceReader,
	backend ReceiptWaiter,
	dts *scheduler.DynamicTaskScheduler,
	entry *types.SignatureResultCache,
) {
	chainLabel := strconv.FormatUint(uint64(chainID), 10)
	requestID := entry.Task.RequestID
	revert := func(reason string, err error) {
		l.Warnw("reverting entry to not_committed", "request_id", entry.Task.RequestIDHex(),
			"reason", reason, "err", err)
		metrics.FulfillmentResults.WithLabelValues(chainLabel, "reverted").Inc()
		if uerr := results.UpdateCommitResult(ctx, requestID, types.NotCommitted); uerr != nil {
			l.Errorw("failed to revert commit state", "request_id", entry.Task.RequestIDHex(), "err", uerr)
		}
	}

	signature, orderedPartials, err := aggregateEntry(ctx, group, entry)
	if err != nil {
		revert("aggregation failed", err)
		return
	}

	groupPublicKey, err := group.GetPublicKey(ctx)
	if err == nil && len(groupPublicKey) > 0 {
		pub, perr := bls.UnmarshalPublicKey(groupPublicKey)
		if perr == nil {
			if verr := bls.Verify(pub, entry.Message, signature); verr != nil {
				revert("aggregated signature failed group verification", verr)
				return
			}
		}
	}
	l.Infow("aggregated group signature", "request_id", entry.Task.RequestIDHex(),
		"partials", len(orderedPartials))

	var rid [32]byte
	copy(rid[:], requestID)
	groupIndex := entry.GroupIndex
	task := entry.Task

	dts.AddTask(ctx, func(ctx context.Context) error {
		pending, err := adapter.IsTaskPending(ctx, &bind.CallOpts{Context: ctx}, rid)
		if err != nil {
			revert("is_task_pending failed", err)
			return err
		}
		if !pending {
			l.Infow("task already fulfilled by another committer", "request_id", task.RequestIDHex())
			metrics.FulfillmentResults.WithLabelValues(chainLabel, "committed_by_others").Inc()
			if err := results.UpdateCommitResult(ctx, requestID, types.CommittedByOthers); err != nil {
				return err
			}
			return nil
		}

		if task.CallbackMaxGasPrice != nil && task.CallbackMaxGasPrice.Sign() > 0 {
			price, err := gas.SuggestGasPrice(ctx)
			if err != nil {
				revert("gas price read failed", err)
				return err
			}
			if price.Cmp(task.CallbackMaxGasPrice) > 0 {
				l.Warnw("gas price above task limit, skipping this cycle",
					"request_id", task.RequestIDHex(),
					"gas_price", price, "callback_max_gas_price", task.CallbackMaxGasPrice)
				return results.UpdateCommitResult(ctx, requestID, types.NotCommitted)
			}
		}

		tx, err := adapter.FulfillRandomness(ctx, signer, groupIndex, rid, signature, orderedPartials)
		if err != nil {
			revert("fulfill_randomness submission failed", err)
			return err
		}
		receipt, err := bind.WaitMined(ctx, backend, tx)
		if err != nil {
			revert("fulfill_randomness receipt wait failed", err)
			return err
		}
		if receipt.Status != ethtypes.ReceiptStatusSuccessful {
			revert("fulfill_randomness reverted on chain", nil)
			return nil
		}

		metrics.FulfillmentResults.WithLabelValues(chainLabel, "committed").Inc()
		if err := results.UpdateCommitResult(ctx, requestID, types.Committed); err != nil {
			return err
		}
		if err := results.IncrCommittedTimes(ctx, requestID); err != nil {
			return err
		}
		l.Infow("randomness fulfilled on chain", "request_id", task.RequestIDHex(),
			"tx", tx.Hash().Hex())
		return nil
	})
}

// aggregateEntry recombines the entry's partials into the group signature
// and returns them in arrival order for the fulfill payload.
func aggregateEntry(
	ctx context.Context,
	group cache.GroupInfoHandler,
	entry *types.SignatureResultCache,
) ([]byte, [][]byte, error) {
	size, err := group.GetSize(ctx)
	if err != nil {
		return nil, nil, err
	}

	addrs := entry.OrderedPartialSignatures()
	partials := make([]bls.PartialSignature, 0, len(addrs))
	raw := make([][]byte, 0, len(addrs))
	for _, addr := range addrs {
		member, err := group.GetMember(ctx, addr)
		if err != nil {
			return nil, nil, err
		}
		sig := entry.PartialSignatures[addr]
		partials = append(partials, bls.PartialSignature{Index: int(member.Index), Signature: sig})
		raw = append(raw, sig)
	}

	signature, err := bls.Aggregate(int(entry.Threshold), int(size), partials)
	if err != nil {
		return nil, nil, err
	}
	return signature, raw, nil
}
