package contractclient

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	clockwork "github.com/jonboulle/clockwork"

	"github.com/randcast-network/randcast-node/log"
	"github.com/randcast-network/randcast-node/retry"
)

// RandomnessRequestLog is the decoded `RandomnessRequest` event (spec.md §6).
type RandomnessRequestLog struct {
	RequestID            [32]byte
	Sender               common.Address
	SubID                uint64
	Seed                 *big.Int
	RequestConfirmations uint16
	CallbackGasLimit     uint32
	CallbackMaxGasPrice  *big.Int
	GroupIndex           uint32

	// BlockNumber is the height the request log landed at, filled from the
	// raw log rather than the event payload. It becomes the task's
	// assignment block height.
	BlockNumber uint64
}

// AdapterClient wraps the per-chain randomness adapter contract (spec.md
// §6): `fulfill_randomness`, `is_task_pending`, and the `RandomnessRequest`
// log subscription that seeds the NewRandomnessTask listener.
type AdapterClient struct {
	address  common.Address
	contract *bind.BoundContract
	log      log.Logger
	clock    clockwork.Clock
	retry    retry.Descriptor
}

// NewAdapterClient binds address on backend using the trimmed ABI in abi.go.
func NewAdapterClient(
	address common.Address,
	backend bind.ContractBackend,
	l log.Logger,
	clock clockwork.Clock,
	rd retry.Descriptor,
) (*AdapterClient, error) {
	parsed, err := abi.JSON(strings.NewReader(adapterABI))
	if err != nil {
		return nil, err
	}
	return &AdapterClient{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		log:      l.Named("adapter-client"),
		clock:    clock,
		retry:    rd,
	}, nil
}

// FulfillRandomness submits the aggregated group signature back on-chain.
func (c *AdapterClient) FulfillRandomness(
	ctx context.Context,
	opts *bind.TransactOpts,
	groupIndex uint32,
	requestID [32]byte,
	signature []byte,
	partialSignatures [][]byte,
) (*types.Transaction, error) {
	var tx *types.Transaction
	err := retry.Do(ctx, c.clock, c.retry, func(ctx context.Context) error {
		t, err := c.contract.Transact(opts, "fulfillRandomness", groupIndex, requestID, signature, partialSignatures)
		if err != nil {
			return err
		}
		tx = t
		return nil
	})
	return tx, err
}

// IsTaskPending reports whether requestID is still awaiting fulfillment.
func (c *AdapterClient) IsTaskPending(ctx context.Context, opts *bind.CallOpts, requestID [32]byte) (bool, error) {
	var pending bool
	err := retry.Do(ctx, c.clock, c.retry, func(ctx context.Context) error {
		o := *opts
		o.Context = ctx
		results := make([]interface{}, 1)
		results[0] = new(bool)
		if callErr := c.contract.Call(&o, &results, "isTaskPending", requestID); callErr != nil {
			return callErr
		}
		pending = *(results[0].(*bool))
		return nil
	})
	return pending, err
}

// WatchRandomnessRequest streams decoded RandomnessRequest events starting
// at opts.Start.
func (c *AdapterClient) WatchRandomnessRequest(opts *bind.WatchOpts) (<-chan *RandomnessRequestLog, error) {
	logs, sub, err := c.contract.WatchLogs(opts, "RandomnessRequest")
	if err != nil {
		return nil, err
	}
	out := make(chan *RandomnessRequestLog)
	go func() {
		defer close(out)
		defer sub.Unsubscribe()
		for {
			select {
			case err := <-sub.Err():
				if err != nil {
					c.log.Errorw("RandomnessRequest subscription error", "err", err)
				}
				return
			case raw, ok := <-logs:
				if !ok {
					return
				}
				var decoded RandomnessRequestLog
				if err := c.contract.UnpackLog(&decoded, "RandomnessRequest", raw); err != nil {
					c.log.Errorw("failed to unpack RandomnessRequest log", "err", err)
					continue
				}
				decoded.BlockNumber = raw.BlockNumber
				out <- &decoded
			}
		}
	}()
	return out, nil
}
