package contractclient

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	clockwork "github.com/jonboulle/clockwork"

	"github.com/randcast-network/randcast-node/log"
	"github.com/randcast-network/randcast-node/retry"
)

// CoordinatorClient wraps one group's ephemeral DKG coordinator contract
// (spec.md §6): `publish` plus the four phase-state views the in_grouping
// subscriber polls while waiting for a phase to advance.
type CoordinatorClient struct {
	address  common.Address
	contract *bind.BoundContract
	log      log.Logger
	clock    clockwork.Clock
	retry    retry.Descriptor
}

// NewCoordinatorClient binds address on backend using the trimmed ABI in abi.go.
func NewCoordinatorClient(
	address common.Address,
	backend bind.ContractBackend,
	l log.Logger,
	clock clockwork.Clock,
	rd retry.Descriptor,
) (*CoordinatorClient, error) {
	parsed, err := abi.JSON(strings.NewReader(coordinatorABI))
	if err != nil {
		return nil, err
	}
	return &CoordinatorClient{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		log:      l.Named("coordinator-client"),
		clock:    clock,
		retry:    rd,
	}, nil
}

// Publish submits one DKG board message (a share, response, or
// justification bundle — the cryptographic content is opaque to this layer,
// per spec.md §1's "DKG cryptographic primitives... out of scope").
func (c *CoordinatorClient) Publish(ctx context.Context, opts *bind.TransactOpts, value []byte) (*types.Transaction, error) {
	var tx *types.Transaction
	err := retry.Do(ctx, c.clock, c.retry, func(ctx context.Context) error {
		t, err := c.contract.Transact(opts, "publish", value)
		if err != nil {
			return err
		}
		tx = t
		return nil
	})
	return tx, err
}

// InPhase reads the coordinator's current DKG phase index. Negative means
// the DKG round has ended (either successfully or by timeout).
func (c *CoordinatorClient) InPhase(ctx context.Context, opts *bind.CallOpts) (int8, error) {
	var phase int8
	err := retry.Do(ctx, c.clock, c.retry, func(ctx context.Context) error {
		o := *opts
		o.Context = ctx
		results := make([]interface{}, 1)
		results[0] = new(int8)
		if callErr := c.contract.Call(&o, &results, "inPhase"); callErr != nil {
			return callErr
		}
		phase = *(results[0].(*int8))
		return nil
	})
	return phase, err
}

func (c *CoordinatorClient) getBytesSlice(ctx context.Context, opts *bind.CallOpts, method string) ([][]byte, error) {
	var out [][]byte
	err := retry.Do(ctx, c.clock, c.retry, func(ctx context.Context) error {
		o := *opts
		o.Context = ctx
		results := make([]interface{}, 1)
		results[0] = new([][]byte)
		if callErr := c.contract.Call(&o, &results, method); callErr != nil {
			return callErr
		}
		out = *(results[0].(*[][]byte))
		return nil
	})
	return out, err
}

// GetShares returns every publish()-ed share bundle so far.
func (c *CoordinatorClient) GetShares(ctx context.Context, opts *bind.CallOpts) ([][]byte, error) {
	return c.getBytesSlice(ctx, opts, "getShares")
}

// GetResponses returns every publish()-ed response bundle so far.
func (c *CoordinatorClient) GetResponses(ctx context.Context, opts *bind.CallOpts) ([][]byte, error) {
	return c.getBytesSlice(ctx, opts, "getResponses")
}

// GetJustifications returns every publish()-ed justification bundle so far.
func (c *CoordinatorClient) GetJustifications(ctx context.Context, opts *bind.CallOpts) ([][]byte, error) {
	return c.getBytesSlice(ctx, opts, "getJustifications")
}

// GetDKGKeys returns every participant's ephemeral DKG public key.
func (c *CoordinatorClient) GetDKGKeys(ctx context.Context, opts *bind.CallOpts) ([][]byte, error) {
	return c.getBytesSlice(ctx, opts, "getDkgKeys")
}

// GetParticipants returns the group's addresses in coordinator index order.
func (c *CoordinatorClient) GetParticipants(ctx context.Context, opts *bind.CallOpts) ([]common.Address, error) {
	var out []common.Address
	err := retry.Do(ctx, c.clock, c.retry, func(ctx context.Context) error {
		o := *opts
		o.Context = ctx
		results := make([]interface{}, 1)
		results[0] = new([]common.Address)
		if callErr := c.contract.Call(&o, &results, "getParticipants"); callErr != nil {
			return callErr
		}
		out = *(results[0].(*[]common.Address))
		return nil
	})
	return out, err
}
