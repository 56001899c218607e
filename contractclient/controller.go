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

// GroupView is the controller's on-chain view of a group, spec.md §6's
// `get_group(index) -> Group`.
type GroupView struct {
	Index      uint32
	Epoch      uint32
	Size       uint32
	Threshold  uint32
	IsReady    bool
	PublicKey  []byte
	Members    []common.Address
	Committers []common.Address
}

// NodeView is the controller's on-chain view of a registered node.
type NodeView struct {
	IDAddress         common.Address
	DKGPublicKey      []byte
	State             bool
	PendingUntilBlock *big.Int
}

// DKGTaskLog is the decoded `DKGTask` event (spec.md §6).
type DKGTaskLog struct {
	GroupIndex         uint32
	Epoch              uint32
	Size               uint32
	Threshold          uint32
	Members            []common.Address
	CoordinatorAddress common.Address
	BlockNumber        *big.Int
}

// ControllerClient wraps the controller contract's transactions, views, and
// DKGTask log subscription (spec.md §6), retrying every call with
// exponential backoff (spec.md §5) since it is the node's gateway to the
// group-formation anchor chain.
type ControllerClient struct {
	address common.Address
	backend bind.ContractBackend
	contract *bind.BoundContract
	log     log.Logger
	clock   clockwork.Clock
	retry   retry.Descriptor
}

// NewControllerClient binds address on backend using the trimmed ABI in abi.go.
func NewControllerClient(
	address common.Address,
	backend bind.ContractBackend,
	l log.Logger,
	clock clockwork.Clock,
	rd retry.Descriptor,
) (*ControllerClient, error) {
	parsed, err := abi.JSON(strings.NewReader(controllerABI))
	if err != nil {
		return nil, err
	}
	return &ControllerClient{
		address:  address,
		backend:  backend,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		log:      l.Named("controller-client"),
		clock:    clock,
		retry:    rd,
	}, nil
}

// NodeRegister submits node_register(id_public_key).
func (c *ControllerClient) NodeRegister(ctx context.Context, opts *bind.TransactOpts, idPublicKey []byte) (*types.Transaction, error) {
	var tx *types.Transaction
	err := retry.Do(ctx, c.clock, c.retry, func(ctx context.Context) error {
		t, err := c.contract.Transact(opts, "nodeRegister", idPublicKey)
		if err != nil {
			return err
		}
		tx = t
		return nil
	})
	return tx, err
}

// CommitDKG submits commit_dkg(group_index, epoch, group_public_key, own_partial_public_key, disqualified_nodes).
func (c *ControllerClient) CommitDKG(
	ctx context.Context,
	opts *bind.TransactOpts,
	groupIndex, epoch uint32,
	groupPublicKey, ownPartialPublicKey []byte,
	disqualified []common.Address,
) (*types.Transaction, error) {
	var tx *types.Transaction
	err := retry.Do(ctx, c.clock, c.retry, func(ctx context.Context) error {
		t, err := c.contract.Transact(opts, "commitDkg", groupIndex, epoch, groupPublicKey, ownPartialPublicKey, disqualified)
		if err != nil {
			return err
		}
		tx = t
		return nil
	})
	return tx, err
}

// PostProcessDKG submits post_process_dkg(group_index, epoch).
func (c *ControllerClient) PostProcessDKG(ctx context.Context, opts *bind.TransactOpts, groupIndex, epoch uint32) (*types.Transaction, error) {
	var tx *types.Transaction
	err := retry.Do(ctx, c.clock, c.retry, func(ctx context.Context) error {
		t, err := c.contract.Transact(opts, "postProcessDkg", groupIndex, epoch)
		if err != nil {
			return err
		}
		tx = t
		return nil
	})
	return tx, err
}

// GetGroup reads get_group(index) -> Group.
func (c *ControllerClient) GetGroup(ctx context.Context, opts *bind.CallOpts, index uint32) (*GroupView, error) {
	var out []interface{}
	err := retry.Do(ctx, c.clock, c.retry, func(ctx context.Context) error {
		o := *opts
		o.Context = ctx
		results := make([]interface{}, 1)
		results[0] = new(GroupView)
		if callErr := c.contract.Call(&o, &results, "getGroup", index); callErr != nil {
			return callErr
		}
		out = results
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out[0].(*GroupView), nil
}

// GetNode reads get_node(address) -> Node.
func (c *ControllerClient) GetNode(ctx context.Context, opts *bind.CallOpts, nodeAddress common.Address) (*NodeView, error) {
	var out []interface{}
	err := retry.Do(ctx, c.clock, c.retry, func(ctx context.Context) error {
		o := *opts
		o.Context = ctx
		results := make([]interface{}, 1)
		results[0] = new(NodeView)
		if callErr := c.contract.Call(&o, &results, "getNode", nodeAddress); callErr != nil {
			return callErr
		}
		out = results
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out[0].(*NodeView), nil
}

// GetCoordinator reads get_coordinator(group_index) -> address.
func (c *ControllerClient) GetCoordinator(ctx context.Context, opts *bind.CallOpts, groupIndex uint32) (common.Address, error) {
	var addr common.Address
	err := retry.Do(ctx, c.clock, c.retry, func(ctx context.Context) error {
		o := *opts
		o.Context = ctx
		results := make([]interface{}, 1)
		results[0] = new(common.Address)
		if callErr := c.contract.Call(&o, &results, "getCoordinator", groupIndex); callErr != nil {
			return callErr
		}
		addr = *(results[0].(*common.Address))
		return nil
	})
	return addr, err
}

// WatchDKGTask streams decoded DKGTask events starting at opts.Start.
func (c *ControllerClient) WatchDKGTask(opts *bind.WatchOpts) (<-chan *DKGTaskLog, error) {
	logs, sub, err := c.contract.WatchLogs(opts, "DKGTask")
	if err != nil {
		return nil, err
	}
	out := make(chan *DKGTaskLog)
	go func() {
		defer close(out)
		defer sub.Unsubscribe()
		for {
			select {
			case err := <-sub.Err():
				if err != nil {
					c.log.Errorw("DKGTask subscription error", "err", err)
				}
				return
			case raw, ok := <-logs:
				if !ok {
					return
				}
				var decoded DKGTaskLog
				if err := c.contract.UnpackLog(&decoded, "DKGTask", raw); err != nil {
					c.log.Errorw("failed to unpack DKGTask log", "err", err)
					continue
				}
				out <- &decoded
			}
		}
	}()
	return out, nil
}
