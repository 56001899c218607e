// Package cache declares the persistence contracts spec.md §4.3 requires the
// node to be given (NodeInfoHandler, GroupInfoHandler, BLSTasksHandler,
// SignatureResultCacheHandler) and provides two implementations: an
// in-memory one (package memory) used by `demo`, and a bbolt-backed one
// (package boltcache) used by `new-run`/`re-run`. The on-disk driver itself
// is out of spec; only these contracts are.
package cache

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/randcast-network/randcast-node/types"
)

// NodeInfoHandler is this node's own identity store.
type NodeInfoHandler interface {
	GetIDAddress(ctx context.Context) (common.Address, error)
	GetRPCEndpoint(ctx context.Context) (string, error)
	GetDKGPrivateKey(ctx context.Context) ([]byte, error)
	GetDKGPublicKey(ctx context.Context) ([]byte, error)

	SetIDAddress(ctx context.Context, addr common.Address) error
	SetRPCEndpoint(ctx context.Context, endpoint string) error
	SetDKGKeyPair(ctx context.Context, keyPair *types.DKGKeyPair) error
}

// DKGOutput is the result of a completed DKG round, handed to
// GroupInfoHandler.SaveOutput by the in_grouping subscriber.
type DKGOutput struct {
	GroupPublicKey          []byte
	OwnPartialPublicKey     []byte
	MemberPartialPublicKeys map[common.Address][]byte
	MemberRPCEndpoints      map[common.Address]string
	DisqualifiedAddresses   []common.Address
}

// GroupInfoHandler is the shared, read-heavy group-membership store. All
// mutating operations are guarded by (index, epoch) equality: a mutation
// targeting a stale generation fails with ErrGroupIndexObsolete /
// ErrGroupEpochObsolete; a mutation on an already-ready group fails with
// ErrGroupAlreadyReady.
type GroupInfoHandler interface {
	GetGroup(ctx context.Context) (*types.Group, error)
	GetIndex(ctx context.Context) (uint32, error)
	GetEpoch(ctx context.Context) (uint32, error)
	GetSize(ctx context.Context) (uint32, error)
	GetThreshold(ctx context.Context) (uint32, error)
	GetState(ctx context.Context) (types.GroupState, error)
	GetSelfIndex(ctx context.Context) (uint32, error)
	GetPublicKey(ctx context.Context) ([]byte, error)
	GetSecretShare(ctx context.Context) ([]byte, error)
	GetMembers(ctx context.Context) ([]*types.Member, error)
	GetMember(ctx context.Context, addr common.Address) (*types.Member, error)
	GetCommitters(ctx context.Context) ([]common.Address, error)
	GetDKGStatus(ctx context.Context) (int, error)
	GetDKGStartBlockHeight(ctx context.Context) (uint64, error)

	// SaveTaskInfo adopts a new (index, epoch, size, threshold, members) as
	// the pending DKG task, resetting DKGStatus to none on a genuinely new
	// task (bumped epoch/index).
	SaveTaskInfo(ctx context.Context, index, epoch, size, threshold uint32, members []*types.Member, startBlockHeight uint64) error
	// SaveOutput commits a completed DKG round's key material. Can only
	// occur while DKGStatus == InPhase.
	SaveOutput(ctx context.Context, index, epoch uint32, output DKGOutput, selfAddr common.Address, secretShare []byte) error
	// SaveCommitters sets the group's committer list and transitions
	// State -> ready. Can only occur after a successful SaveOutput and
	// before the group is already ready.
	SaveCommitters(ctx context.Context, index, epoch uint32, committers []common.Address) error
	// UpdateDKGStatus advances the DKG state machine; see package dkg.
	UpdateDKGStatus(ctx context.Context, index, epoch uint32, status int) (bool, error)
}

// BLSTasksHandler stores pending randomness tasks.
type BLSTasksHandler interface {
	Contains(ctx context.Context, requestID []byte) (bool, error)
	Get(ctx context.Context, requestID []byte) (*types.RandomnessTask, error)
	Add(ctx context.Context, task *types.RandomnessTask) error
	IsHandled(ctx context.Context, requestID []byte) (bool, error)
	// CheckAndGetAvailableTasks atomically selects, marks handled=true, and
	// returns tasks whose group_index == currentGroupIndex, OR whose
	// currentBlockHeight > assignment_block_height + exclusiveWindow. A
	// returned task is never returned again by this node.
	CheckAndGetAvailableTasks(ctx context.Context, currentBlockHeight uint64, currentGroupIndex uint32, exclusiveWindow uint64) ([]*types.RandomnessTask, error)
}

// SignatureResultCacheHandler stores in-flight signature aggregation state.
type SignatureResultCacheHandler interface {
	Contains(ctx context.Context, requestID []byte) (bool, error)
	Get(ctx context.Context, requestID []byte) (*types.SignatureResultCache, error)
	// Add is idempotent on duplicate request_id.
	Add(ctx context.Context, groupIndex uint32, task types.RandomnessTask, message []byte, threshold uint32) error
	// AddPartialSignature is idempotent on duplicate (request_id, address);
	// returns false without error if that address already posted.
	AddPartialSignature(ctx context.Context, requestID []byte, addr common.Address, sig []byte) (bool, error)
	// GetReadyToCommitSignatures atomically selects entries in state
	// not_committed where currentBlockHeight >= assignment_block_height +
	// request_confirmations AND len(partials) >= threshold, transitions them
	// to committing, and returns them.
	GetReadyToCommitSignatures(ctx context.Context, currentBlockHeight uint64) ([]*types.SignatureResultCache, error)
	UpdateCommitResult(ctx context.Context, requestID []byte, newState types.ResultCacheState) error
	IncrCommittedTimes(ctx context.Context, requestID []byte) error
}
