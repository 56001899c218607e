package memory

import (
	"context"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/randcast-network/randcast-node/cache"
	"github.com/randcast-network/randcast-node/dkg"
	"github.com/randcast-network/randcast-node/errs"
	"github.com/randcast-network/randcast-node/metrics"
	"github.com/randcast-network/randcast-node/types"
)

// GroupInfoCache is the in-memory GroupInfoHandler. Every mutation checks
// (index, epoch) against the currently held generation before touching
// state, per spec.md §4.3.
type GroupInfoCache struct {
	mu          sync.RWMutex
	group       *types.Group
	selfAddr    common.Address
	secretShare []byte
	dkgStatus   dkg.Status
	dkgStart    uint64
}

// NewGroupInfoCache returns a cache with no group formed yet (index/epoch 0).
func NewGroupInfoCache(selfAddr common.Address) *GroupInfoCache {
	return &GroupInfoCache{
		group:    types.NewGroup(0, 0, 0, 0),
		selfAddr: selfAddr,
	}
}

func (c *GroupInfoCache) checkGeneration(index, epoch uint32) error {
	if c.group.Index != index {
		return &errs.ErrGroupIndexObsolete{Index: index}
	}
	if c.group.Epoch != epoch {
		return &errs.ErrGroupEpochObsolete{Epoch: epoch}
	}
	return nil
}

func (c *GroupInfoCache) GetGroup(context.Context) (*types.Group, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g := *c.group
	return &g, nil
}

func (c *GroupInfoCache) GetIndex(context.Context) (uint32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.group.Index, nil
}

func (c *GroupInfoCache) GetEpoch(context.Context) (uint32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.group.Epoch, nil
}

func (c *GroupInfoCache) GetSize(context.Context) (uint32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.group.Size, nil
}

func (c *GroupInfoCache) GetThreshold(context.Context) (uint32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.group.Threshold, nil
}

func (c *GroupInfoCache) GetState(context.Context) (types.GroupState, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.group.State, nil
}

func (c *GroupInfoCache) GetSelfIndex(context.Context) (uint32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m, ok := c.group.Member(c.selfAddr); ok {
		return m.Index, nil
	}
	return 0, errs.ErrMemberNotExist
}

func (c *GroupInfoCache) GetPublicKey(context.Context) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.group.PublicKey, nil
}

func (c *GroupInfoCache) GetSecretShare(context.Context) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.secretShare == nil {
		return nil, errs.ErrGroupNotReady
	}
	return c.secretShare, nil
}

func (c *GroupInfoCache) GetMembers(context.Context) ([]*types.Member, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.group.Members(), nil
}

func (c *GroupInfoCache) GetMember(_ context.Context, addr common.Address) (*types.Member, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.group.Member(addr)
	if !ok {
		return nil, errs.ErrMemberNotExist
	}
	return m, nil
}

func (c *GroupInfoCache) GetCommitters(context.Context) ([]common.Address, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.group.Committers, nil
}

func (c *GroupInfoCache) GetDKGStatus(context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return int(c.dkgStatus), nil
}

func (c *GroupInfoCache) GetDKGStartBlockHeight(context.Context) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dkgStart, nil
}

func (c *GroupInfoCache) SaveTaskInfo(
	_ context.Context,
	index, epoch, size, threshold uint32,
	members []*types.Member,
	startBlockHeight uint64,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	g := types.NewGroup(index, epoch, size, threshold)
	g.SetMembers(members)
	c.group = g
	c.dkgStatus = dkg.None
	c.dkgStart = startBlockHeight
	c.secretShare = nil
	return nil
}

func (c *GroupInfoCache) SaveOutput(
	_ context.Context,
	index, epoch uint32,
	output cache.DKGOutput,
	selfAddr common.Address,
	secretShare []byte,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkGeneration(index, epoch); err != nil {
		return err
	}
	if c.group.State == types.GroupReady {
		return errs.ErrGroupAlreadyReady
	}
	if c.dkgStatus != dkg.InPhase {
		return &errs.ErrInvalidDKGTransition{From: c.dkgStatus.String(), To: "output-saved"}
	}

	disqualified := make(map[common.Address]bool, len(output.DisqualifiedAddresses))
	for _, a := range output.DisqualifiedAddresses {
		disqualified[a] = true
	}

	c.group.PublicKey = output.GroupPublicKey
	for _, m := range c.group.Members() {
		if disqualified[m.IDAddress] {
			continue
		}
		if pk, ok := output.MemberPartialPublicKeys[m.IDAddress]; ok {
			m.PartialPublicKey = pk
		}
		if ep, ok := output.MemberRPCEndpoints[m.IDAddress]; ok && ep != "" {
			m.RPCEndpoint = ep
		}
	}
	c.secretShare = secretShare
	c.selfAddr = selfAddr
	return nil
}

func (c *GroupInfoCache) SaveCommitters(_ context.Context, index, epoch uint32, committers []common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkGeneration(index, epoch); err != nil {
		return err
	}
	if c.group.State == types.GroupReady {
		return errs.ErrGroupAlreadyReady
	}
	if len(c.group.PublicKey) == 0 {
		return errs.ErrGroupNotReady
	}

	c.group.Committers = committers
	c.group.State = types.GroupReady
	return nil
}

// GroupInfoSnapshot is the whole of a GroupInfoCache's state, for a durable
// cache to persist after every mutation and rehydrate on open.
type GroupInfoSnapshot struct {
	Group       *types.Group
	SelfAddr    common.Address
	SecretShare []byte
	DKGStatus   dkg.Status
	DKGStart    uint64
}

// Snapshot returns a copy of the held state.
func (c *GroupInfoCache) Snapshot() GroupInfoSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g := *c.group
	return GroupInfoSnapshot{
		Group:       &g,
		SelfAddr:    c.selfAddr,
		SecretShare: c.secretShare,
		DKGStatus:   c.dkgStatus,
		DKGStart:    c.dkgStart,
	}
}

// Restore replaces the held state wholesale.
func (c *GroupInfoCache) Restore(s GroupInfoSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.group = s.Group
	c.selfAddr = s.SelfAddr
	c.secretShare = s.SecretShare
	c.dkgStatus = s.DKGStatus
	c.dkgStart = s.DKGStart
}

func (c *GroupInfoCache) UpdateDKGStatus(_ context.Context, index, epoch uint32, status int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkGeneration(index, epoch); err != nil {
		return false, err
	}

	next, changed, err := dkg.Transition(c.dkgStatus, dkg.Status(status))
	if err != nil {
		return false, err
	}
	c.dkgStatus = next
	if changed {
		metrics.DKGStatus.WithLabelValues(
			strconv.FormatUint(uint64(index), 10),
			strconv.FormatUint(uint64(epoch), 10),
		).Set(float64(next))
	}
	return changed, nil
}
