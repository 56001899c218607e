package types

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
)

// GroupState is the lifecycle state of a Group.
type GroupState int

const (
	GroupForming GroupState = iota
	GroupReady
)

func (s GroupState) String() string {
	switch s {
	case GroupForming:
		return "forming"
	case GroupReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Member is one slot in a Group's committee. Index is stable for the
// lifetime of the group/epoch; PartialPublicKey is populated at DKG
// completion for qualified members.
type Member struct {
	Index            uint32
	IDAddress        common.Address
	RPCEndpoint      string
	PartialPublicKey []byte
}

// Group mirrors spec.md §3's Group entity. Members is logically an ordered
// map from address to Member; we keep both a slice (ordering, iteration) and
// an index for O(1) lookup by address.
type Group struct {
	Index        uint32
	Epoch        uint32
	Size         uint32
	Threshold    uint32
	State        GroupState
	PublicKey    []byte
	members      []*Member
	membersByKey map[common.Address]*Member
	Committers   []common.Address

	DKGStatus           int
	DKGStartBlockHeight uint64
}

// NewGroup returns an empty group at (index, epoch) with no members yet.
func NewGroup(index, epoch, size, threshold uint32) *Group {
	return &Group{
		Index:        index,
		Epoch:        epoch,
		Size:         size,
		Threshold:    threshold,
		State:        GroupForming,
		membersByKey: make(map[common.Address]*Member),
	}
}

// SetMembers replaces the member set. Indices must be unique in [0, Size).
func (g *Group) SetMembers(members []*Member) {
	g.members = members
	g.membersByKey = make(map[common.Address]*Member, len(members))
	for _, m := range members {
		g.membersByKey[m.IDAddress] = m
	}
}

// Members returns the ordered member slice.
func (g *Group) Members() []*Member {
	return g.members
}

// Member looks up a member by address.
func (g *Group) Member(addr common.Address) (*Member, bool) {
	m, ok := g.membersByKey[addr]
	return m, ok
}

// IsCommitter reports whether addr is one of the group's designated committers.
func (g *Group) IsCommitter(addr common.Address) bool {
	for _, c := range g.Committers {
		if c == addr {
			return true
		}
	}
	return false
}

// groupJSON mirrors Group's exported fields plus Members, since `members`
// and `membersByKey` are unexported and would otherwise vanish across a
// json.Marshal round trip (as boltcache's write-through persistence does).
type groupJSON struct {
	Index               uint32
	Epoch               uint32
	Size                uint32
	Threshold           uint32
	State               GroupState
	PublicKey           []byte
	Members             []*Member
	Committers          []common.Address
	DKGStatus           int
	DKGStartBlockHeight uint64
}

func (g *Group) MarshalJSON() ([]byte, error) {
	return json.Marshal(groupJSON{
		Index:               g.Index,
		Epoch:               g.Epoch,
		Size:                g.Size,
		Threshold:           g.Threshold,
		State:               g.State,
		PublicKey:           g.PublicKey,
		Members:             g.members,
		Committers:          g.Committers,
		DKGStatus:           g.DKGStatus,
		DKGStartBlockHeight: g.DKGStartBlockHeight,
	})
}

func (g *Group) UnmarshalJSON(data []byte) error {
	var j groupJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	g.Index = j.Index
	g.Epoch = j.Epoch
	g.Size = j.Size
	g.Threshold = j.Threshold
	g.State = j.State
	g.PublicKey = j.PublicKey
	g.Committers = j.Committers
	g.DKGStatus = j.DKGStatus
	g.DKGStartBlockHeight = j.DKGStartBlockHeight
	g.SetMembers(j.Members)
	return nil
}

// Valid checks the invariants from spec.md §3: 0 < threshold <= size, and a
// ready group has a public key and a non-empty committer set.
func (g *Group) Valid() bool {
	if g.Threshold == 0 || g.Threshold > g.Size {
		return false
	}
	if g.State == GroupReady && (len(g.PublicKey) == 0 || len(g.Committers) == 0) {
		return false
	}
	return true
}
