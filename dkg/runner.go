package dkg

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/drand/kyber/share"
	kdkg "github.com/drand/kyber/share/dkg"
	"github.com/ethereum/go-ethereum/common"
	clockwork "github.com/jonboulle/clockwork"

	"github.com/randcast-network/randcast-node/bls"
	"github.com/randcast-network/randcast-node/cache"
	"github.com/randcast-network/randcast-node/log"
)

// Run executes one full DKG round (shares, responses, justifications)
// against coord and returns the resulting key material plus this node's raw
// secret share. The participant set and each participant's registered DKG
// public key come from the coordinator itself, so every node runs the
// protocol over the identical roster the contract fixed at group formation.
func Run(
	ctx context.Context,
	l log.Logger,
	clock clockwork.Clock,
	coord Coordinator,
	groupIndex, epoch uint32,
	selfAddr common.Address,
	dkgPrivateKey []byte,
	threshold uint32,
	phaseInterval time.Duration,
) (*cache.DKGOutput, []byte, error) {
	l = l.Named("dkg-runner").With("group_index", groupIndex, "epoch", epoch)

	participants, err := coord.GetParticipants(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read participants: %w", err)
	}
	dkgKeys, err := coord.GetDKGKeys(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read dkg keys: %w", err)
	}
	if len(participants) != len(dkgKeys) {
		return nil, nil, fmt.Errorf("coordinator roster mismatch: %d participants, %d keys", len(participants), len(dkgKeys))
	}

	nodes := make([]kdkg.Node, len(participants))
	endpoints := make([]string, len(participants))
	selfIndex := -1
	for i, addr := range participants {
		record, err := DecodeNodeRecord(dkgKeys[i])
		if err != nil {
			return nil, nil, fmt.Errorf("participant %s has invalid registration record: %w", addr.Hex(), err)
		}
		pub, err := bls.UnmarshalPublicKey(record.DKGPublicKey)
		if err != nil {
			return nil, nil, fmt.Errorf("participant %s has invalid dkg key: %w", addr.Hex(), err)
		}
		nodes[i] = kdkg.Node{Index: uint32(i), Public: pub}
		endpoints[i] = record.RPCEndpoint
		if addr == selfAddr {
			selfIndex = i
		}
	}
	if selfIndex < 0 {
		return nil, nil, fmt.Errorf("node %s is not a participant of this round", selfAddr.Hex())
	}

	longterm, err := bls.UnmarshalSecretShare(dkgPrivateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("decode dkg private key: %w", err)
	}

	conf := &kdkg.Config{
		Suite:     bls.KeyGroup().(kdkg.Suite),
		NewNodes:  nodes,
		Longterm:  longterm,
		Threshold: int(threshold),
		Nonce:     roundNonce(groupIndex, epoch),
		Auth:      bls.AuthScheme,
		FastSync:  false,
		Log:       l,
	}

	board := NewBoard(l, clock, coord, len(participants), phaseInterval)
	proto, err := kdkg.NewProtocol(conf, board, board, false)
	if err != nil {
		return nil, nil, fmt.Errorf("set up dkg protocol: %w", err)
	}

	boardCtx, stopBoard := context.WithCancel(ctx)
	defer stopBoard()
	go func() {
		if err := board.Run(boardCtx); err != nil && boardCtx.Err() == nil {
			l.Errorw("dkg board stopped early", "err", err)
		}
	}()

	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case res := <-proto.WaitEnd():
		if res.Error != nil {
			return nil, nil, fmt.Errorf("dkg protocol failed: %w", res.Error)
		}
		return buildOutput(res.Result, participants, endpoints, selfIndex)
	}
}

// buildOutput derives the group public key, every qualified member's partial
// public key (the public polynomial evaluated at the member's index) and RPC
// endpoint, the disqualified set, and this node's secret share.
func buildOutput(result *kdkg.Result, participants []common.Address, endpoints []string, selfIndex int) (*cache.DKGOutput, []byte, error) {
	commits := result.Key.Commits
	if len(commits) == 0 {
		return nil, nil, fmt.Errorf("dkg result carries no public commitments")
	}

	groupPublicKey, err := commits[0].MarshalBinary()
	if err != nil {
		return nil, nil, err
	}

	qualified := make(map[uint32]bool, len(result.QUAL))
	for _, n := range result.QUAL {
		qualified[n.Index] = true
	}

	pubPoly := share.NewPubPoly(bls.KeyGroup(), bls.KeyGroup().Point().Base(), commits)
	memberKeys := make(map[common.Address][]byte, len(result.QUAL))
	memberEndpoints := make(map[common.Address]string, len(result.QUAL))
	var disqualified []common.Address
	for i, addr := range participants {
		if !qualified[uint32(i)] {
			disqualified = append(disqualified, addr)
			continue
		}
		partial, err := pubPoly.Eval(i).V.MarshalBinary()
		if err != nil {
			return nil, nil, err
		}
		memberKeys[addr] = partial
		memberEndpoints[addr] = endpoints[i]
	}

	if !qualified[uint32(selfIndex)] {
		return nil, nil, fmt.Errorf("node was disqualified from the round")
	}
	secretShare, err := result.Key.Share.V.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}

	return &cache.DKGOutput{
		GroupPublicKey:          groupPublicKey,
		OwnPartialPublicKey:     memberKeys[participants[selfIndex]],
		MemberPartialPublicKeys: memberKeys,
		MemberRPCEndpoints:      memberEndpoints,
		DisqualifiedAddresses:   disqualified,
	}, secretShare, nil
}

// roundNonce binds every bundle of a round to its (group_index, epoch), so a
// replayed bundle from a previous epoch never validates.
func roundNonce(groupIndex, epoch uint32) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[:4], groupIndex)
	binary.BigEndian.PutUint32(buf[4:], epoch)
	h := sha256.Sum256(append([]byte("randcast-dkg-round"), buf[:]...))
	return h[:]
}
