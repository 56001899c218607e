package dkg

import (
	"context"
	"time"

	kdkg "github.com/drand/kyber/share/dkg"
	"github.com/ethereum/go-ethereum/common"
	clockwork "github.com/jonboulle/clockwork"

	"github.com/randcast-network/randcast-node/log"
)

// Coordinator is the slice of the per-group ephemeral coordinator contract
// the DKG board needs: one write (publish) and the phase-state views the
// board polls while waiting for a phase to advance.
type Coordinator interface {
	Publish(ctx context.Context, value []byte) error
	InPhase(ctx context.Context) (int8, error)
	GetShares(ctx context.Context) ([][]byte, error)
	GetResponses(ctx context.Context) ([][]byte, error)
	GetJustifications(ctx context.Context) ([][]byte, error)
	GetParticipants(ctx context.Context) ([]common.Address, error)
	GetDKGKeys(ctx context.Context) ([][]byte, error)
}

// Coordinator phase indexes. Negative means the round has ended.
const (
	phaseShares         int8 = 1
	phaseResponses      int8 = 2
	phaseJustifications int8 = 3
)

// Board bridges the kyber dkg protocol and the coordinator contract: pushes
// publish bundles on chain, and incoming channels are fed by polling the
// contract's phase arrays once the phase has advanced. It is the on-chain
// analogue of the gossip board drand's core runs its protocol against.
type Board struct {
	log   log.Logger
	clock clockwork.Clock
	coord Coordinator

	pollInterval time.Duration

	dealCh  chan kdkg.DealBundle
	respCh  chan kdkg.ResponseBundle
	justCh  chan kdkg.JustificationBundle
	phaseCh chan kdkg.Phase
}

// NewBoard returns a board for one DKG round against coord. size bounds the
// channel buffers so delivering a full phase's bundles never blocks the
// poller. pollInterval is spec.md §4.5's dkg_wait_for_phase_interval.
func NewBoard(l log.Logger, clock clockwork.Clock, coord Coordinator, size int, pollInterval time.Duration) *Board {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Board{
		log:          l.Named("dkg-board"),
		clock:        clock,
		coord:        coord,
		pollInterval: pollInterval,
		dealCh:       make(chan kdkg.DealBundle, size),
		respCh:       make(chan kdkg.ResponseBundle, size),
		justCh:       make(chan kdkg.JustificationBundle, size),
		phaseCh:      make(chan kdkg.Phase, 4),
	}
}

// PushDeals publishes this node's deal bundle. The transaction runs on its
// own goroutine since the protocol calls Push* synchronously.
func (b *Board) PushDeals(bundle *kdkg.DealBundle) {
	b.publish("deal bundle", func() ([]byte, error) { return EncodeDealBundle(bundle) })
}

// PushResponses publishes this node's response bundle.
func (b *Board) PushResponses(bundle *kdkg.ResponseBundle) {
	b.publish("response bundle", func() ([]byte, error) { return EncodeResponseBundle(bundle) })
}

// PushJustifications publishes this node's justification bundle.
func (b *Board) PushJustifications(bundle *kdkg.JustificationBundle) {
	b.publish("justification bundle", func() ([]byte, error) { return EncodeJustificationBundle(bundle) })
}

func (b *Board) publish(kind string, encode func() ([]byte, error)) {
	data, err := encode()
	if err != nil {
		b.log.Errorw("failed to encode bundle", "kind", kind, "err", err)
		return
	}
	go func() {
		if err := b.coord.Publish(context.Background(), data); err != nil {
			b.log.Errorw("failed to publish bundle", "kind", kind, "err", err)
			return
		}
		b.log.Debugw("published bundle", "kind", kind, "bytes", len(data))
	}()
}

// IncomingDeal implements kdkg.Board.
func (b *Board) IncomingDeal() <-chan kdkg.DealBundle { return b.dealCh }

// IncomingResponse implements kdkg.Board.
func (b *Board) IncomingResponse() <-chan kdkg.ResponseBundle { return b.respCh }

// IncomingJustification implements kdkg.Board.
func (b *Board) IncomingJustification() <-chan kdkg.JustificationBundle { return b.justCh }

// NextPhase implements kdkg.Phaser: the protocol advances exactly when the
// contract's in_phase does, so all participants move in lockstep with the
// chain rather than with local wall clocks.
func (b *Board) NextPhase() chan kdkg.Phase { return b.phaseCh }

// Run drives the board until the round ends or ctx is cancelled. It emits
// DealPhase once the contract opens the share phase, then, at each contract
// phase advance, drains that phase's published bundles into the incoming
// channels before emitting the next protocol phase.
func (b *Board) Run(ctx context.Context) error {
	if err := b.waitForPhase(ctx, phaseShares); err != nil {
		return err
	}
	b.phaseCh <- kdkg.DealPhase

	if err := b.waitForPhase(ctx, phaseResponses); err != nil {
		return err
	}
	if err := b.deliverDeals(ctx); err != nil {
		return err
	}
	b.phaseCh <- kdkg.ResponsePhase

	if err := b.waitForPhase(ctx, phaseJustifications); err != nil {
		return err
	}
	if err := b.deliverResponses(ctx); err != nil {
		return err
	}
	b.phaseCh <- kdkg.JustifPhase

	if err := b.waitForEnd(ctx); err != nil {
		return err
	}
	if err := b.deliverJustifications(ctx); err != nil {
		return err
	}
	b.phaseCh <- kdkg.FinishPhase
	return nil
}

// waitForPhase blocks until the contract reports phase target or later. A
// round that ends early (negative phase) also unblocks, since every
// publish window before the end has then closed.
func (b *Board) waitForPhase(ctx context.Context, target int8) error {
	for {
		current, err := b.coord.InPhase(ctx)
		if err != nil {
			b.log.Warnw("failed to read coordinator phase", "err", err)
		} else if current < 0 || current >= target {
			return nil
		}

		timer := b.clock.NewTimer(b.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.Chan():
		}
	}
}

func (b *Board) waitForEnd(ctx context.Context) error {
	for {
		current, err := b.coord.InPhase(ctx)
		if err != nil {
			b.log.Warnw("failed to read coordinator phase", "err", err)
		} else if current < 0 {
			return nil
		}

		timer := b.clock.NewTimer(b.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.Chan():
		}
	}
}

func (b *Board) deliverDeals(ctx context.Context) error {
	raws, err := b.coord.GetShares(ctx)
	if err != nil {
		return err
	}
	for _, raw := range raws {
		bundle, err := DecodeDealBundle(raw)
		if err != nil {
			b.log.Warnw("skipping malformed deal bundle", "err", err)
			continue
		}
		b.dealCh <- *bundle
	}
	b.log.Debugw("delivered deal bundles", "count", len(raws))
	return nil
}

func (b *Board) deliverResponses(ctx context.Context) error {
	raws, err := b.coord.GetResponses(ctx)
	if err != nil {
		return err
	}
	for _, raw := range raws {
		bundle, err := DecodeResponseBundle(raw)
		if err != nil {
			b.log.Warnw("skipping malformed response bundle", "err", err)
			continue
		}
		b.respCh <- *bundle
	}
	b.log.Debugw("delivered response bundles", "count", len(raws))
	return nil
}

func (b *Board) deliverJustifications(ctx context.Context) error {
	raws, err := b.coord.GetJustifications(ctx)
	if err != nil {
		return err
	}
	for _, raw := range raws {
		bundle, err := DecodeJustificationBundle(raw)
		if err != nil {
			b.log.Warnw("skipping malformed justification bundle", "err", err)
			continue
		}
		b.justCh <- *bundle
	}
	b.log.Debugw("delivered justification bundles", "count", len(raws))
	return nil
}
