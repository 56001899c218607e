// Package listener implements C6 of spec.md's component table: fixed tasks
// that observe chain state (by polling or by log subscription) and publish
// eventbus events. Every listener is constructed as a scheduler.FixedWork
// closure so node/context.go can register it under a TaskType key without
// this package needing to know about the scheduler's bookkeeping.
package listener

import (
	"context"
	"math/rand"
	"time"

	clockwork "github.com/jonboulle/clockwork"

	"github.com/randcast-network/randcast-node/log"
)

// Config is spec.md §4.4's per-listener `{interval_millis, use_jitter}`.
type Config struct {
	Interval  time.Duration
	UseJitter bool
}

func (c Config) nextDelay() time.Duration {
	if !c.UseJitter {
		return c.Interval
	}
	return time.Duration(float64(c.Interval) * (0.5 + rand.Float64()*0.5))
}

// tickLoop runs fn once per tick until ctx is cancelled. The first tick
// fires after one interval, matching the teacher's ticker-driven pollers.
// A tick that errors is logged and does not stop the loop, since spec.md §7
// treats listener-tick failures as transient and retries next tick.
func tickLoop(ctx context.Context, l log.Logger, clock clockwork.Clock, cfg Config, fn func(ctx context.Context) error) error {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	for {
		timer := clock.NewTimer(cfg.nextDelay())
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.Chan():
		}
		if err := fn(ctx); err != nil {
			l.Warnw("listener tick failed", "err", err)
		}
	}
}
