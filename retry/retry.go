// Package retry implements the full exponential backoff described in
// spec.md §5: delay_n = base * factor^n, optionally multiplied by a jitter
// factor uniform in [0.5, 1.0]. It is the Go counterpart of the original
// source's tokio-retry-based descriptor, grounded on the same
// jonboulle/clockwork clock abstraction the teacher uses for every other
// ticker/sleep in the codebase so tests never need a real timer.
package retry

import (
	"context"
	"math/rand"
	"time"

	clockwork "github.com/jonboulle/clockwork"
)

// Descriptor mirrors spec.md §4.6/§6's
// ExponentialBackoffRetryDescriptor{base, factor, max_attempts, use_jitter}.
type Descriptor struct {
	Base        time.Duration
	Factor      float64
	MaxAttempts int
	UseJitter   bool
}

// TerminalError wraps an error that Do must not retry past: Do stops at once
// and returns the wrapped error. Terminal(nil) is nil, so fn can also end the
// retries with success, as the committer client does for the
// AlreadyCommittedPartialSignature case (spec.md §4.6).
type TerminalError struct {
	Err error
}

func (e *TerminalError) Error() string { return e.Err.Error() }
func (e *TerminalError) Unwrap() error { return e.Err }

// Terminal wraps err so Do stops retrying immediately and returns it.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &TerminalError{Err: err}
}

// Do calls fn until it succeeds, fn returns a *TerminalError, ctx is
// cancelled, or d.MaxAttempts calls have been made (0 means unlimited).
// delay_n is computed before the (n+1)-th attempt, n starting at 0.
func Do(ctx context.Context, clock clockwork.Clock, d Descriptor, fn func(ctx context.Context) error) error {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	var lastErr error
	for attempt := 0; d.MaxAttempts == 0 || attempt < d.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(d, attempt-1)
			timer := clock.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.Chan():
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		var terminal *TerminalError
		if asTerminal(err, &terminal) {
			return terminal.Err
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return lastErr
}

func asTerminal(err error, out **TerminalError) bool {
	t, ok := err.(*TerminalError)
	if ok {
		*out = t
	}
	return ok
}

// backoffDelay computes delay_n = base * factor^n, optionally scaled by a
// uniform [0.5, 1.0) jitter factor.
func backoffDelay(d Descriptor, n int) time.Duration {
	delay := float64(d.Base) * pow(d.Factor, n)
	if d.UseJitter {
		delay *= 0.5 + rand.Float64()*0.5
	}
	return time.Duration(delay)
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
