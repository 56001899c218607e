// Package scheduler implements spec.md §4.2's two coexisting schedulers: a
// fixed scheduler for long-lived named services (listeners, RPC servers) and
// a dynamic scheduler for bounded-lifetime, cancellable work units (DKG
// rounds, committer-gossip sends, fulfillment attempts). Both drive work as
// goroutines suspending only at awaited I/O, matching spec.md §5.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/randcast-network/randcast-node/log"
)

// TaskType names a fixed task kind: a listener, subscriber, or RPC-server
// role, optionally qualified by chain_id.
type TaskType struct {
	Name    string
	ChainID uint32
}

func (t TaskType) String() string {
	if t.ChainID == 0 {
		return t.Name
	}
	return fmt.Sprintf("%s/chain-%d", t.Name, t.ChainID)
}

// FixedWork is one long-lived unit of work; it must return promptly once ctx
// is cancelled.
type FixedWork func(ctx context.Context) error

// ErrTaskExists is returned by AddTask when key is already scheduled.
var ErrTaskExists = fmt.Errorf("fixed task already scheduled")

// ErrTaskNotFound is returned by Abort when key is not scheduled.
var ErrTaskNotFound = fmt.Errorf("fixed task not found")

type fixedEntry struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// FixedTaskScheduler (FTS) runs at most one goroutine per TaskType key.
type FixedTaskScheduler struct {
	log log.Logger

	mu    sync.Mutex
	tasks map[TaskType]*fixedEntry
}

// NewFixedTaskScheduler returns an empty FTS.
func NewFixedTaskScheduler(l log.Logger) *FixedTaskScheduler {
	return &FixedTaskScheduler{
		log:   l.Named("fixed-scheduler"),
		tasks: make(map[TaskType]*fixedEntry),
	}
}

// AddTask starts work under key, failing with ErrTaskExists if key is
// already running.
func (s *FixedTaskScheduler) AddTask(ctx context.Context, key TaskType, work FixedWork) error {
	s.mu.Lock()
	if _, exists := s.tasks[key]; exists {
		s.mu.Unlock()
		return ErrTaskExists
	}
	taskCtx, cancel := context.WithCancel(ctx)
	entry := &fixedEntry{cancel: cancel, done: make(chan struct{})}
	s.tasks[key] = entry
	s.mu.Unlock()

	go func() {
		defer close(entry.done)
		if err := work(taskCtx); err != nil && taskCtx.Err() == nil {
			s.log.Errorw("fixed task exited with error", "task", key.String(), "err", err)
		}
	}()
	return nil
}

// Abort cancels and removes the task registered under key.
func (s *FixedTaskScheduler) Abort(key TaskType) error {
	s.mu.Lock()
	entry, ok := s.tasks[key]
	if !ok {
		s.mu.Unlock()
		return ErrTaskNotFound
	}
	delete(s.tasks, key)
	s.mu.Unlock()

	entry.cancel()
	<-entry.done
	return nil
}

// List returns the keys of every currently running fixed task.
func (s *FixedTaskScheduler) List() []TaskType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskType, 0, len(s.tasks))
	for k := range s.tasks {
		out = append(out, k)
	}
	return out
}

// Has reports whether key currently has a running task.
func (s *FixedTaskScheduler) Has(key TaskType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[key]
	return ok
}

// Shutdown aborts every running fixed task, waits for them to return, and
// reports the aborts that failed as one aggregated error.
func (s *FixedTaskScheduler) Shutdown() error {
	s.mu.Lock()
	keys := make([]TaskType, 0, len(s.tasks))
	for k := range s.tasks {
		keys = append(keys, k)
	}
	s.mu.Unlock()

	var result *multierror.Error
	for _, k := range keys {
		if err := s.Abort(k); err != nil && err != ErrTaskNotFound {
			result = multierror.Append(result, fmt.Errorf("abort %s: %w", k.String(), err))
		}
	}
	return result.ErrorOrNil()
}
