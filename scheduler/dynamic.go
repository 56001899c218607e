package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	clockwork "github.com/jonboulle/clockwork"

	"github.com/randcast-network/randcast-node/log"
	"github.com/randcast-network/randcast-node/metrics"
)

// DynamicWork is a bounded-lifetime unit of work. It must return promptly
// once ctx is cancelled, whether by its own completion, an explicit
// shutdown predicate, or process shutdown.
type DynamicWork func(ctx context.Context) error

// ShutdownPredicate is polled every checkInterval by the monitor goroutine
// spawned alongside a shutdown-signalled task; once it returns true the
// task's context is cancelled.
type ShutdownPredicate func() bool

// defaultSweepInterval is how often the background sweeper drains
// completed task handles.
const defaultSweepInterval = 5 * time.Second

// TaskHandle is the scheduler-side record of one in-flight dynamic task:
// a completion signal plus an optional monitor cancellation hook.
type TaskHandle struct {
	ID      uuid.UUID
	cancel  context.CancelFunc
	done    chan struct{}
	monitor context.CancelFunc // non-nil only for shutdown-signalled tasks
}

// Done reports whether the underlying work has returned.
func (h *TaskHandle) Done() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Cancel requests the work stop at its next suspension point.
func (h *TaskHandle) Cancel() {
	h.cancel()
}

// DynamicTaskScheduler (DTS) is an append-only registry of bounded-lifetime
// work units, per spec.md §4.2. It never blocks a caller: add_task spawns
// and returns immediately.
type DynamicTaskScheduler struct {
	log   log.Logger
	clock clockwork.Clock

	mu      sync.Mutex
	handles map[uuid.UUID]*TaskHandle

	sweepOnce sync.Once
	stopSweep context.CancelFunc
}

// NewDynamicTaskScheduler returns an empty DTS and starts its sweeper.
func NewDynamicTaskScheduler(ctx context.Context, l log.Logger, clock clockwork.Clock) *DynamicTaskScheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	sweepCtx, cancel := context.WithCancel(ctx)
	s := &DynamicTaskScheduler{
		log:       l.Named("dynamic-scheduler"),
		clock:     clock,
		handles:   make(map[uuid.UUID]*TaskHandle),
		stopSweep: cancel,
	}
	go s.sweep(sweepCtx)
	return s
}

// AddTask spawns work with no shutdown predicate; it runs until it returns
// or ctx (the caller's, typically the process lifetime) is cancelled.
func (s *DynamicTaskScheduler) AddTask(ctx context.Context, work DynamicWork) *TaskHandle {
	workCtx, cancel := context.WithCancel(ctx)
	h := &TaskHandle{ID: uuid.New(), cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.handles[h.ID] = h
	s.mu.Unlock()

	go func() {
		defer close(h.done)
		if err := work(workCtx); err != nil && workCtx.Err() == nil {
			s.log.Warnw("dynamic task returned error", "task_id", h.ID, "err", err)
		}
	}()
	return h
}

// AddTaskWithShutdownSignal spawns work alongside a sibling monitor that
// evaluates predicate every checkInterval; once predicate returns true the
// work's context is cancelled. This is the DKG driver's cancellation path
// (spec.md §4.5, §9's "coarse but retainable as a fallback").
func (s *DynamicTaskScheduler) AddTaskWithShutdownSignal(
	ctx context.Context,
	work DynamicWork,
	predicate ShutdownPredicate,
	checkInterval time.Duration,
) *TaskHandle {
	workCtx, cancelWork := context.WithCancel(ctx)
	monitorCtx, cancelMonitor := context.WithCancel(ctx)
	h := &TaskHandle{ID: uuid.New(), cancel: cancelWork, done: make(chan struct{}), monitor: cancelMonitor}

	s.mu.Lock()
	s.handles[h.ID] = h
	s.mu.Unlock()

	go func() {
		defer close(h.done)
		if err := work(workCtx); err != nil && workCtx.Err() == nil {
			s.log.Warnw("dynamic task returned error", "task_id", h.ID, "err", err)
		}
	}()

	go func() {
		ticker := s.clock.NewTicker(checkInterval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-h.done:
				return
			case <-ticker.Chan():
				if predicate() {
					s.log.Debugw("shutdown predicate satisfied, cancelling task", "task_id", h.ID)
					cancelWork()
					return
				}
			}
		}
	}()

	return h
}

// sweep periodically drains completed handles and aborts their monitors, so
// a long-running node doesn't grow this map without bound.
func (s *DynamicTaskScheduler) sweep(ctx context.Context) {
	ticker := s.clock.NewTicker(defaultSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.mu.Lock()
			for id, h := range s.handles {
				if h.Done() {
					if h.monitor != nil {
						h.monitor()
					}
					delete(s.handles, id)
				}
			}
			metrics.DynamicTasks.Set(float64(len(s.handles)))
			s.mu.Unlock()
		}
	}
}

// Len reports the number of tracked (not yet swept) task handles.
func (s *DynamicTaskScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// Shutdown stops the sweeper and cancels every in-flight task.
func (s *DynamicTaskScheduler) Shutdown() {
	s.stopSweep()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.handles {
		h.cancel()
		if h.monitor != nil {
			h.monitor()
		}
	}
}
