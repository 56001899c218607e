package eventbus

import (
	"context"
	"sync"

	"github.com/randcast-network/randcast-node/log"
)

// Handler processes one event. It runs to completion before its
// subscription's next queued event is dispatched, per spec.md §4.1.
type Handler func(ctx context.Context, event Event)

// Bus is the process-wide event broadcaster. Publish never blocks the
// caller: each subscription owns an unbounded queue drained by its own
// goroutine, so a slow handler on one subscription never stalls publishers
// or other subscriptions (spec.md §9's "message-passing queue, one channel
// per subscribed handler").
type Bus struct {
	log log.Logger

	mu   sync.RWMutex
	subs map[Topic][]*subscription
}

// New returns an empty bus.
func New(l log.Logger) *Bus {
	return &Bus{
		log:  l.Named("eventbus"),
		subs: make(map[Topic][]*subscription),
	}
}

// Subscribe registers handler against topic and starts its delivery
// goroutine. The returned cancel function drops the subscription so later
// publishes no longer reach it; events already queued are still delivered
// before the goroutine exits, and cancel does not wait for them.
func (b *Bus) Subscribe(topic Topic, handler Handler) (cancel func()) {
	sub := newSubscription(handler)

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()

	go sub.run()

	return func() {
		b.mu.Lock()
		list := b.subs[topic]
		for i, s := range list {
			if s == sub {
				b.subs[topic] = append(list[:i], list[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
		sub.close()
	}
}

// Publish fans event out to every subscription on event.Topic(), in
// registration order. It returns once each subscription's event has been
// enqueued, not once handlers have run.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	subs := append([]*subscription(nil), b.subs[event.Topic()]...)
	b.mu.RUnlock()

	if len(subs) == 0 {
		b.log.Debugw("publish with no subscribers", "topic", event.Topic())
	}
	for _, s := range subs {
		s.push(event)
	}
}

// subscription is a per-handler FIFO queue with a single dedicated worker.
type subscription struct {
	handler Handler

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool
}

func newSubscription(handler Handler) *subscription {
	s := &subscription{handler: handler}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *subscription) push(e Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, e)
	s.mu.Unlock()
	s.cond.Signal()
}

func (s *subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
}

func (s *subscription) run() {
	ctx := context.Background()
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.closed {
			s.mu.Unlock()
			return
		}
		e := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.handler(ctx, e)
	}
}
