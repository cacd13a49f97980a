// Package events is a small in-process pub/sub bus. Publishers never
// block: each subscriber owns a goroutine draining an unbounded FIFO
// queue, so a slow consumer delays only itself.
package events

import (
	"sync"
	"time"
)

// Topic names an event stream on the bus.
type Topic string

const (
	TopicBreakerTripped Topic = "breaker.tripped"
	TopicBreakerReset   Topic = "breaker.reset"
	TopicOrderRejected  Topic = "order.rejected"
	TopicOrderApproved  Topic = "order.approved"
)

// Event is one published occurrence. Payload is topic-specific.
type Event struct {
	Topic   Topic
	At      time.Time
	Payload interface{}
}

type subscriber struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	out    chan Event
	closed bool
}

func newSubscriber() *subscriber {
	s := &subscriber{out: make(chan Event)}
	s.cond = sync.NewCond(&s.mu)
	go s.drain()
	return s
}

func (s *subscriber) push(ev Event) {
	s.mu.Lock()
	if !s.closed {
		s.queue = append(s.queue, ev)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

// drain delivers queued events in order. Delivery to the channel may
// block on the consumer, but push never does.
func (s *subscriber) drain() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 && s.closed {
			s.mu.Unlock()
			close(s.out)
			return
		}
		ev := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.out <- ev
	}
}

func (s *subscriber) stop() {
	s.mu.Lock()
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()
}

// Bus fans events out to topic subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[Topic][]*subscriber
	done bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic][]*subscriber)}
}

// Subscribe returns a channel receiving every event published to the
// topic after this call. The channel closes when the bus closes.
func (b *Bus) Subscribe(topic Topic) <-chan Event {
	sub := newSubscriber()
	b.mu.Lock()
	if b.done {
		b.mu.Unlock()
		sub.stop()
		return sub.out
	}
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()
	return sub.out
}

// Publish enqueues the event for every subscriber of its topic. It never
// blocks and stamps At if the caller left it zero.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.mu.RLock()
	subs := b.subs[ev.Topic]
	b.mu.RUnlock()
	for _, s := range subs {
		s.push(ev)
	}
}

// Close stops delivery. Queued events are still drained before each
// subscriber channel closes.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.done {
		b.mu.Unlock()
		return
	}
	b.done = true
	all := b.subs
	b.subs = make(map[Topic][]*subscriber)
	b.mu.Unlock()

	for _, subs := range all {
		for _, s := range subs {
			s.stop()
		}
	}
}
