// Package events carries change notifications from the persistence layer to
// observers such as views and widgets.
package events

import (
	"sync"
	"time"
)

// Kind names the entity family an event concerns.
type Kind string

const (
	ReminderChanged   Kind = "reminderChanged"
	ListChanged       Kind = "listChanged"
	SubHeadingChanged Kind = "subheadingChanged"
	TagChanged        Kind = "tagChanged"
	LocationChanged   Kind = "locationChanged"
)

// Event reports that entities of one kind changed in a committed write.
type Event struct {
	Kind Kind
	IDs  []string
	At   time.Time
}

// Bus fans events out to subscribers. Publish never blocks and never drops:
// each subscriber has its own unbounded queue drained into a buffered channel.
type Bus struct {
	mu         sync.Mutex
	subs       map[int]*subscriber
	next       int
	bufferSize int
	closed     bool
}

// NewBus creates a bus whose subscriber channels have the given buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Bus{
		subs:       make(map[int]*subscriber),
		bufferSize: bufferSize,
	}
}

// Subscription is a live registration on a Bus.
type Subscription struct {
	C <-chan Event

	bus *Bus
	id  int
	sub *subscriber
}

// Unsubscribe detaches the subscription and closes C. It is safe to call
// more than once.
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	delete(s.bus.subs, s.id)
	s.bus.mu.Unlock()
	s.sub.stop()
}

// Subscribe registers interest in the given kinds, or in every kind when
// none are given. Subscribing to a closed bus yields a closed channel.
func (b *Bus) Subscribe(kinds ...Kind) *Subscription {
	sub := newSubscriber(b.bufferSize, kinds)

	b.mu.Lock()
	id := b.next
	b.next++
	if b.closed {
		b.mu.Unlock()
		sub.stop()
		close(sub.out)
		return &Subscription{C: sub.out, bus: b, id: id, sub: sub}
	}
	b.subs[id] = sub
	b.mu.Unlock()

	go sub.run()
	return &Subscription{C: sub.out, bus: b, id: id, sub: sub}
}

// Publish delivers ev to every interested subscriber.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.Lock()
	subs := make([]*subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		if s.wants(ev.Kind) {
			s.enqueue(ev)
		}
	}
}

// Close detaches all subscribers and closes their channels.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[int]*subscriber)
	b.mu.Unlock()

	for _, s := range subs {
		s.stop()
	}
}

type subscriber struct {
	kinds map[Kind]bool
	out   chan Event
	done  chan struct{}

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Event
	stopped bool
	once    sync.Once
}

func newSubscriber(bufferSize int, kinds []Kind) *subscriber {
	s := &subscriber{
		out:  make(chan Event, bufferSize),
		done: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	if len(kinds) > 0 {
		s.kinds = make(map[Kind]bool, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = true
		}
	}
	return s
}

func (s *subscriber) wants(k Kind) bool {
	return s.kinds == nil || s.kinds[k]
}

func (s *subscriber) enqueue(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.queue = append(s.queue, ev)
	s.cond.Signal()
}

func (s *subscriber) stop() {
	s.once.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.cond.Broadcast()
		s.mu.Unlock()
		close(s.done)
	})
}

// run drains the queue into out until stopped, then closes out.
func (s *subscriber) run() {
	defer close(s.out)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.stopped {
			s.cond.Wait()
		}
		if s.stopped {
			s.mu.Unlock()
			return
		}
		ev := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- ev:
		case <-s.done:
			return
		}
	}
}
