package connection

import (
	"sync"

	"github.com/saikuru0/oshatori/event"
	"github.com/saikuru0/oshatori/internal/logging"
)

// DefaultBufferSize is the per-subscriber event buffer used when a broker is
// created with a non-positive size.
const DefaultBufferSize = 128

// Broker is the per-connection fan-out: one publisher (the adapter's I/O
// goroutine), any number of subscribers, each with its own bounded buffer
// and cursor starting at subscribe time.
//
// Lag policy: when a subscriber's buffer is full, its oldest unread event is
// dropped to make room. The publisher never blocks, and every subscriber
// observes the events it does receive in exact publish order.
type Broker struct {
	mu     sync.Mutex
	subs   map[int]chan event.ConnectionEvent
	next   int
	size   int
	closed bool
	log    *logging.Logger
}

// Subscription is one subscriber's private view of a connection's event
// stream. C is closed when the connection disconnects or the subscription is
// cancelled.
type Subscription struct {
	C      <-chan event.ConnectionEvent
	cancel func()
	once   sync.Once
}

// Cancel detaches the subscription and closes C. Safe to call more than
// once and concurrently with publishing.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// NewBroker creates a broker with the given per-subscriber buffer size.
func NewBroker(size int, log *logging.Logger) *Broker {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Broker{
		subs: make(map[int]chan event.ConnectionEvent),
		size: size,
		log:  log.Sub("broker"),
	}
}

// Subscribe registers a new receiver whose cursor starts now. Never blocks.
// Subscribing to a closed broker returns an already-closed subscription.
func (b *Broker) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan event.ConnectionEvent, b.size)
	if b.closed {
		close(ch)
		return &Subscription{C: ch, cancel: func() {}}
	}

	id := b.next
	b.next++
	b.subs[id] = ch

	return &Subscription{
		C: ch,
		cancel: func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		},
	}
}

// Publish delivers ev to every current subscriber. Full subscribers lose
// their oldest unread event; publish order is preserved for whatever each
// subscriber does receive.
func (b *Broker) Publish(ev event.ConnectionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Drop the oldest unread event for this subscriber. The lock
			// excludes other senders, so the freed slot cannot be stolen.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
			b.log.Debug().Int("subscriber", id).Str("kind", string(ev.Kind())).Msg("slow subscriber, dropped oldest event")
		}
	}
}

// Close terminates the stream: every subscriber's channel is closed after
// draining its buffered events, and later subscribes observe immediate
// closure. Idempotent.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// Closed reports whether the broker has been closed.
func (b *Broker) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
