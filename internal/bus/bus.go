package bus

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// subscriberBuffer is the per-subscriber queue depth. When full, the
// oldest buffered event is evicted so the newest always lands.
const subscriberBuffer = 64

// DefaultSession is the session key used when a publisher names none.
const DefaultSession = "default"

// ErrInvalidEvent is returned when a published event carries neither
// message text nor an agent id.
var ErrInvalidEvent = errors.New("invalid event: message or agentId required")

// ErrBusClosed is returned for subscribe attempts after Shutdown.
var ErrBusClosed = errors.New("bus is shut down")

// Event is a single progress report. Data is opaque to the bus; only
// the ultimate consumer interprets its shape.
type Event struct {
	Text    string          `json:"text,omitempty"`
	AgentID string          `json:"agentId,omitempty"`
	Status  string          `json:"status,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	TS      int64           `json:"ts"`
}

// Subscription is a live, single-session view of the event feed.
type Subscription struct {
	id      string
	session string
	ch      chan Event
	bus     *Bus
}

// ID returns the subscription's unique id.
func (s *Subscription) ID() string { return s.id }

// Session returns the session key this subscription observes.
func (s *Subscription) Session() string { return s.session }

// Events returns the live event channel. It is closed on unsubscribe
// or bus shutdown.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Unsubscribe removes the subscription and closes its channel.
// Idempotent, and safe to call concurrently with an in-flight Publish.
func (s *Subscription) Unsubscribe() { s.bus.remove(s) }

// Bus is a session-keyed publish/subscribe registry. Construct one at
// process start with New and pass it to every component that needs it;
// tear it down with Shutdown.
type Bus struct {
	mu       sync.RWMutex
	sessions map[string]map[*Subscription]struct{}
	closed   bool

	published atomic.Uint64
	dropped   atomic.Uint64
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		sessions: make(map[string]map[*Subscription]struct{}),
	}
}

// Publish validates the event, stamps it with the current wall-clock
// milliseconds, and delivers it to every subscriber of the session.
// Delivery never blocks: a full subscriber queue evicts its oldest
// buffered event to make room for the newest.
func (b *Bus) Publish(session string, e Event) error {
	if e.Text == "" && e.AgentID == "" {
		return ErrInvalidEvent
	}
	if session == "" {
		session = DefaultSession
	}
	e.TS = time.Now().UnixMilli()

	b.mu.RLock()
	defer b.mu.RUnlock()

	b.published.Add(1)

	for sub := range b.sessions[session] {
		select {
		case sub.ch <- e:
		default:
			// Queue full: evict the oldest, then retry once. The inner
			// receive may instead hand the oldest event to a concurrently
			// draining consumer, which is fine either way.
			select {
			case <-sub.ch:
				b.dropped.Add(1)
			default:
			}
			select {
			case sub.ch <- e:
			default:
				b.dropped.Add(1)
			}
		}
	}
	return nil
}

// Subscribe registers a new subscriber under the session key and
// returns its handle. A subscriber never observes events published to
// other sessions, and never receives events published before it
// registered.
func (b *Bus) Subscribe(session string) (*Subscription, error) {
	if session == "" {
		session = DefaultSession
	}

	sub := &Subscription{
		id:      uuid.NewString(),
		session: session,
		ch:      make(chan Event, subscriberBuffer),
		bus:     b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}
	if b.sessions[session] == nil {
		b.sessions[session] = make(map[*Subscription]struct{})
	}
	b.sessions[session][sub] = struct{}{}
	return sub, nil
}

// remove deregisters a subscription and closes its channel. Closing
// happens only after removal under the write lock, so no Publish (which
// fans out under the read lock) can be mid-send on a closed channel.
func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	subs, ok := b.sessions[sub.session]
	if ok {
		if _, registered := subs[sub]; !registered {
			ok = false
		} else {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(b.sessions, sub.session)
			}
		}
	}
	b.mu.Unlock()

	if ok {
		close(sub.ch)
	}
}

// SubscriberCount returns the number of subscribers for a session.
func (b *Bus) SubscriberCount(session string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions[session])
}

// SessionCount returns the number of sessions with live subscribers.
func (b *Bus) SessionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions)
}

// Published returns the total number of accepted publishes.
func (b *Bus) Published() uint64 { return b.published.Load() }

// Dropped returns the total number of events dropped under overflow.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }

// Shutdown closes every subscription and rejects further subscribes.
// Idempotent.
func (b *Bus) Shutdown() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true

	var all []*Subscription
	for session, subs := range b.sessions {
		for sub := range subs {
			all = append(all, sub)
		}
		delete(b.sessions, session)
	}
	b.mu.Unlock()

	for _, sub := range all {
		close(sub.ch)
	}
}
