// Package eventbus implements glob-pattern pub/sub over ledger domain
// events (spec §4.8, C14): a bounded history ring for replay, per-callback
// exception isolation, and fire-and-forget webhook dispatch with retry.
// Grounded on the dispatch/retry shape of the teacher's
// integrations/webhooks package, generalized from a single HTTP topic to
// an in-process glob-matched bus.
package eventbus

import (
	"path"
	"sync"

	"github.com/google/uuid"
)

// Event is a single domain occurrence published on the bus. ID is a
// delivery id assigned at publish time if the caller left it blank, so
// subscribers (notably the webhook dispatcher) can tag retries of the
// same delivery.
type Event struct {
	ID      string
	Topic   string
	Payload map[string]any
}

// Handler receives matched events. A panicking handler is isolated and
// does not affect other subscribers or the publisher.
type Handler func(Event)

const DefaultHistoryCap = 1000

type subscription struct {
	id      int
	pattern string
	handler Handler
}

// Bus is a glob-pattern publish/subscribe bus with bounded event history.
type Bus struct {
	mu          sync.Mutex
	subs        []subscription
	nextID      int
	history     []Event
	historyCap  int
	onPanic     func(topic string, recovered any)
}

func New(historyCap int) *Bus {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}
	return &Bus{historyCap: historyCap}
}

// OnPanic registers an optional callback invoked whenever a subscriber
// handler panics, so the bus can log without crashing the publisher.
func (b *Bus) OnPanic(fn func(topic string, recovered any)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onPanic = fn
}

// Subscribe registers handler for any topic matching pattern (path.Match
// glob syntax, e.g. "attestation.*"). Returns an id usable with
// Unsubscribe.
func (b *Bus) Subscribe(pattern string, handler Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, pattern: pattern, handler: handler})
	return id
}

func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers event to every matching subscriber synchronously, and
// appends it to the bounded history ring. A handler panic is recovered
// and reported via OnPanic without aborting delivery to remaining
// subscribers.
func (b *Bus) Publish(evt Event) {
	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	b.mu.Lock()
	matched := make([]subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if ok, _ := path.Match(s.pattern, evt.Topic); ok {
			matched = append(matched, s)
		}
	}
	b.history = append(b.history, evt)
	if len(b.history) > b.historyCap {
		b.history = b.history[len(b.history)-b.historyCap:]
	}
	onPanic := b.onPanic
	b.mu.Unlock()

	for _, s := range matched {
		b.dispatch(s, evt, onPanic)
	}
}

func (b *Bus) dispatch(s subscription, evt Event, onPanic func(string, any)) {
	defer func() {
		if r := recover(); r != nil && onPanic != nil {
			onPanic(evt.Topic, r)
		}
	}()
	s.handler(evt)
}

// History returns a copy of the retained event ring, oldest first.
func (b *Bus) History() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.history))
	copy(out, b.history)
	return out
}
