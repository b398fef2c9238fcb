package booth

import (
	"sync"
)

const minSubscriberBuffer = 64

// Broadcaster distributes session events to SSE clients. Every event is
// kept so a client that subscribes late still sees the whole session.
type Broadcaster struct {
	mu      sync.Mutex
	history []Event
	clients map[chan Event]struct{}
	closed  bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a channel that first replays past events and then
// receives new ones. The channel is closed after Close. The caller must
// call the returned cleanup when done.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, len(b.history)+minSubscriberBuffer)
	for _, evt := range b.history {
		ch <- evt
	}
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.clients[ch] = struct{}{}

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.clients[ch]; ok {
			delete(b.clients, ch)
			close(ch)
		}
	}
	return ch, unsub
}

// Emit records evt and sends it to all subscribers. Slow clients may miss
// live events.
func (b *Broadcaster) Emit(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.history = append(b.history, evt)
	for ch := range b.clients {
		select {
		case ch <- evt:
		default:
			// channel full, skip
		}
	}
}

// History returns a copy of all emitted events.
func (b *Broadcaster) History() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.history...)
}

// Close ends every subscription. Later events are dropped.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.clients {
		delete(b.clients, ch)
		close(ch)
	}
}
