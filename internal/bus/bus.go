// Package bus implements the in-process change notification bus that
// decouples independent readers of the record store. A mutation performed by
// one surface publishes a named signal; every other surface re-fetches.
//
// Signals carry no payload on purpose: listeners treat them as pure
// invalidation, so delivery order does not matter.
package bus

import "sync"

// Signal names a record kind whose contents changed.
type Signal string

const (
	NotesChanged   Signal = "notes.changed"
	FoldersChanged Signal = "folders.changed"
)

// Bus is an explicit, injectable publish/subscribe service. It is created
// once at process start and torn down with Close; it is never an implicit
// global. Delivery is synchronous: Publish returns after every listener
// registered at the time of the call has run.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[Signal]map[int]func()
	closed bool
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[Signal]map[int]func())}
}

// Subscribe registers fn for a signal and returns its unsubscribe function.
// Unsubscribing twice is harmless.
func (b *Bus) Subscribe(sig Signal, fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	if b.subs[sig] == nil {
		b.subs[sig] = make(map[int]func())
	}
	id := b.nextID
	b.nextID++
	b.subs[sig][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[sig], id)
	}
}

// Publish fires a signal. Listeners run synchronously on the caller's
// goroutine, outside the bus lock so they may subscribe or publish in turn.
// Publishing after Close is a no-op.
func (b *Bus) Publish(sig Signal) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	listeners := make([]func(), 0, len(b.subs[sig]))
	for _, fn := range b.subs[sig] {
		listeners = append(listeners, fn)
	}
	b.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Close drops all subscriptions and makes further Publish calls no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[Signal]map[int]func())
}
