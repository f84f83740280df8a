// Package events is the in-process change notification registry.
package events

import "sync"

// Change is published after a store key was successfully written.
// Changes of one key arrive in the order they were written. A handler
// may read the key's owner but must not write through it, the writer is
// still waiting for Publish to return.
type Change struct {
	Key  string `json:"key"`
	Data any    `json:"data"`
}

// Handler receives changes.
type Handler func(Change)

// Bus delivers changes synchronously to every subscriber, in the order
// they subscribed.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers []subscription
}

type subscription struct {
	id int
	fn Handler
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it again.
func (b *Bus) Subscribe(fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers = append(b.handlers, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.handlers {
		if s.id == id {
			b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
			return
		}
	}
}

// Publish calls every handler with c. Handlers may subscribe or
// unsubscribe while being called; the change only reaches the handlers
// registered when Publish started.
func (b *Bus) Publish(c Change) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	for i, s := range b.handlers {
		handlers[i] = s.fn
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(c)
	}
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
