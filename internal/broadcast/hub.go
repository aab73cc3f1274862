// Package broadcast provides a small synchronous observer hub.
//
// Subscribers are invoked on the publishing goroutine, in the order they
// subscribed, so a callback always observes the value that was published and
// every earlier subscriber has already seen it.
package broadcast

import "sync"

// Hub fans a published value out to every registered subscriber.
type Hub[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription[T]
}

type subscription[T any] struct {
	id uint64
	fn func(T)
}

// Subscribe registers fn and returns a function that removes it again.
// The returned function is safe to call more than once.
func (h *Hub[T]) Subscribe(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs = append(h.subs, subscription[T]{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(id) })
	}
}

// Publish delivers value to all current subscribers.
func (h *Hub[T]) Publish(value T) {
	h.mu.Lock()
	subs := append([]subscription[T](nil), h.subs...)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.fn(value)
	}
}

// Len reports the number of active subscribers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub[T]) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, sub := range h.subs {
		if sub.id == id {
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			return
		}
	}
}
