package events

import (
	"fmt"
	"log/slog"
	"sync"
)

// Handler receives the payload of a published event.
type Handler[P any] func(payload P)

// SubscriptionID identifies a registered handler for Unsubscribe.
type SubscriptionID uint64

type subscription[P any] struct {
	id      SubscriptionID
	handler Handler[P]
}

// Dispatcher is a synchronous named-event dispatcher.
// Handlers run on the publishing goroutine in subscription order.
// A panicking handler is recovered and logged; the rest still run.
type Dispatcher[K comparable, P any] struct {
	mu     sync.RWMutex
	nextID SubscriptionID
	subs   map[K][]subscription[P]
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher[K comparable, P any]() *Dispatcher[K, P] {
	return &Dispatcher[K, P]{
		subs: make(map[K][]subscription[P]),
	}
}

// Subscribe registers handler for name and returns its subscription ID.
func (d *Dispatcher[K, P]) Subscribe(name K, handler Handler[P]) SubscriptionID {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	d.subs[name] = append(d.subs[name], subscription[P]{id: id, handler: handler})
	return id
}

// Unsubscribe removes the handler registered under id for name.
// Returns false if no such subscription exists.
func (d *Dispatcher[K, P]) Unsubscribe(name K, id SubscriptionID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	subs := d.subs[name]
	for i, sub := range subs {
		if sub.id != id {
			continue
		}
		// Copy so that snapshots taken by in-flight Publish calls stay intact
		remaining := make([]subscription[P], 0, len(subs)-1)
		remaining = append(remaining, subs[:i]...)
		remaining = append(remaining, subs[i+1:]...)
		if len(remaining) == 0 {
			delete(d.subs, name)
		} else {
			d.subs[name] = remaining
		}
		return true
	}
	return false
}

// Publish invokes every handler subscribed to name with payload.
func (d *Dispatcher[K, P]) Publish(name K, payload P) {
	d.mu.RLock()
	subs := d.subs[name]
	d.mu.RUnlock()

	for _, sub := range subs {
		d.invoke(name, sub, payload)
	}
}

// Len returns the number of handlers subscribed to name.
func (d *Dispatcher[K, P]) Len(name K) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs[name])
}

func (d *Dispatcher[K, P]) invoke(name K, sub subscription[P], payload P) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked",
				"event", fmt.Sprint(name),
				"subscription", sub.id,
				"panic", r,
			)
		}
	}()
	sub.handler(payload)
}
