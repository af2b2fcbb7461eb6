package events

import (
	"log"
	"sync"
)

// Handler receives a published event payload.
type Handler func(payload interface{})

// Bus is an in-process publish/subscribe registry. It is constructed once at
// startup and handed to the services that publish through it. Delivery is
// fire-and-forget: each subscriber gets at most one delivery attempt per
// publish and no ordering is guaranteed across subscribers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
	}
}

// Subscribe registers a handler for an event name.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish delivers the payload to every subscriber of the event name. A
// panicking subscriber is logged and does not affect the others.
func (b *Bus) Publish(name string, payload interface{}) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[name]))
	copy(handlers, b.handlers[name])
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(name, h, payload)
	}
}

func (b *Bus) dispatch(name string, h Handler, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("event subscriber panicked on %s: %v", name, r)
		}
	}()
	h(payload)
}
