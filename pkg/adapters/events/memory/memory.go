package memory

import (
	"context"
	"sync"

	"github.com/convreg/convreg/internal/ports"
	"github.com/google/uuid"
)

// Bus implements EventBus using in-memory handlers. Intended for
// single-process deployments and tests.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]ports.EventHandler
}

// NewBus creates a new in-memory event bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string]map[string]ports.EventHandler),
	}
}

// Publish delivers an event to all subscribers of a topic. Handlers
// run asynchronously; handler errors are dropped.
func (b *Bus) Publish(ctx context.Context, topic string, event ports.Event) error {
	b.mu.RLock()
	handlers := make([]ports.EventHandler, 0, len(b.subscribers[topic]))
	for _, handler := range b.subscribers[topic] {
		handlers = append(handlers, handler)
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func(h ports.EventHandler) {
			_ = h(ctx, event)
		}(handler)
	}

	return nil
}

// Subscribe subscribes to events on a specific topic. The
// subscription is removed when ctx is cancelled.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	id := uuid.New().String()

	b.mu.Lock()
	byID, ok := b.subscribers[topic]
	if !ok {
		byID = make(map[string]ports.EventHandler)
		b.subscribers[topic] = byID
	}
	byID[id] = handler
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subscribers[topic], id)
		b.mu.Unlock()
	}()

	return nil
}

// Unsubscribe removes all subscriptions from a topic.
func (b *Bus) Unsubscribe(ctx context.Context, topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, topic)
	return nil
}

// Close closes the event bus and clears all subscriptions.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers = make(map[string]map[string]ports.EventHandler)
	return nil
}
