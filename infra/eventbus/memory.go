// Package eventbus provides in-memory and Kafka-backed event buses.
package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/crowdpledge/pkg/domain/events"
	"github.com/amirasaad/crowdpledge/pkg/eventbus"
)

// MemoryEventBus dispatches events synchronously to in-process handlers.
type MemoryEventBus struct {
	handlers  map[events.EventType][]eventbus.HandlerFunc
	mu        sync.RWMutex
	logger    *slog.Logger
	published []events.Event
}

// NewWithMemory creates a new in-memory event bus.
func NewWithMemory(logger *slog.Logger) *MemoryEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryEventBus{
		handlers:  make(map[events.EventType][]eventbus.HandlerFunc),
		logger:    logger.With("bus", "memory"),
		published: make([]events.Event, 0),
	}
}

// Register registers a handler for a specific event type.
func (b *MemoryEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit dispatches the event to all registered handlers for its type. Handler
// errors are logged and do not stop the remaining handlers.
func (b *MemoryEventBus) Emit(ctx context.Context, event events.Event) error {
	eventType := events.EventType(event.Type())
	b.mu.Lock()
	handlers := append([]eventbus.HandlerFunc{}, b.handlers[eventType]...)
	b.published = append(b.published, event)
	b.mu.Unlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			b.logger.Error("handler error", "event_type", eventType, "error", err)
		}
	}
	return nil
}

// ClearPublished clears the list of published events.
func (b *MemoryEventBus) ClearPublished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = make([]events.Event, 0)
}

// Published returns the events emitted so far.
func (b *MemoryEventBus) Published() []events.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]events.Event{}, b.published...)
}

var _ eventbus.Bus = (*MemoryEventBus)(nil)
