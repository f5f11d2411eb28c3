package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// AllEvents subscribes a handler to every event type.
const AllEvents = "*"

// Bus dispatches events to handlers in-process. Dispatch is synchronous: when
// Publish returns, every handler has run.
type Bus struct {
	mu     sync.RWMutex
	topics map[string][]Handler
	logger *zap.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		topics: make(map[string][]Handler),
		logger: logger,
	}
}

// Register subscribes h to its topics.
func (b *Bus) Register(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, topic := range h.Topics() {
		b.topics[topic] = append(b.topics[topic], h)
	}
}

// subscribers returns the handlers for eventType, typed handlers first and
// wildcard handlers after, each in registration order.
func (b *Bus) subscribers(eventType string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	typed, wildcard := b.topics[eventType], b.topics[AllEvents]
	out := make([]Handler, 0, len(typed)+len(wildcard))
	return append(append(out, typed...), wildcard...)
}

// Publish runs every subscribed handler for event. A failing handler is
// logged and does not stop the others.
func (b *Bus) Publish(ctx context.Context, event Event) {
	meta := event.EventMeta()
	for _, h := range b.subscribers(meta.Type) {
		if err := h.Handle(ctx, event); err != nil {
			b.logger.Error("event handler failed",
				zap.String("event_type", meta.Type),
				zap.String("event_id", meta.ID.String()),
				zap.String("project_id", meta.ProjectID.String()),
				zap.Error(err),
			)
		}
	}
}
