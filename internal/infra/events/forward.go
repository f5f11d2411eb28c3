package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// BrokerPublisher sends serialized events to an external broker.
type BrokerPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// NewForwarder returns a handler that relays every event to broker as JSON,
// routed by event type. Broker failures are reported to the bus, which logs
// them without affecting other handlers.
func NewForwarder(broker BrokerPublisher) Handler {
	return On(func(ctx context.Context, event Event) error {
		body, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode %s: %w", event.EventType(), err)
		}
		if err := broker.Publish(ctx, event.EventType(), body); err != nil {
			return fmt.Errorf("forward %s: %w", event.EventType(), err)
		}
		return nil
	}, AllEvents)
}
