package outbound

import "context"

// EventPublisherPort sends serialized domain events to an external broker.
type EventPublisherPort interface {
	// Publish delivers body under routingKey.
	Publish(ctx context.Context, routingKey string, body []byte) error
}
