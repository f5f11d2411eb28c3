package events

import "context"

// Handler reacts to the event types listed by Topics. AllEvents matches
// every type. Handle may run more than once for the same event.
type Handler interface {
	Topics() []string
	Handle(ctx context.Context, event Event) error
}

type funcHandler struct {
	topics []string
	fn     func(context.Context, Event) error
}

func (h funcHandler) Topics() []string { return h.topics }

func (h funcHandler) Handle(ctx context.Context, event Event) error { return h.fn(ctx, event) }

// On builds a Handler that runs fn for each of the given event types.
func On(fn func(context.Context, Event) error, eventTypes ...string) Handler {
	return funcHandler{topics: eventTypes, fn: fn}
}
