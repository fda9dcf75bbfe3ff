// Package events carries domain events between modules through an in-process
// bus, so publishers never import their subscribers.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event published on the Bus.
type Event interface {
	// EventName identifies the event type; subscribers key on it.
	EventName() string
	// OccurredAt is the publish timestamp.
	OccurredAt() time.Time
}

// BaseEvent holds the fields every event shares. Embed it and stamp it with
// NewBaseEvent at publish time.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent returns a BaseEvent stamped with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of the types it subscribed to.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error { return f(ctx, event) }

// Bus fans events out to subscribers. Publish is fire-and-forget with
// handlers run asynchronously; PublishSync waits and reports handler errors.
type Bus interface {
	Publish(ctx context.Context, event Event)
	PublishSync(ctx context.Context, event Event) error
	// Subscribe registers a handler keyed on Event.EventName().
	Subscribe(eventName string, handler Handler)
}
