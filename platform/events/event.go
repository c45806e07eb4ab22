// Package events carries application lifecycle and request-error notifications
// from the framework to whoever subscribed to them by name.
package events

import (
	"context"
	"time"
)

// Event is anything published on a Bus. Subscribers are keyed by EventName.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent stamps an event with its creation time. Embed it in concrete events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent stamps the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// Handler reacts to one published event. A returned error is reported to the
// publisher by PublishSync and logged by Publish.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error { return f(ctx, event) }

// Bus delivers events to the handlers subscribed under their name.
type Bus interface {
	Subscribe(eventName string, handler Handler)

	// PublishSync calls the handlers in subscription order and returns once
	// all have run. Their errors are joined.
	PublishSync(ctx context.Context, event Event) error

	// Publish is fire-and-forget: each handler runs on its own goroutine.
	Publish(ctx context.Context, event Event)
}
