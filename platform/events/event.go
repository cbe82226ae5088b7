// Package events carries scheduler lifecycle notices to in-process
// observers such as the status tracker.
package events

import (
	"context"
	"time"
)

// Event is a notice published on a Bus. Topic selects the subscribers.
type Event interface {
	Topic() string
	At() time.Time
}

// Stamp is embedded by events to carry the time they were raised.
type Stamp struct {
	Time time.Time `json:"at"`
}

// At returns the raise time.
func (s Stamp) At() time.Time { return s.Time }

// StampAt stamps an event with a reading of the caller's clock, so a fake
// clock in tests flows through to observers.
func StampAt(t time.Time) Stamp { return Stamp{Time: t} }

// Handler reacts to one event.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes events to the handlers subscribed to their topic.
type Bus interface {
	// PublishSync runs handlers in subscription order and joins their errors.
	PublishSync(ctx context.Context, event Event) error
	Subscribe(topic string, handler Handler)
}
