// Package events provides the notification fan-out channel. Publication is
// fire-and-forget from the publisher's point of view: delivery is not
// guaranteed or retried by this service.
package events

import "context"

// Event is a broker-agnostic payload delivered to subscribers.
type Event struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes an event. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, ev Event) error

// Bus defines the broker-agnostic operations used by the app.
type Bus interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}
