package events

import (
	"context"
	"errors"
	"log"
)

// LogSink subscribes to the given channels and logs every event it sees.
// It is the default consumer for the users.created and todos.created
// channels when nothing else is wired up.
func LogSink(ctx context.Context, bus Bus, channels ...string) {
	for _, channel := range channels {
		go func(channel string) {
			err := bus.Subscribe(ctx, channel, func(_ context.Context, ev Event) error {
				log.Printf("events: %s id=%s payload=%s", channel, ev.ID, ev.Data)
				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("events: subscribe %s: %v", channel, err)
			}
		}(channel)
	}
}
