package outbox

import "context"

// Event is a named domain fact published after a state change.
type Event interface {
	EventName() string
}

type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// PubSub is what the persistence side needs from a bus: it listens to the
// same events the machine publishes.
type PubSub interface {
	Publisher
	Subscriber
}
