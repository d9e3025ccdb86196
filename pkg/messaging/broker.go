package messaging

import (
	"context"
)

// Broker is the pub/sub seam between the outbox processor and event
// consumers. Publish marshals the message to JSON; Subscribe delivers
// raw payloads until the context is cancelled.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
