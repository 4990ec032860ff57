package messaging

import (
	"context"
)

// Broker publishes events to other services. Nothing in this service
// consumes them, so there is no subscribe side.
type Broker interface {
	Publish(ctx context.Context, channel string, message []byte) error
	Close() error
}

// ChannelPrefix namespaces every channel this service publishes on.
const ChannelPrefix = "hms."

// Channel returns the broker channel for an event type.
func Channel(eventType string) string {
	return ChannelPrefix + eventType
}
