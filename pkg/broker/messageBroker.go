package broker

import "context"

// MessageBroker defines the operations to publish messages to a broker.
type MessageBroker interface {
	// Publish sends the payload under the given event type with optional headers.
	Publish(ctx context.Context, eventType string, payload []byte, headers map[string]string) error
	// Close cleans up any resources (connections).
	Close() error
}
