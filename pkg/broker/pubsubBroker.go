package broker

import (
	"context"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/rutalog/dispatch-outbox/pkg/config"
)

// PubSubBrokerCreator defines a function type for creating Pub/Sub clients.
type PubSubBrokerCreator func(ctx context.Context, settings *config.BrokerSettings, opts ...option.ClientOption) (MessageBroker, error)

// NewPubSubClient is the default implementation of PubSubBrokerCreator.
var NewPubSubClient PubSubBrokerCreator = func(ctx context.Context, settings *config.BrokerSettings, opts ...option.ClientOption) (MessageBroker, error) {
	client, err := pubsub.NewClient(ctx, settings.ProjectID, opts...)
	if err != nil {
		return nil, err
	}
	return &pubSubBroker{client: client}, nil
}

type pubSubBroker struct {
	client *pubsub.Client
}

func (p *pubSubBroker) Publish(ctx context.Context, eventType string, payload []byte, headers map[string]string) error {
	tracer := otel.Tracer("dispatch-outbox")
	ctx, span := tracer.Start(ctx, "Publish",
		trace.WithAttributes(
			semconv.MessagingSystemKey.String("pubsub"),
			semconv.MessagingDestinationKindKey.String("topic"),
			semconv.MessagingDestinationKey.String(eventType),
		),
	)
	defer span.End()

	// Inject the trace context into the message attributes
	propagator := otel.GetTextMapPropagator()
	attributes := make(map[string]string)
	propagator.Inject(ctx, propagation.MapCarrier(attributes))

	for key, value := range headers {
		attributes[key] = value
	}

	message := &pubsub.Message{
		Data:       payload,
		Attributes: attributes,
	}

	res := p.client.Topic(eventType).Publish(ctx, message)
	_, err := res.Get(ctx) // wait for server ack
	if err != nil {
		span.RecordError(err)
		return err
	}

	span.SetAttributes(
		attribute.Int("messaging.message_payload_size_bytes", len(payload)),
	)

	return nil
}

func (p *pubSubBroker) Close() error {
	return p.client.Close()
}
