package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/rutalog/dispatch-outbox/pkg/config"
)

type RedisStreamBrokerCreator func(ctx context.Context, settings *config.BrokerSettings) (MessageBroker, error)

var NewRedisStreamBroker RedisStreamBrokerCreator = func(ctx context.Context, settings *config.BrokerSettings) (MessageBroker, error) {
	opts, err := redis.ParseURL(settings.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisStreamBroker{client: client, stream: settings.Stream}, nil
}

type redisStreamBroker struct {
	client *redis.Client
	stream string
}

func (r *redisStreamBroker) Publish(ctx context.Context, eventType string, payload []byte, headers map[string]string) error {
	tracer := otel.Tracer("dispatch-outbox")
	ctx, span := tracer.Start(ctx, "Publish",
		trace.WithAttributes(
			semconv.MessagingSystemKey.String("redis"),
			semconv.MessagingDestinationKindKey.String("stream"),
			semconv.MessagingDestinationKey.String(r.stream),
		),
	)
	defer span.End()

	// Inject the trace context into the message headers
	propagator := otel.GetTextMapPropagator()
	traceHeaders := make(map[string]string)
	propagator.Inject(ctx, propagation.MapCarrier(traceHeaders))
	for k, v := range headers {
		traceHeaders[k] = v
	}

	rawHeaders, err := json.Marshal(traceHeaders)
	if err != nil {
		span.RecordError(err)
		return err
	}

	err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]interface{}{
			"type":    eventType,
			"payload": payload,
			"headers": rawHeaders,
		},
	}).Err()
	if err != nil {
		span.RecordError(err)
		return err
	}

	span.SetAttributes(
		attribute.Int("messaging.message_payload_size_bytes", len(payload)),
	)

	return nil
}

func (r *redisStreamBroker) Close() error {
	return r.client.Close()
}
