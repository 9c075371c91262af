package broker

import (
	"context"
	"fmt"

	"github.com/rutalog/dispatch-outbox/pkg/config"
)

func NewBroker(ctx context.Context, cfg *config.BrokerSettings) (MessageBroker, error) {
	switch cfg.Type {
	case "rabbitmq":
		return NewRabbitMqBroker(ctx, cfg)
	case "gcp-pubsub":
		return NewPubSubClient(ctx, cfg)
	case "redis-stream":
		return NewRedisStreamBroker(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported broker type: %s", cfg.Type)
	}
}
