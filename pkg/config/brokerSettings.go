package config

import "time"

// BrokerSettings holds configuration for connecting to a message broker.
type BrokerSettings struct {
	Type      string        `mapstructure:"type" validate:"required,oneof=rabbitmq gcp-pubsub redis-stream"`
	URL       string        `mapstructure:"url"`
	Exchange  string        `mapstructure:"exchange"`   // RabbitMQ exchange name
	ProjectID string        `mapstructure:"project_id"` // GCP Pub/Sub
	Stream    string        `mapstructure:"stream"`     // Redis stream key
	Timeout   time.Duration `mapstructure:"timeout"`    // per-dispatch deadline
}
