package config

type Observability struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name" validate:"required_if=Enabled true"`
	TracingURL  string `mapstructure:"tracing_url" validate:"omitempty,hostname_port|url"`
}
