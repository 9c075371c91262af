package telemetry

import (
	"testing"

	"github.com/rutalog/dispatch-outbox/pkg/config"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
)

func TestInit_Success(t *testing.T) {
	cfg := config.Observability{
		Enabled:     true,
		ServiceName: "dispatch-outbox-test",
		TracingURL:  "localhost:4318",
	}

	shutdown, err := Init(cfg)
	assert.NoError(t, err)
	assert.NotNil(t, shutdown)

	// Ensure the global tracer provider is set
	tp := otel.GetTracerProvider()
	assert.NotNil(t, tp)

	shutdown()
}

func TestInit_EmptyTracingURL(t *testing.T) {
	cfg := config.Observability{
		ServiceName: "dispatch-outbox-test",
		TracingURL:  "",
	}

	shutdown, err := Init(cfg)
	assert.Error(t, err)
	assert.Nil(t, shutdown)
}

func TestInit_EmptyServiceName(t *testing.T) {
	cfg := config.Observability{
		ServiceName: "",
		TracingURL:  "localhost:4318",
	}

	shutdown, err := Init(cfg)
	assert.Error(t, err)
	assert.Nil(t, shutdown)
}
