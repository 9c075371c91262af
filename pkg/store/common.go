package store

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "dispatch-outbox"

func addDBStatsToSpan(span trace.Span, statement string, recordCount int, duration time.Duration) {
	span.SetAttributes(
		attribute.Int("recordCount", recordCount),
		attribute.String("db.statement", statement),
		attribute.Float64("db.execution_time_ms", float64(duration.Milliseconds())),
	)
}
