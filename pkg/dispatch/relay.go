package dispatch

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rutalog/dispatch-outbox/pkg/broker"
	"github.com/rutalog/dispatch-outbox/pkg/config"
	"github.com/rutalog/dispatch-outbox/pkg/store"
)

const (
	defaultPollInterval = 10 * time.Second
	defaultBatchSize    = 10
)

// Relay dispatches staged outbox records to the broker and marks them
// published. Records whose dispatch fails stay pending and are retried on the
// next poll.
type Relay struct {
	outbox       store.OutboxStore
	bus          broker.MessageBroker
	tracer       trace.Tracer
	log          logrus.FieldLogger
	pollInterval time.Duration
	batchSize    int
}

func NewRelay(outbox store.OutboxStore, bus broker.MessageBroker, cfg *config.Settings, log logrus.FieldLogger) *Relay {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Relay{
		outbox:       outbox,
		bus:          bus,
		tracer:       otel.Tracer("dispatch-outbox"),
		log:          log,
		pollInterval: pollInterval,
		batchSize:    batchSize,
	}
}

// Run polls until the context is canceled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		r.processBatch(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Relay) processBatch(ctx context.Context) {
	records, err := r.outbox.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		r.log.WithError(err).Error("Failed to fetch unpublished records")
		return
	}

	for _, record := range records {
		ctx, span := r.tracer.Start(ctx, "RelayOutboxRecord", trace.WithAttributes(
			attribute.String("record.id", record.ID),
			attribute.String("record.event_type", record.EventType),
			attribute.String("record.created_at", record.CreatedAt.String()),
		))

		if err := r.bus.Publish(ctx, record.EventType, record.Payload, nil); err != nil {
			r.log.WithError(err).WithField("record_id", record.ID).Error("Failed to dispatch record")
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			continue
		}

		if err := r.outbox.MarkPublished(ctx, record.ID); err != nil {
			// delivered but still pending: the next poll will re-dispatch it
			r.log.WithError(err).WithField("record_id", record.ID).Error("Record delivered but not marked published")
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			continue
		}

		r.log.WithFields(logrus.Fields{
			"record_id":  record.ID,
			"event_type": record.EventType,
		}).Info("Record dispatched")
		span.End()
	}
}
