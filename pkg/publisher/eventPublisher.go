package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rutalog/dispatch-outbox/pkg/broker"
	"github.com/rutalog/dispatch-outbox/pkg/config"
	"github.com/rutalog/dispatch-outbox/pkg/store"
)

// EventTypeBlocksReadyDistribution is the event published when a consolidated
// block of orders is handed over to distribution.
const EventTypeBlocksReadyDistribution = "consolidated.blocks.ready.distribution"

// EventMessage is the unit handed to the broker. It is not persisted itself;
// persistence is the OutboxRecord written alongside it.
type EventMessage struct {
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload"`
}

// DeliveredNotRecordedError is the one genuinely dangerous failure: the broker
// accepted the event but the outbox write failed, so the idempotency set does
// not know about it. A blind retry will deliver the event twice.
type DeliveredNotRecordedError struct {
	EventType string
	Err       error
}

func (e *DeliveredNotRecordedError) Error() string {
	return fmt.Sprintf("event %q was delivered to the broker but not recorded in the outbox: %v; re-running will publish it again", e.EventType, e.Err)
}

func (e *DeliveredNotRecordedError) Unwrap() error { return e.Err }

// EventPublisher publishes domain events and records each publish durably.
type EventPublisher struct {
	bus        broker.MessageBroker
	outbox     store.OutboxStore
	mode       string
	brokerName string
	timeout    time.Duration
	tracer     trace.Tracer
}

func New(bus broker.MessageBroker, outbox store.OutboxStore, cfg *config.Settings) *EventPublisher {
	return &EventPublisher{
		bus:        bus,
		outbox:     outbox,
		mode:       cfg.Mode(),
		brokerName: cfg.Broker.Type,
		timeout:    cfg.DispatchTimeout(),
		tracer:     otel.Tracer("dispatch-outbox"),
	}
}

// Staged reports whether Publish only writes pending rows for the relay
// instead of dispatching to the broker itself.
func (p *EventPublisher) Staged() bool {
	return p.mode == config.PublishModeStaged
}

// Publish sends the event to the broker and records it in the outbox.
//
// In direct mode the broker dispatch strictly precedes the outbox write: a
// transport failure leaves no outbox trace, so re-running the flow is safe
// and will not double count. A store failure after a successful dispatch is
// surfaced as *DeliveredNotRecordedError. In staged mode only a pending
// outbox row is written; the relay dispatches it later.
func (p *EventPublisher) Publish(ctx context.Context, eventType string, payload map[string]any) error {
	ctx, span := p.tracer.Start(ctx, "PublishEvent",
		trace.WithAttributes(attribute.String("event.type", eventType)),
	)
	defer span.End()

	if p.mode == config.PublishModeStaged {
		if _, err := p.outbox.RecordPending(ctx, eventType, payload); err != nil {
			span.RecordError(err)
			return err
		}
		return nil
	}

	message := EventMessage{EventType: eventType, Payload: payload}
	raw, err := json.Marshal(message.Payload)
	if err != nil {
		err = &store.SerializationError{EventType: eventType, Err: err}
		span.RecordError(err)
		return err
	}

	if err := p.dispatch(ctx, message.EventType, raw); err != nil {
		err = &broker.TransportError{Broker: p.brokerName, Err: err}
		span.RecordError(err)
		return err
	}

	if _, err := p.outbox.RecordPublished(ctx, eventType, payload); err != nil {
		err = &DeliveredNotRecordedError{EventType: eventType, Err: err}
		span.RecordError(err)
		return err
	}

	return nil
}

func (p *EventPublisher) dispatch(ctx context.Context, eventType string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.bus.Publish(ctx, eventType, payload, nil)
}
