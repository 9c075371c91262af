package store

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// payloadOrderIDKey is the payload key the idempotency set is derived from.
const payloadOrderIDKey = "order_id"

// OutboxRecord is a durable trace of a publish attempt. Published only ever
// transitions false -> true; CreatedAt is set once at creation.
type OutboxRecord struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	Published bool      `json:"published"`
}

// NewRecord builds an OutboxRecord from an event type and payload mapping.
// The payload is serialized to JSON; CreatedAt is the current UTC time.
func NewRecord(eventType string, payload map[string]any, published bool) (*OutboxRecord, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, &SerializationError{EventType: eventType, Err: err}
	}
	return &OutboxRecord{
		ID:        uuid.NewString(),
		EventType: eventType,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
		Published: published,
	}, nil
}

// DecodePayload parses the serialized payload back into a mapping.
func (r *OutboxRecord) DecodePayload() (map[string]any, error) {
	payload, err := decodePayload(r.Payload)
	if err != nil {
		return nil, &DeserializationError{RecordID: r.ID, Err: err}
	}
	return payload, nil
}

func decodePayload(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// orderIDFromPayload extracts a numeric order_id from a serialized payload.
// A payload that is not a JSON object is an error; a missing or non-numeric
// order_id is not (the record simply contributes nothing to the set).
func orderIDFromPayload(recordID string, raw []byte) (int64, bool, error) {
	payload, err := decodePayload(raw)
	if err != nil {
		return 0, false, &DeserializationError{RecordID: recordID, Err: err}
	}
	number, ok := payload[payloadOrderIDKey].(json.Number)
	if !ok {
		return 0, false, nil
	}
	id, err := number.Int64()
	if err != nil {
		return 0, false, nil
	}
	return id, true, nil
}
