package store

import "fmt"

// PersistenceError wraps a failure to reach or write the underlying store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("outbox %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// SerializationError wraps a payload that could not be serialized for storage.
type SerializationError struct {
	EventType string
	Err       error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize payload for %q: %v", e.EventType, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// DeserializationError wraps a stored payload that could not be parsed back
// into a mapping. It fails the whole idempotency scan: skipping the record
// would shrink the published set and re-offer already published orders.
type DeserializationError struct {
	RecordID string
	Err      error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("parse payload of outbox record %s: %v", e.RecordID, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }
