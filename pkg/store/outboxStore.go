package store

import (
	"context"
)

// OutboxStore defines the database operations for outbox records.
type OutboxStore interface {
	// RecordPublished appends a record with published = true. Used by the
	// direct publish mode, where broker dispatch has already succeeded.
	RecordPublished(ctx context.Context, eventType string, payload map[string]any) (*OutboxRecord, error)
	// RecordPending appends a record with published = false. Used by the
	// staged publish mode; the relay dispatches it later.
	RecordPending(ctx context.Context, eventType string, payload map[string]any) (*OutboxRecord, error)
	// ListPublishedOrderIDs scans published records and returns the
	// deduplicated set of numeric order_id values found in their payloads.
	ListPublishedOrderIDs(ctx context.Context) (map[int64]struct{}, error)
	// FetchUnpublished retrieves records not yet dispatched, oldest first.
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	// MarkPublished flips a record to published. Never the reverse.
	MarkPublished(ctx context.Context, recordID string) error
}
