package store

import (
	"context"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
)

type SpannerStore struct {
	client *spanner.Client
}

func (s *SpannerStore) RecordPublished(ctx context.Context, eventType string, payload map[string]any) (*OutboxRecord, error) {
	return s.insert(ctx, eventType, payload, true)
}

func (s *SpannerStore) RecordPending(ctx context.Context, eventType string, payload map[string]any) (*OutboxRecord, error) {
	return s.insert(ctx, eventType, payload, false)
}

func (s *SpannerStore) insert(ctx context.Context, eventType string, payload map[string]any, published bool) (*OutboxRecord, error) {
	record, err := NewRecord(eventType, payload, published)
	if err != nil {
		return nil, err
	}

	_, err = s.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		stmt := spanner.Statement{
			SQL: `INSERT INTO outbox (id, event_type, payload, created_at, published)
                  VALUES (@id, @eventType, @payload, @createdAt, @published)`,
			Params: map[string]interface{}{
				"id":        record.ID,
				"eventType": record.EventType,
				"payload":   string(record.Payload),
				"createdAt": record.CreatedAt,
				"published": record.Published,
			},
		}
		_, err := txn.Update(ctx, stmt)
		return err
	})
	if err != nil {
		return nil, &PersistenceError{Op: "insert", Err: err}
	}
	return record, nil
}

func (s *SpannerStore) ListPublishedOrderIDs(ctx context.Context) (map[int64]struct{}, error) {
	stmt := spanner.Statement{
		SQL: `SELECT id, payload FROM outbox WHERE published = true`,
	}

	iter := s.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	var records []OutboxRecord
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, &PersistenceError{Op: "ListPublishedOrderIDs", Err: err}
		}

		var record OutboxRecord
		var payload string
		if err := row.Columns(&record.ID, &payload); err != nil {
			return nil, &PersistenceError{Op: "ListPublishedOrderIDs", Err: err}
		}
		record.Payload = []byte(payload)
		records = append(records, record)
	}

	return collectOrderIDs(records)
}

func (s *SpannerStore) FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error) {
	stmt := spanner.Statement{
		SQL: `SELECT id, event_type, payload, created_at FROM outbox
              WHERE published = false ORDER BY created_at LIMIT @limit`,
		Params: map[string]interface{}{
			"limit": int64(limit),
		},
	}

	iter := s.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	var records []OutboxRecord
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, &PersistenceError{Op: "FetchUnpublished", Err: err}
		}

		var record OutboxRecord
		var payload string
		if err := row.Columns(&record.ID, &record.EventType, &payload, &record.CreatedAt); err != nil {
			return nil, &PersistenceError{Op: "FetchUnpublished", Err: err}
		}
		record.Payload = []byte(payload)
		records = append(records, record)
	}

	return records, nil
}

func (s *SpannerStore) MarkPublished(ctx context.Context, recordID string) error {
	_, err := s.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		stmt := spanner.Statement{
			SQL: `UPDATE outbox SET published = true WHERE id = @id`,
			Params: map[string]interface{}{
				"id": recordID,
			},
		}
		_, err := txn.Update(ctx, stmt)
		return err
	})
	if err != nil {
		return &PersistenceError{Op: "MarkPublished", Err: err}
	}
	return nil
}
