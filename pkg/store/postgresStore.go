package store

import (
	"context"
	"database/sql"
	"time"

	"go.opentelemetry.io/otel"
)

type PostgresStore struct {
	db *sql.DB // using database/sql
}

func (p *PostgresStore) RecordPublished(ctx context.Context, eventType string, payload map[string]any) (*OutboxRecord, error) {
	return p.insert(ctx, "RecordPublished", eventType, payload, true)
}

func (p *PostgresStore) RecordPending(ctx context.Context, eventType string, payload map[string]any) (*OutboxRecord, error) {
	return p.insert(ctx, "RecordPending", eventType, payload, false)
}

func (p *PostgresStore) insert(ctx context.Context, op, eventType string, payload map[string]any, published bool) (*OutboxRecord, error) {
	record, err := NewRecord(eventType, payload, published)
	if err != nil {
		return nil, err
	}

	_, err = p.withTransaction(ctx, op, func(ctx context.Context, tx *sql.Tx) ([]OutboxRecord, error) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO outbox (id, event_type, payload, created_at, published) VALUES ($1, $2, $3, $4, $5)`,
			record.ID, record.EventType, string(record.Payload), record.CreatedAt, record.Published)
		if err != nil {
			return nil, &PersistenceError{Op: op, Err: err}
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (p *PostgresStore) ListPublishedOrderIDs(ctx context.Context) (map[int64]struct{}, error) {
	records, err := p.withTransaction(ctx, "ListPublishedOrderIDs", func(ctx context.Context, tx *sql.Tx) ([]OutboxRecord, error) {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, payload FROM outbox WHERE published = true`)
		if err != nil {
			return nil, &PersistenceError{Op: "ListPublishedOrderIDs", Err: err}
		}
		defer rows.Close()

		var records []OutboxRecord
		for rows.Next() {
			var record OutboxRecord
			if err := rows.Scan(&record.ID, &record.Payload); err != nil {
				return nil, &PersistenceError{Op: "ListPublishedOrderIDs", Err: err}
			}
			records = append(records, record)
		}

		if err := rows.Err(); err != nil {
			return nil, &PersistenceError{Op: "ListPublishedOrderIDs", Err: err}
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}

	return collectOrderIDs(records)
}

func (p *PostgresStore) FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error) {
	return p.withTransaction(ctx, "FetchUnpublished", func(ctx context.Context, tx *sql.Tx) ([]OutboxRecord, error) {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, event_type, payload, created_at FROM outbox
             WHERE published = false ORDER BY created_at LIMIT $1 FOR UPDATE SKIP LOCKED`, limit)
		if err != nil {
			return nil, &PersistenceError{Op: "FetchUnpublished", Err: err}
		}
		defer rows.Close()

		var records []OutboxRecord
		for rows.Next() {
			var record OutboxRecord
			if err := rows.Scan(&record.ID, &record.EventType, &record.Payload, &record.CreatedAt); err != nil {
				return nil, &PersistenceError{Op: "FetchUnpublished", Err: err}
			}
			records = append(records, record)
		}

		if err := rows.Err(); err != nil {
			return nil, &PersistenceError{Op: "FetchUnpublished", Err: err}
		}
		return records, nil
	})
}

func (p *PostgresStore) MarkPublished(ctx context.Context, recordID string) error {
	_, err := p.withTransaction(ctx, "MarkPublished", func(ctx context.Context, tx *sql.Tx) ([]OutboxRecord, error) {
		_, err := tx.ExecContext(ctx,
			`UPDATE outbox SET published = true WHERE id = $1`, recordID)
		if err != nil {
			return nil, &PersistenceError{Op: "MarkPublished", Err: err}
		}
		return nil, nil
	})
	return err
}

func (p *PostgresStore) withTransaction(ctx context.Context, spanName string, fn func(ctx context.Context, tx *sql.Tx) ([]OutboxRecord, error)) ([]OutboxRecord, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, spanName)
	defer span.End()

	start := time.Now()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		return nil, &PersistenceError{Op: spanName, Err: err}
	}

	records, err := fn(ctx, tx)
	if err != nil {
		tx.Rollback()
		span.RecordError(err)
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		return nil, &PersistenceError{Op: spanName, Err: err}
	}

	addDBStatsToSpan(span, spanName, len(records), time.Since(start))

	return records, nil
}

// collectOrderIDs derives the idempotency set from published record payloads.
func collectOrderIDs(records []OutboxRecord) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{})
	for _, record := range records {
		id, ok, err := orderIDFromPayload(record.ID, record.Payload)
		if err != nil {
			return nil, err
		}
		if ok {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}
