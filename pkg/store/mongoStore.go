package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const outboxCollection = "outbox"

type MongoStore struct {
	db *mongo.Database
}

type mongoRecord struct {
	ID        string    `bson:"_id"`
	EventType string    `bson:"event_type"`
	Payload   string    `bson:"payload"`
	CreatedAt time.Time `bson:"created_at"`
	Published bool      `bson:"published"`
}

func (m *MongoStore) RecordPublished(ctx context.Context, eventType string, payload map[string]any) (*OutboxRecord, error) {
	return m.insert(ctx, eventType, payload, true)
}

func (m *MongoStore) RecordPending(ctx context.Context, eventType string, payload map[string]any) (*OutboxRecord, error) {
	return m.insert(ctx, eventType, payload, false)
}

func (m *MongoStore) insert(ctx context.Context, eventType string, payload map[string]any, published bool) (*OutboxRecord, error) {
	record, err := NewRecord(eventType, payload, published)
	if err != nil {
		return nil, err
	}

	doc := mongoRecord{
		ID:        record.ID,
		EventType: record.EventType,
		Payload:   string(record.Payload),
		CreatedAt: record.CreatedAt,
		Published: record.Published,
	}
	if _, err := m.db.Collection(outboxCollection).InsertOne(ctx, doc); err != nil {
		return nil, &PersistenceError{Op: "insert", Err: err}
	}
	return record, nil
}

func (m *MongoStore) ListPublishedOrderIDs(ctx context.Context) (map[int64]struct{}, error) {
	records, err := m.find(ctx, "ListPublishedOrderIDs", bson.M{"published": true}, 0)
	if err != nil {
		return nil, err
	}
	return collectOrderIDs(records)
}

func (m *MongoStore) FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error) {
	return m.find(ctx, "FetchUnpublished", bson.M{"published": false}, int64(limit))
}

func (m *MongoStore) find(ctx context.Context, op string, filter bson.M, limit int64) ([]OutboxRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := m.db.Collection(outboxCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, &PersistenceError{Op: op, Err: err}
	}
	defer cursor.Close(ctx)

	var records []OutboxRecord
	for cursor.Next(ctx) {
		var doc mongoRecord
		if err := cursor.Decode(&doc); err != nil {
			return nil, &PersistenceError{Op: op, Err: err}
		}
		records = append(records, OutboxRecord{
			ID:        doc.ID,
			EventType: doc.EventType,
			Payload:   []byte(doc.Payload),
			CreatedAt: doc.CreatedAt,
			Published: doc.Published,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, &PersistenceError{Op: op, Err: err}
	}
	return records, nil
}

func (m *MongoStore) MarkPublished(ctx context.Context, recordID string) error {
	_, err := m.db.Collection(outboxCollection).UpdateOne(ctx,
		bson.M{"_id": recordID},
		bson.M{"$set": bson.M{"published": true}})
	if err != nil {
		return &PersistenceError{Op: "MarkPublished", Err: err}
	}
	return nil
}
