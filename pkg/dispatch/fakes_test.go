package dispatch

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rutalog/dispatch-outbox/pkg/orders"
	"github.com/rutalog/dispatch-outbox/pkg/store"
)

// fakeOrders serves a fixed order set.
type fakeOrders struct {
	all      []orders.Order
	vanished map[int64]bool
}

func (f *fakeOrders) FindByStatus(ctx context.Context, status orders.Status) ([]orders.Order, error) {
	var result []orders.Order
	for _, order := range f.all {
		if order.Status == status {
			result = append(result, order)
		}
	}
	return result, nil
}

func (f *fakeOrders) Find(ctx context.Context, id int64) (*orders.Order, error) {
	if f.vanished[id] {
		return nil, nil
	}
	for i := range f.all {
		if f.all[i].ID == id {
			return &f.all[i], nil
		}
	}
	return nil, nil
}

// memStore is an in-memory OutboxStore.
type memStore struct {
	records []store.OutboxRecord
}

func (m *memStore) RecordPublished(ctx context.Context, eventType string, payload map[string]any) (*store.OutboxRecord, error) {
	return m.insert(eventType, payload, true)
}

func (m *memStore) RecordPending(ctx context.Context, eventType string, payload map[string]any) (*store.OutboxRecord, error) {
	return m.insert(eventType, payload, false)
}

func (m *memStore) insert(eventType string, payload map[string]any, published bool) (*store.OutboxRecord, error) {
	record, err := store.NewRecord(eventType, payload, published)
	if err != nil {
		return nil, err
	}
	m.records = append(m.records, *record)
	return record, nil
}

func (m *memStore) ListPublishedOrderIDs(ctx context.Context) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{})
	for _, record := range m.records {
		if !record.Published {
			continue
		}
		payload, err := record.DecodePayload()
		if err != nil {
			return nil, err
		}
		if n, ok := payload["order_id"].(json.Number); ok {
			if id, err := n.Int64(); err == nil {
				ids[id] = struct{}{}
			}
		}
	}
	return ids, nil
}

func (m *memStore) FetchUnpublished(ctx context.Context, limit int) ([]store.OutboxRecord, error) {
	var pending []store.OutboxRecord
	for _, record := range m.records {
		if len(pending) == limit {
			break
		}
		if !record.Published {
			pending = append(pending, record)
		}
	}
	return pending, nil
}

func (m *memStore) MarkPublished(ctx context.Context, recordID string) error {
	for i := range m.records {
		if m.records[i].ID == recordID {
			m.records[i].Published = true
			return nil
		}
	}
	return &store.PersistenceError{Op: "MarkPublished", Err: errors.New("record not found")}
}

// fakeBroker records dispatched messages and can be made to fail.
type fakeBroker struct {
	err       error
	published []string // event types in dispatch order
	payloads  [][]byte
}

func (f *fakeBroker) Publish(ctx context.Context, eventType string, payload []byte, headers map[string]string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, eventType)
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeBroker) Close() error { return nil }
