package dispatch

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/rutalog/dispatch-outbox/pkg/config"
	"github.com/rutalog/dispatch-outbox/pkg/publisher"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestProcessBatch_DispatchesAndMarksPublished(t *testing.T) {
	outbox := &memStore{}
	ctx := context.Background()

	_, err := outbox.RecordPending(ctx, publisher.EventTypeBlocksReadyDistribution, map[string]any{"order_id": 1})
	assert.NoError(t, err)
	_, err = outbox.RecordPending(ctx, publisher.EventTypeBlocksReadyDistribution, map[string]any{"order_id": 2})
	assert.NoError(t, err)

	bus := &fakeBroker{}
	relay := NewRelay(outbox, bus, &config.Settings{}, testLogger())

	relay.processBatch(ctx)

	assert.Len(t, bus.published, 2)
	for _, record := range outbox.records {
		assert.True(t, record.Published)
	}

	ids, err := outbox.ListPublishedOrderIDs(ctx)
	assert.NoError(t, err)
	assert.Equal(t, map[int64]struct{}{1: {}, 2: {}}, ids)
}

func TestProcessBatch_BrokerFailureKeepsRecordsPending(t *testing.T) {
	outbox := &memStore{}
	ctx := context.Background()

	_, err := outbox.RecordPending(ctx, publisher.EventTypeBlocksReadyDistribution, map[string]any{"order_id": 1})
	assert.NoError(t, err)

	bus := &fakeBroker{err: errors.New("broker unreachable")}
	relay := NewRelay(outbox, bus, &config.Settings{}, testLogger())

	relay.processBatch(ctx)

	// still pending, picked up again on the next poll
	pending, err := outbox.FetchUnpublished(ctx, 10)
	assert.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestProcessBatch_NothingPending(t *testing.T) {
	outbox := &memStore{}
	bus := &fakeBroker{}
	relay := NewRelay(outbox, bus, &config.Settings{}, testLogger())

	relay.processBatch(context.Background())

	assert.Empty(t, bus.published)
}
