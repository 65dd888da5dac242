package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brandon/webhook-agent/internal/store"
)

func TestNopStore(t *testing.T) {
	ctx := context.Background()
	var s store.Store = store.Nop{}

	assert.NoError(t, s.RecordDelivery(ctx, store.DeliveryRecord{DeliveryID: "d-1"}))
	assert.NoError(t, s.RecordAttempts(ctx, "d-1", []store.AttemptRecord{{AttemptID: "a-1"}}))

	_, err := s.GetDelivery(ctx, "d-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	deliveries, err := s.ListDeliveries(ctx, 10)
	assert.NoError(t, err)
	assert.Empty(t, deliveries)

	assert.NoError(t, s.Close())
}
