package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandon/webhook-agent/internal/adapter/store/sqlite"
	"github.com/brandon/webhook-agent/internal/store"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleDelivery(id string, receivedAt time.Time) store.DeliveryRecord {
	return store.DeliveryRecord{
		DeliveryID:  id,
		ReceivedAt:  receivedAt,
		EventType:   "issue_comment",
		Action:      "created",
		Repository:  "acme/widgets",
		Sender:      "alice",
		Intent:      "patch",
		Disposition: store.DispositionExecuted,
		TotalCost:   0.42,
	}
}

func TestRecordAndGetDelivery(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	received := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordDelivery(ctx, sampleDelivery("d-1", received)))

	got, err := s.GetDelivery(ctx, "d-1")
	require.NoError(t, err)
	assert.Equal(t, "acme/widgets", got.Repository)
	assert.Equal(t, store.DispositionExecuted, got.Disposition)
	assert.Equal(t, received, got.ReceivedAt)
	assert.InDelta(t, 0.42, got.TotalCost, 1e-9)
}

func TestGetDeliveryNotFound(t *testing.T) {
	s := newStore(t)
	_, err := s.GetDelivery(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListDeliveriesNewestFirst(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"d-1", "d-2", "d-3"} {
		require.NoError(t, s.RecordDelivery(ctx, sampleDelivery(id, base.Add(time.Duration(i)*time.Minute))))
	}

	deliveries, err := s.ListDeliveries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, deliveries, 2)
	assert.Equal(t, "d-3", deliveries[0].DeliveryID)
	assert.Equal(t, "d-2", deliveries[1].DeliveryID)
}

func TestRecordAndGetAttempts(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	received := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordDelivery(ctx, sampleDelivery("d-1", received)))

	attempts := []store.AttemptRecord{
		{
			AttemptID:  store.GenerateAttemptID("d-1", 0),
			DeliveryID: "d-1",
			Model:      "claude-sonnet-4",
			Provider:   "anthropic",
			StartedAt:  received,
			DurationMS: 1500,
			Outcome:    "retryable",
			ErrorClass: "server_error",
			Cost:       0.01,
		},
		{
			AttemptID:  store.GenerateAttemptID("d-1", 1),
			DeliveryID: "d-1",
			Model:      "claude-sonnet-4",
			Provider:   "anthropic",
			StartedAt:  received.Add(2 * time.Second),
			DurationMS: 900,
			Outcome:    "success",
			Cost:       0.41,
		},
	}
	require.NoError(t, s.RecordAttempts(ctx, "d-1", attempts))

	got, err := s.GetAttemptsByDelivery(ctx, "d-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "server_error", got[0].ErrorClass)
	assert.Equal(t, "success", got[1].Outcome)
	assert.Equal(t, int64(900), got[1].DurationMS)
}

func TestRecordAttemptsRequiresDelivery(t *testing.T) {
	s := newStore(t)
	err := s.RecordAttempts(context.Background(), "no-such-delivery", []store.AttemptRecord{
		{AttemptID: "a-1", DeliveryID: "no-such-delivery", Model: "gpt-5", Provider: "openai", StartedAt: time.Now(), Outcome: "success"},
	})
	assert.Error(t, err, "foreign key constraint rejects orphan attempts")
}

func TestRecordAttemptsEmptyTrail(t *testing.T) {
	s := newStore(t)
	assert.NoError(t, s.RecordAttempts(context.Background(), "d-1", nil))
}

func TestInvalidDispositionRejected(t *testing.T) {
	s := newStore(t)
	delivery := sampleDelivery("d-1", time.Now())
	delivery.Disposition = "bogus"
	assert.Error(t, s.RecordDelivery(context.Background(), delivery))
}
