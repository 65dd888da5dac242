// Package store defines the persistence surface for the delivery audit trail.
// The trail is observability data: losing it never affects pipeline behavior,
// and the permission cache deliberately stays in memory rather than here.
package store

import (
	"context"
	"time"
)

// Store persists delivery and attempt records.
type Store interface {
	// RecordDelivery writes the terminal record for one webhook delivery.
	RecordDelivery(ctx context.Context, delivery DeliveryRecord) error
	GetDelivery(ctx context.Context, deliveryID string) (DeliveryRecord, error)
	ListDeliveries(ctx context.Context, limit int) ([]DeliveryRecord, error)

	// RecordAttempts writes the execution attempt trail for a delivery.
	RecordAttempts(ctx context.Context, deliveryID string, attempts []AttemptRecord) error
	GetAttemptsByDelivery(ctx context.Context, deliveryID string) ([]AttemptRecord, error)

	Close() error
}

// DeliveryRecord is the terminal outcome of one webhook delivery.
type DeliveryRecord struct {
	DeliveryID  string
	ReceivedAt  time.Time
	EventType   string
	Action      string
	Repository  string
	Sender      string
	Intent      string
	Disposition string // one of the Disposition* constants
	Detail      string
	TotalCost   float64
}

// Dispositions a delivery can end in.
const (
	DispositionExecuted = "executed"
	DispositionSkipped  = "skipped"
	DispositionDenied   = "denied"
	DispositionFailed   = "failed"
)

// AttemptRecord is one execution attempt against one model.
type AttemptRecord struct {
	AttemptID  string
	DeliveryID string
	Model      string
	Provider   string
	StartedAt  time.Time
	DurationMS int64
	Outcome    string
	ErrorClass string
	Cost       float64
}

// Nop discards everything. It stands in when auditing is disabled so the
// pipeline never branches on "is the store configured".
type Nop struct{}

func (Nop) RecordDelivery(context.Context, DeliveryRecord) error { return nil }

func (Nop) GetDelivery(context.Context, string) (DeliveryRecord, error) {
	return DeliveryRecord{}, ErrNotFound
}

func (Nop) ListDeliveries(context.Context, int) ([]DeliveryRecord, error) { return nil, nil }

func (Nop) RecordAttempts(context.Context, string, []AttemptRecord) error { return nil }

func (Nop) GetAttemptsByDelivery(context.Context, string) ([]AttemptRecord, error) {
	return nil, nil
}

func (Nop) Close() error { return nil }
