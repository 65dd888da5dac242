// Package sqlite persists the delivery audit trail in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/brandon/webhook-agent/internal/store"
)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at dbPath. Use ":memory:" for an
// in-memory database in tests.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
	-- One row per accepted webhook delivery, written once at pipeline exit
	CREATE TABLE IF NOT EXISTS deliveries (
		delivery_id TEXT PRIMARY KEY,
		received_at INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		action TEXT NOT NULL,
		repository TEXT NOT NULL,
		sender TEXT NOT NULL,
		intent TEXT,
		disposition TEXT NOT NULL CHECK(disposition IN ('executed', 'skipped', 'denied', 'failed')),
		detail TEXT,
		total_cost REAL DEFAULT 0.0
	);

	-- One row per model attempt within a delivery
	CREATE TABLE IF NOT EXISTS attempts (
		attempt_id TEXT PRIMARY KEY,
		delivery_id TEXT NOT NULL,
		model TEXT NOT NULL,
		provider TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		error_class TEXT,
		cost REAL DEFAULT 0.0,
		FOREIGN KEY (delivery_id) REFERENCES deliveries(delivery_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_delivery ON attempts(delivery_id);
	CREATE INDEX IF NOT EXISTS idx_deliveries_received ON deliveries(received_at DESC);
	CREATE INDEX IF NOT EXISTS idx_deliveries_repository ON deliveries(repository);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordDelivery stores the terminal record for one delivery.
func (s *Store) RecordDelivery(ctx context.Context, delivery store.DeliveryRecord) error {
	query := `
		INSERT INTO deliveries (delivery_id, received_at, event_type, action, repository, sender, intent, disposition, detail, total_cost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		delivery.DeliveryID,
		delivery.ReceivedAt.Unix(),
		delivery.EventType,
		delivery.Action,
		delivery.Repository,
		delivery.Sender,
		delivery.Intent,
		delivery.Disposition,
		delivery.Detail,
		delivery.TotalCost,
	)
	if err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}

// GetDelivery retrieves one delivery by ID.
func (s *Store) GetDelivery(ctx context.Context, deliveryID string) (store.DeliveryRecord, error) {
	query := `
		SELECT delivery_id, received_at, event_type, action, repository, sender, intent, disposition, detail, total_cost
		FROM deliveries WHERE delivery_id = ?
	`

	var record store.DeliveryRecord
	var receivedAt int64
	err := s.db.QueryRowContext(ctx, query, deliveryID).Scan(
		&record.DeliveryID,
		&receivedAt,
		&record.EventType,
		&record.Action,
		&record.Repository,
		&record.Sender,
		&record.Intent,
		&record.Disposition,
		&record.Detail,
		&record.TotalCost,
	)
	if err == sql.ErrNoRows {
		return store.DeliveryRecord{}, fmt.Errorf("delivery %s: %w", deliveryID, store.ErrNotFound)
	}
	if err != nil {
		return store.DeliveryRecord{}, fmt.Errorf("get delivery: %w", err)
	}
	record.ReceivedAt = time.Unix(receivedAt, 0).UTC()
	return record, nil
}

// ListDeliveries returns the most recent deliveries, newest first.
func (s *Store) ListDeliveries(ctx context.Context, limit int) ([]store.DeliveryRecord, error) {
	query := `
		SELECT delivery_id, received_at, event_type, action, repository, sender, intent, disposition, detail, total_cost
		FROM deliveries ORDER BY received_at DESC LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []store.DeliveryRecord
	for rows.Next() {
		var record store.DeliveryRecord
		var receivedAt int64
		if err := rows.Scan(
			&record.DeliveryID,
			&receivedAt,
			&record.EventType,
			&record.Action,
			&record.Repository,
			&record.Sender,
			&record.Intent,
			&record.Disposition,
			&record.Detail,
			&record.TotalCost,
		); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		record.ReceivedAt = time.Unix(receivedAt, 0).UTC()
		deliveries = append(deliveries, record)
	}
	return deliveries, rows.Err()
}

// RecordAttempts stores the attempt trail for a delivery in one transaction,
// so a partial trail never appears in the database.
func (s *Store) RecordAttempts(ctx context.Context, deliveryID string, attempts []store.AttemptRecord) error {
	if len(attempts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO attempts (attempt_id, delivery_id, model, provider, started_at, duration_ms, outcome, error_class, cost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, attempt := range attempts {
		if _, err := tx.ExecContext(ctx, query,
			attempt.AttemptID,
			deliveryID,
			attempt.Model,
			attempt.Provider,
			attempt.StartedAt.Unix(),
			attempt.DurationMS,
			attempt.Outcome,
			attempt.ErrorClass,
			attempt.Cost,
		); err != nil {
			return fmt.Errorf("record attempt %s: %w", attempt.AttemptID, err)
		}
	}
	return tx.Commit()
}

// GetAttemptsByDelivery returns a delivery's attempts in start order.
func (s *Store) GetAttemptsByDelivery(ctx context.Context, deliveryID string) ([]store.AttemptRecord, error) {
	query := `
		SELECT attempt_id, delivery_id, model, provider, started_at, duration_ms, outcome, error_class, cost
		FROM attempts WHERE delivery_id = ? ORDER BY started_at, attempt_id
	`

	rows, err := s.db.QueryContext(ctx, query, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("get attempts: %w", err)
	}
	defer rows.Close()

	var attempts []store.AttemptRecord
	for rows.Next() {
		var record store.AttemptRecord
		var startedAt int64
		if err := rows.Scan(
			&record.AttemptID,
			&record.DeliveryID,
			&record.Model,
			&record.Provider,
			&startedAt,
			&record.DurationMS,
			&record.Outcome,
			&record.ErrorClass,
			&record.Cost,
		); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		record.StartedAt = time.Unix(startedAt, 0).UTC()
		attempts = append(attempts, record)
	}
	return attempts, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
