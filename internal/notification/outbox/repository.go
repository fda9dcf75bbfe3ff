// Package outbox buffers notification broadcasts in Postgres so the
// scheduler can deliver them out of the request path.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusEnqueued Status = "enqueued"
	StatusSent     Status = "sent"
	StatusFailed   Status = "failed"
)

type Record struct {
	ID        uuid.UUID
	EventName string
	Payload   json.RawMessage
	Status    Status
	RunAt     time.Time
	Attempts  int
}

type InsertParams struct {
	EventName string
	Payload   any
	RunAt     time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, p InsertParams) (uuid.UUID, error) {
	if p.EventName == "" {
		return uuid.Nil, fmt.Errorf("event name is required")
	}
	if p.RunAt.IsZero() {
		p.RunAt = time.Now().UTC()
	}

	payloadBytes, err := json.Marshal(p.Payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal outbox payload: %w", err)
	}

	var id uuid.UUID
	err = r.pool.QueryRow(ctx, `
		INSERT INTO notification_outbox (event_name, payload, run_at)
		VALUES ($1, $2, $3)
		RETURNING id`,
		p.EventName, payloadBytes, p.RunAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Record, error) {
	var rec Record
	var status string
	err := r.pool.QueryRow(ctx, `
		SELECT id, event_name, payload, status, run_at, attempts
		FROM notification_outbox
		WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.EventName, &rec.Payload, &status, &rec.RunAt, &rec.Attempts)
	if err != nil {
		return Record{}, err
	}
	rec.Status = Status(status)
	return rec, nil
}

// ClaimPending atomically moves due pending rows to enqueued and returns
// them. FOR UPDATE SKIP LOCKED lets concurrent dispatchers share the table
// without double-claiming.
func (r *Repository) ClaimPending(ctx context.Context, limit int) ([]Record, error) {
	if limit < 1 {
		limit = 50
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `WITH due AS (
		SELECT id
		FROM notification_outbox
		WHERE status = 'pending' AND run_at <= now()
		ORDER BY run_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	)
	UPDATE notification_outbox o
	SET status = 'enqueued'
	FROM due
	WHERE o.id = due.id
	RETURNING o.id, o.event_name, o.payload, o.status, o.run_at, o.attempts`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		var rec Record
		var status string
		if err := rows.Scan(&rec.ID, &rec.EventName, &rec.Payload, &status, &rec.RunAt, &rec.Attempts); err != nil {
			return nil, err
		}
		rec.Status = Status(status)
		results = append(results, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return results, nil
}

// MarkPending returns a record to the queue, typically after an enqueue
// failure, so the next dispatcher pass retries it.
func (r *Repository) MarkPending(ctx context.Context, id uuid.UUID, lastError *string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_outbox
		SET status = 'pending', last_error = $2
		WHERE id = $1`,
		id, lastError)
	return err
}

func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_outbox
		SET status = 'sent', attempts = attempts + 1, last_error = NULL
		WHERE id = $1`,
		id)
	return err
}

func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_outbox
		SET status = 'failed', attempts = attempts + 1, last_error = $2
		WHERE id = $1`,
		id, lastError)
	return err
}
