package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	StatusSubmitted = "submitted"
	StatusFailed    = "failed"
)

// Entry records one submit attempt. The checkout core consults it only to
// replay an already-successful submission for the same idempotency key.
type Entry struct {
	ID              string
	SessionID       string
	Establecimiento string
	IdempotencyKey  string
	Status          string
	OrderID         string
	TotalAmount     float64
	CreatedAt       time.Time
}

type Repository interface {
	Record(ctx context.Context, e *Entry) error
	FindByIdempotencyKey(ctx context.Context, key string) (*Entry, error)
	ListBySession(ctx context.Context, sessionID string) ([]Entry, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) Record(ctx context.Context, e *Entry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO submissions (id, session_id, establecimiento, idempotency_key, status, order_id, total_amount, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.SessionID, e.Establecimiento, e.IdempotencyKey, e.Status, e.OrderID, e.TotalAmount, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// FindByIdempotencyKey returns the latest entry for the key, or nil, nil
// when the key has never been seen.
func (r *repo) FindByIdempotencyKey(ctx context.Context, key string) (*Entry, error) {
	var e Entry
	err := r.db.QueryRowContext(ctx,
		`SELECT id, session_id, establecimiento, idempotency_key, status, order_id, total_amount, created_at
         FROM submissions WHERE idempotency_key = $1
         ORDER BY created_at DESC, status ASC LIMIT 1`,
		key,
	).Scan(&e.ID, &e.SessionID, &e.Establecimiento, &e.IdempotencyKey, &e.Status, &e.OrderID, &e.TotalAmount, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select submission: %w", err)
	}
	return &e, nil
}

func (r *repo) ListBySession(ctx context.Context, sessionID string) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, establecimiento, idempotency_key, status, order_id, total_amount, created_at
         FROM submissions WHERE session_id = $1 ORDER BY created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("select submissions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Establecimiento, &e.IdempotencyKey, &e.Status, &e.OrderID, &e.TotalAmount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return entries, nil
}
