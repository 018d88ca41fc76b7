package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Outbox message lifecycle.
const (
	StatusQueued = "queued"
	StatusSent   = "sent"
	StatusFailed = "failed"
)

type Message struct {
	ID             uuid.UUID
	Template       string
	RecipientPhone string
	RecipientName  *string
	Body           string
	VisitID        *uuid.UUID
	Status         string
	Attempts       int
	CreatedAt      time.Time
	SentAt         *time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Enqueue(ctx context.Context, m *Message) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_outbox
			(id, template, recipient_phone, recipient_name, body, visit_id, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, now())`,
		m.ID, m.Template, m.RecipientPhone, m.RecipientName, m.Body, m.VisitID, StatusQueued)
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

// ListQueued returns up to limit undelivered messages, oldest first.
func (r *Repository) ListQueued(ctx context.Context, limit int) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, template, recipient_phone, recipient_name, body, visit_id,
		       status, attempts, created_at, sent_at
		FROM notification_outbox
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2`,
		StatusQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("list queued notifications: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

// ListByPhone returns a customer's message history, newest first.
func (r *Repository) ListByPhone(ctx context.Context, phone string, limit int) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, template, recipient_phone, recipient_name, body, visit_id,
		       status, attempts, created_at, sent_at
		FROM notification_outbox
		WHERE recipient_phone = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		phone, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications by phone: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_outbox
		SET status = $2, sent_at = $3, attempts = attempts + 1
		WHERE id = $1`,
		id, StatusSent, sentAt)
	if err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	return nil
}

// MarkFailed bumps the attempt counter; the message fails permanently after
// maxAttempts.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, maxAttempts int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_outbox
		SET attempts = attempts + 1,
		    status = CASE WHEN attempts + 1 >= $2 THEN $3 ELSE status END
		WHERE id = $1`,
		id, maxAttempts, StatusFailed)
	if err != nil {
		return fmt.Errorf("mark notification failed: %w", err)
	}
	return nil
}

func collect(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]Message, error) {
	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Template, &m.RecipientPhone, &m.RecipientName,
			&m.Body, &m.VisitID, &m.Status, &m.Attempts, &m.CreatedAt, &m.SentAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
