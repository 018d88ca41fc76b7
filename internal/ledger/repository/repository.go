package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Flag struct {
	ID         uuid.UUID
	BrokerID   uuid.UUID
	IncidentID *uuid.UUID
	Reason     string
	Level      int
	IssuedAt   time.Time
	DecaysAt   time.Time
}

type Penalty struct {
	ID        uuid.UUID
	BrokerID  uuid.UUID
	Year      int
	Month     int
	Reason    string
	CreatedAt time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ActiveFlags returns flags whose decay timestamp is still in the future at
// asOf, newest first. The timestamp comparison is the only liveness test.
func (r *Repository) ActiveFlags(ctx context.Context, brokerID uuid.UUID, asOf time.Time) ([]Flag, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, broker_id, incident_id, reason, level, issued_at, decays_at
		FROM broker_flags
		WHERE broker_id = $1 AND decays_at > $2
		ORDER BY issued_at DESC`,
		brokerID, asOf)
	if err != nil {
		return nil, fmt.Errorf("list active flags: %w", err)
	}
	defer rows.Close()
	return scanFlags(rows)
}

// AllFlags returns the broker's full flag history, decayed flags included.
func (r *Repository) AllFlags(ctx context.Context, brokerID uuid.UUID) ([]Flag, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, broker_id, incident_id, reason, level, issued_at, decays_at
		FROM broker_flags
		WHERE broker_id = $1
		ORDER BY issued_at DESC`,
		brokerID)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	defer rows.Close()
	return scanFlags(rows)
}

// IssueParams describes a flag insert plus its side effects.
type IssueParams struct {
	Flag          Flag
	RecordPenalty bool
	PenaltyReason string
	Deactivate    bool
}

// IssueFlag inserts the flag and, in the same transaction, the monthly penalty
// row and the advisory broker status update its level calls for. The penalty
// insert is idempotent per broker, calendar month and reason.
func (r *Repository) IssueFlag(ctx context.Context, p IssueParams) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin issue flag: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO broker_flags (id, broker_id, incident_id, reason, level, issued_at, decays_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.Flag.ID, p.Flag.BrokerID, p.Flag.IncidentID, p.Flag.Reason,
		p.Flag.Level, p.Flag.IssuedAt, p.Flag.DecaysAt)
	if err != nil {
		return fmt.Errorf("insert flag: %w", err)
	}

	if p.RecordPenalty {
		_, err = tx.Exec(ctx, `
			INSERT INTO broker_penalties (id, broker_id, year, month, reason, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (broker_id, year, month, reason) DO NOTHING`,
			uuid.New(), p.Flag.BrokerID, p.Flag.IssuedAt.Year(), int(p.Flag.IssuedAt.Month()),
			p.PenaltyReason, p.Flag.IssuedAt)
		if err != nil {
			return fmt.Errorf("insert penalty: %w", err)
		}
	}

	if p.Deactivate {
		_, err = tx.Exec(ctx, `
			UPDATE brokers
			SET status = 'deactivated', deactivated_at = $2, updated_at = now()
			WHERE id = $1 AND status <> 'deactivated'`,
			p.Flag.BrokerID, p.Flag.IssuedAt)
		if err != nil {
			return fmt.Errorf("deactivate broker: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit issue flag: %w", err)
	}
	return nil
}

// ReactivateBroker clears the advisory deactivation marker once flags have
// decayed below the deactivation threshold.
func (r *Repository) ReactivateBroker(ctx context.Context, brokerID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE brokers
		SET status = 'active', deactivated_at = NULL, updated_at = now()
		WHERE id = $1 AND status = 'deactivated'`,
		brokerID)
	if err != nil {
		return fmt.Errorf("reactivate broker: %w", err)
	}
	return nil
}

func (r *Repository) Penalties(ctx context.Context, brokerID uuid.UUID) ([]Penalty, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, broker_id, year, month, reason, created_at
		FROM broker_penalties
		WHERE broker_id = $1
		ORDER BY year DESC, month DESC`,
		brokerID)
	if err != nil {
		return nil, fmt.Errorf("list penalties: %w", err)
	}
	defer rows.Close()

	var out []Penalty
	for rows.Next() {
		var p Penalty
		if err := rows.Scan(&p.ID, &p.BrokerID, &p.Year, &p.Month, &p.Reason, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan penalty: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanFlags(rows rowScanner) ([]Flag, error) {
	var out []Flag
	for rows.Next() {
		var f Flag
		if err := rows.Scan(&f.ID, &f.BrokerID, &f.IncidentID, &f.Reason,
			&f.Level, &f.IssuedAt, &f.DecaysAt); err != nil {
			return nil, fmt.Errorf("scan flag: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
