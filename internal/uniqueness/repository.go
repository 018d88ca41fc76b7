package uniqueness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"visitops_backend/platform/apperr"
)

// PgStore reads completed visits straight from the visits tables.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) GetCompletedVisit(ctx context.Context, visitID uuid.UUID) (*CompletedVisit, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT v.id, c.phone_norm, v.completed_at, v.is_unique_visit
		FROM visits v
		JOIN customers c ON c.id = v.customer_id
		WHERE v.id = $1`,
		visitID)

	var v CompletedVisit
	var completedAt *time.Time
	err := row.Scan(&v.ID, &v.CustomerPhoneNorm, &completedAt, &v.IsUnique)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("visit not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get completed visit: %w", err)
	}
	if completedAt != nil {
		v.CompletedAt = *completedAt
	}
	return &v, nil
}

func (s *PgStore) ListCompletedByPhone(ctx context.Context, phoneNorm string) ([]CompletedVisit, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT v.id, c.phone_norm, v.completed_at, v.is_unique_visit
		FROM visits v
		JOIN customers c ON c.id = v.customer_id
		WHERE c.phone_norm = $1 AND v.status = 'completed' AND v.completed_at IS NOT NULL
		ORDER BY v.completed_at ASC, v.id ASC`,
		phoneNorm)
	if err != nil {
		return nil, fmt.Errorf("list completed visits: %w", err)
	}
	defer rows.Close()

	var out []CompletedVisit
	for rows.Next() {
		var v CompletedVisit
		if err := rows.Scan(&v.ID, &v.CustomerPhoneNorm, &v.CompletedAt, &v.IsUnique); err != nil {
			return nil, fmt.Errorf("scan completed visit: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// SetUniqueness stamps the verdict only once; a concurrent classification of
// the same visit keeps whichever verdict landed first.
func (s *PgStore) SetUniqueness(ctx context.Context, visitID uuid.UUID, unique bool) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE visits SET is_unique_visit = $2 WHERE id = $1 AND is_unique_visit IS NULL`,
		visitID, unique)
	if err != nil {
		return fmt.Errorf("set visit uniqueness: %w", err)
	}
	return nil
}

var _ Store = (*PgStore)(nil)
