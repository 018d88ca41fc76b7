package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"visitops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Challenge represents the otp_challenges database model
type Challenge struct {
	ID          uuid.UUID `db:"id"`
	VisitID     uuid.UUID `db:"visit_id"`
	Code        string    `db:"code"`
	IssuedAt    time.Time `db:"issued_at"`
	ExpiresAt   time.Time `db:"expires_at"`
	Attempts    int       `db:"attempts"`
	Consumed    bool      `db:"consumed"`
	Invalidated bool      `db:"invalidated"`
}

// Repository provides database operations for OTP challenges and the
// completion write path.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new verification repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// IssueChallenge invalidates any prior unconsumed challenge for the visit and
// inserts the new one, atomically.
func (r *Repository) IssueChallenge(ctx context.Context, ch *Challenge) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin challenge issue: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE otp_challenges SET invalidated = true
		 WHERE visit_id = $1 AND consumed = false AND invalidated = false`,
		ch.VisitID,
	)
	if err != nil {
		return fmt.Errorf("failed to invalidate prior challenges: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO otp_challenges (id, visit_id, code, issued_at, expires_at, attempts, consumed, invalidated)
		VALUES ($1, $2, $3, $4, $5, 0, false, false)`,
		ch.ID, ch.VisitID, ch.Code, ch.IssuedAt, ch.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit challenge issue: %w", err)
	}
	return nil
}

// LatestChallenge returns the most recently issued unconsumed challenge for
// the visit, including exhausted ones, or nil when there is none.
func (r *Repository) LatestChallenge(ctx context.Context, visitID uuid.UUID) (*Challenge, error) {
	var ch Challenge
	query := `SELECT id, visit_id, code, issued_at, expires_at, attempts, consumed, invalidated
		FROM otp_challenges WHERE visit_id = $1 AND consumed = false
		ORDER BY issued_at DESC LIMIT 1`

	err := r.pool.QueryRow(ctx, query, visitID).Scan(
		&ch.ID, &ch.VisitID, &ch.Code, &ch.IssuedAt, &ch.ExpiresAt,
		&ch.Attempts, &ch.Consumed, &ch.Invalidated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return &ch, nil
}

// RecordFailedAttempt increments the attempt counter and invalidates the
// challenge once the budget is spent. Returns the new attempt count.
func (r *Repository) RecordFailedAttempt(ctx context.Context, challengeID uuid.UUID, maxAttempts int) (int, error) {
	var attempts int
	query := `UPDATE otp_challenges
		SET attempts = attempts + 1,
			invalidated = (attempts + 1 >= $2)
		WHERE id = $1 AND consumed = false
		RETURNING attempts`

	if err := r.pool.QueryRow(ctx, query, challengeID, maxAttempts).Scan(&attempts); err != nil {
		return 0, attemptRecordErr(err)
	}
	return attempts, nil
}

// attemptRecordErr maps the no-row outcome of the attempt update to the race
// loser's error: a concurrent completion consumed the challenge between the
// code check and this write.
func attemptRecordErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.InvalidState("challenge no longer active")
	}
	return fmt.Errorf("failed to record attempt: %w", err)
}

// CompletionParams carries the atomic completion write set.
type CompletionParams struct {
	ChallengeID    uuid.UUID
	VisitID        uuid.UUID
	VisitVersion   int64
	SlotID         uuid.UUID
	CompletionMode string
	CompletedAt    time.Time
	CheckinLat     *float64
	CheckinLng     *float64
	DistanceMeters *float64
	PhotoObjectKey *string
	ExifLat        *float64
	ExifLng        *float64
}

// CompleteVisit consumes the challenge, completes the visit and closes the
// slot in one transaction. The visit update is version-guarded; a concurrent
// terminal transition loses with invalid_state.
func (r *Repository) CompleteVisit(ctx context.Context, p CompletionParams) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin completion: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE otp_challenges SET consumed = true
		 WHERE id = $1 AND consumed = false AND invalidated = false`,
		p.ChallengeID,
	)
	if err != nil {
		return fmt.Errorf("failed to consume challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.InvalidState("challenge already consumed")
	}

	tag, err = tx.Exec(ctx, `
		UPDATE visits SET status = 'completed', completion_mode = $1, completed_at = $2,
			checkin_lat = $3, checkin_lng = $4, distance_meters = $5,
			photo_object_key = $6, exif_lat = $7, exif_lng = $8,
			version = version + 1, updated_at = now()
		WHERE id = $9 AND version = $10 AND status = 'scheduled'`,
		p.CompletionMode, p.CompletedAt, p.CheckinLat, p.CheckinLng,
		p.DistanceMeters, p.PhotoObjectKey, p.ExifLat, p.ExifLng,
		p.VisitID, p.VisitVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to complete visit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.InvalidState("visit already transitioned")
	}

	_, err = tx.Exec(ctx,
		`UPDATE slots SET status = 'completed', version = version + 1, updated_at = now()
		 WHERE id = $1 AND status = 'booked'`,
		p.SlotID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete slot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit completion: %w", err)
	}
	return nil
}
