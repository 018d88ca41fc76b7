package repository

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

// Review entry lifecycle.
const (
	StatusPending  = "pending"
	StatusResolved = "resolved"
)

// Resolutions an RM can record on a pending entry.
const (
	ResolutionApproveVisible = "approve_visible"
	ResolutionKeepBackup     = "keep_backup"
	ResolutionMarkDuplicate  = "mark_duplicate"
)

type ReviewEntry struct {
	ID                uuid.UUID
	PropertyID        uuid.UUID
	MatchedPropertyID uuid.UUID
	Score             float64
	Status            string
	AutoHidden        bool
	Resolution        *string
	ResolvedBy        *uuid.UUID
	Notes             *string
	CreatedAt         time.Time
	ResolvedAt        *time.Time
	Version           int64
}

// Candidate is an existing listing a new one is scored against.
type Candidate struct {
	ID            uuid.UUID
	Title         string
	LocationText  string
	AssetType     string
	Configuration string
	ImageURL      string
	Price         *float64
	AreaSqft      *float64
	Lat           *float64
	Lng           *float64
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entryColumns = `id, property_id, matched_property_id, score, status, auto_hidden,
	resolution, resolved_by, notes, created_at, resolved_at, version`

// ListActiveCandidates returns active listings in the same city, excluding the
// listing under evaluation.
func (r *Repository) ListActiveCandidates(ctx context.Context, city string, exclude uuid.UUID) ([]Candidate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, location_text, asset_type, configuration,
		       COALESCE(image_url, ''), price, area_sqft, lat, lng
		FROM properties
		WHERE lower(city) = lower($1) AND status = 'active' AND id <> $2`,
		city, exclude)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.Title, &c.LocationText, &c.AssetType, &c.Configuration,
			&c.ImageURL, &c.Price, &c.AreaSqft, &c.Lat, &c.Lng); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// QueueForReview hides the listing and inserts a pending review entry in one
// transaction.
func (r *Repository) QueueForReview(ctx context.Context, propertyID, matchedID uuid.UUID, score float64, autoHidden bool) (uuid.UUID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin queue for review: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE properties
		SET hidden_from_customers = true, duplicate_score = $2, updated_at = now()
		WHERE id = $1`,
		propertyID, score)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hide property: %w", err)
	}

	id := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO duplicate_review_queue
			(id, property_id, matched_property_id, score, status, auto_hidden, created_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, now(), 1)`,
		id, propertyID, matchedID, score, StatusPending, autoHidden)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert review entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit queue for review: %w", err)
	}
	return id, nil
}

// RecordScore stamps the best match score on a listing that stayed visible.
func (r *Repository) RecordScore(ctx context.Context, propertyID uuid.UUID, score float64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE properties SET duplicate_score = $2, updated_at = now() WHERE id = $1`,
		propertyID, score)
	if err != nil {
		return fmt.Errorf("record duplicate score: %w", err)
	}
	return nil
}

func (r *Repository) GetEntry(ctx context.Context, id uuid.UUID) (*ReviewEntry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM duplicate_review_queue WHERE id = $1`, id)
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("review entry not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get review entry: %w", err)
	}
	return e, nil
}

func (r *Repository) ListPending(ctx context.Context) ([]ReviewEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM duplicate_review_queue
		WHERE status = $1
		ORDER BY created_at ASC`, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending reviews: %w", err)
	}
	defer rows.Close()

	var out []ReviewEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// ResolveParams carries an RM decision and the property effects it implies.
type ResolveParams struct {
	Entry      *ReviewEntry
	Resolution string
	ResolvedBy uuid.UUID
	Notes      *string
	ResolvedAt time.Time
}

// Resolve applies the decision to the entry and its property atomically. The
// entry update is guarded on status and version; a lost race surfaces as an
// invalid-state error.
func (r *Repository) Resolve(ctx context.Context, p ResolveParams) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin resolve: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE duplicate_review_queue
		SET status = $3, resolution = $4, resolved_by = $5, notes = $6,
		    resolved_at = $7, version = version + 1
		WHERE id = $1 AND version = $2 AND status = $8`,
		p.Entry.ID, p.Entry.Version, StatusResolved, p.Resolution, p.ResolvedBy,
		p.Notes, p.ResolvedAt, StatusPending)
	if err != nil {
		return fmt.Errorf("resolve review entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.InvalidState("review entry was resolved concurrently")
	}

	switch p.Resolution {
	case ResolutionApproveVisible:
		_, err = tx.Exec(ctx, `
			UPDATE properties
			SET hidden_from_customers = false, primary_property_id = NULL, updated_at = now()
			WHERE id = $1`,
			p.Entry.PropertyID)
	case ResolutionKeepBackup:
		_, err = tx.Exec(ctx, `
			UPDATE properties
			SET status = 'backup', hidden_from_customers = true,
			    primary_property_id = $2, updated_at = now()
			WHERE id = $1`,
			p.Entry.PropertyID, p.Entry.MatchedPropertyID)
	case ResolutionMarkDuplicate:
		_, err = tx.Exec(ctx, `
			UPDATE properties
			SET status = 'removed', hidden_from_customers = true,
			    removal_reason = 'duplicate listing', updated_at = now()
			WHERE id = $1`,
			p.Entry.PropertyID)
	default:
		return apperr.BadRequest(fmt.Sprintf("unknown resolution %q", p.Resolution))
	}
	if err != nil {
		return fmt.Errorf("apply resolution %s: %w", p.Resolution, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit resolve: %w", err)
	}
	return nil
}

func scanEntry(row pgx.Row) (*ReviewEntry, error) {
	var e ReviewEntry
	err := row.Scan(&e.ID, &e.PropertyID, &e.MatchedPropertyID, &e.Score, &e.Status,
		&e.AutoHidden, &e.Resolution, &e.ResolvedBy, &e.Notes, &e.CreatedAt,
		&e.ResolvedAt, &e.Version)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
