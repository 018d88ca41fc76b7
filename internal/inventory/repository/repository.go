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

// Property lifecycle. Backup listings stay hidden from customers but remain
// reachable for rebooking through their primary listing.
const (
	StatusActive    = "active"
	StatusBackup    = "backup"
	StatusSold      = "sold"
	StatusWithdrawn = "withdrawn"
	StatusRemoved   = "removed"
)

type Property struct {
	ID                  uuid.UUID
	BrokerID            uuid.UUID
	Title               string
	Description         *string
	City                string
	LocationText        string
	AssetType           string
	Configuration       string
	Price               *float64
	AreaSqft            *float64
	Lat                 *float64
	Lng                 *float64
	ImageURL            *string
	Status              string
	HiddenFromCustomers bool
	DuplicateScore      *float64
	PrimaryPropertyID   *uuid.UUID
	RemovalReason       *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Version             int64
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const propertyColumns = `id, broker_id, title, description, city, location_text, asset_type,
	configuration, price, area_sqft, lat, lng, image_url, status, hidden_from_customers,
	duplicate_score, primary_property_id, removal_reason, created_at, updated_at, version`

func (r *Repository) Create(ctx context.Context, p *Property) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO properties
			(id, broker_id, title, description, city, location_text, asset_type,
			 configuration, price, area_sqft, lat, lng, image_url, status,
			 hidden_from_customers, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now(), now(), 1)`,
		p.ID, p.BrokerID, p.Title, p.Description, p.City, p.LocationText, p.AssetType,
		p.Configuration, p.Price, p.AreaSqft, p.Lat, p.Lng, p.ImageURL, p.Status,
		p.HiddenFromCustomers)
	if err != nil {
		return fmt.Errorf("insert property: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Property, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)
	p, err := scanProperty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("property not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get property: %w", err)
	}
	return p, nil
}

// ListByBroker returns the broker's own listings, hidden ones included.
func (r *Repository) ListByBroker(ctx context.Context, brokerID uuid.UUID) ([]Property, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+propertyColumns+`
		FROM properties
		WHERE broker_id = $1 AND status NOT IN ($2, $3, $4)
		ORDER BY created_at DESC`,
		brokerID, StatusSold, StatusWithdrawn, StatusRemoved)
	if err != nil {
		return nil, fmt.Errorf("list broker properties: %w", err)
	}
	defer rows.Close()
	return collectProperties(rows)
}

// ListVisible returns what customers may browse: active listings that are not
// hidden pending duplicate review.
func (r *Repository) ListVisible(ctx context.Context, city string) ([]Property, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+propertyColumns+`
		FROM properties
		WHERE status = $1 AND hidden_from_customers = false
		  AND ($2 = '' OR lower(city) = lower($2))
		ORDER BY created_at DESC`,
		StatusActive, city)
	if err != nil {
		return nil, fmt.Errorf("list visible properties: %w", err)
	}
	defer rows.Close()
	return collectProperties(rows)
}

// Remove retires a listing and logs why in the same transaction. The status
// update is version guarded.
func (r *Repository) Remove(ctx context.Context, p *Property, newStatus, reason string, removedAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin remove property: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE properties
		SET status = $3, hidden_from_customers = true, removal_reason = $4,
		    updated_at = now(), version = version + 1
		WHERE id = $1 AND version = $2 AND status IN ($5, $6)`,
		p.ID, p.Version, newStatus, reason, StatusActive, StatusBackup)
	if err != nil {
		return fmt.Errorf("retire property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.InvalidState("property changed while removing, reload and retry")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO property_removal_log (id, property_id, broker_id, reason, outcome, removed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), p.ID, p.BrokerID, reason, newStatus, removedAt)
	if err != nil {
		return fmt.Errorf("log property removal: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit remove property: %w", err)
	}
	return nil
}

func collectProperties(rows pgx.Rows) ([]Property, error) {
	var out []Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanProperty(row pgx.Row) (*Property, error) {
	var p Property
	err := row.Scan(&p.ID, &p.BrokerID, &p.Title, &p.Description, &p.City, &p.LocationText,
		&p.AssetType, &p.Configuration, &p.Price, &p.AreaSqft, &p.Lat, &p.Lng,
		&p.ImageURL, &p.Status, &p.HiddenFromCustomers, &p.DuplicateScore,
		&p.PrimaryPropertyID, &p.RemovalReason, &p.CreatedAt, &p.UpdatedAt, &p.Version)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
