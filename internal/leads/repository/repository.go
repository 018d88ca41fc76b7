package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Lead is one stated requirement for a customer. The same customer carries
// one lead per distinct (city, preference, budget) combination.
type Lead struct {
	ID              uuid.UUID `json:"id"`
	CustomerID      uuid.UUID `json:"customerId"`
	CustomerName    string    `json:"customerName"`
	CustomerPhone   string    `json:"customerPhone"`
	City            string    `json:"city"`
	LocationPref    string    `json:"locationPref"`
	ConfigPref      string    `json:"configPref"`
	BudgetMin       float64   `json:"budgetMin"`
	BudgetMax       float64   `json:"budgetMax"`
	RequirementText string    `json:"requirementText"`
	Source          string    `json:"source"`
	LastSyncedAt    time.Time `json:"lastSyncedAt"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert writes a lead keyed by customer + city + preferences + budget range.
// Re-syncing an existing requirement refreshes its free text, source and sync
// time instead of duplicating the lead. Returns true when a new row was
// created.
func (r *Repository) Upsert(ctx context.Context, lead *Lead) (bool, error) {
	// xmax = 0 holds only for freshly inserted rows.
	var inserted bool
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leads (id, customer_id, city, location_pref, config_pref,
			budget_min, budget_max, requirement_text, source, last_synced_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (customer_id, city, location_pref, config_pref, budget_min, budget_max)
		DO UPDATE SET requirement_text = EXCLUDED.requirement_text,
			source = EXCLUDED.source, last_synced_at = EXCLUDED.last_synced_at
		RETURNING (xmax = 0)`,
		lead.ID, lead.CustomerID, lead.City, lead.LocationPref, lead.ConfigPref,
		lead.BudgetMin, lead.BudgetMax, lead.RequirementText, lead.Source, lead.LastSyncedAt).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert lead: %w", err)
	}
	return inserted, nil
}

func (r *Repository) List(ctx context.Context, limit int) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.id, l.customer_id, c.name, c.phone_norm, l.city, l.location_pref,
			l.config_pref, l.budget_min, l.budget_max, l.requirement_text,
			l.source, l.last_synced_at, l.created_at
		FROM leads l
		JOIN customers c ON c.id = l.customer_id
		ORDER BY l.last_synced_at DESC
		LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		var l Lead
		if err := rows.Scan(&l.ID, &l.CustomerID, &l.CustomerName, &l.CustomerPhone,
			&l.City, &l.LocationPref, &l.ConfigPref, &l.BudgetMin, &l.BudgetMax,
			&l.RequirementText, &l.Source, &l.LastSyncedAt, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
