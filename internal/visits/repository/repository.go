package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"visitops_backend/internal/visits/domain"
	"visitops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Slot represents the slot database model
type Slot struct {
	ID           uuid.UUID  `db:"id"`
	BrokerID     uuid.UUID  `db:"broker_id"`
	City         string     `db:"city"`
	StartAt      time.Time  `db:"start_at"`
	EndAt        time.Time  `db:"end_at"`
	Status       string     `db:"status"`
	CancelReason *string    `db:"cancel_reason"`
	CancelledAt  *time.Time `db:"cancelled_at"`
	Version      int64      `db:"version"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// Visit represents the visit database model with the customer joined in.
type Visit struct {
	ID                  uuid.UUID  `db:"id"`
	SlotID              uuid.UUID  `db:"slot_id"`
	PropertyID          uuid.UUID  `db:"property_id"`
	BrokerID            uuid.UUID  `db:"broker_id"`
	CustomerID          uuid.UUID  `db:"customer_id"`
	CustomerName        string     `db:"customer_name"`
	CustomerPhone       string     `db:"customer_phone"`
	StartAt             time.Time  `db:"start_at"`
	EndAt               time.Time  `db:"end_at"`
	Status              string     `db:"status"`
	CancelledBy         *string    `db:"cancelled_by"`
	CancellationReason  *string    `db:"cancellation_reason"`
	PriorityRebookUntil *time.Time `db:"priority_rebook_until"`
	CheckinLat          *float64   `db:"checkin_lat"`
	CheckinLng          *float64   `db:"checkin_lng"`
	DistanceMeters      *float64   `db:"distance_meters"`
	PhotoObjectKey      *string    `db:"photo_object_key"`
	ExifLat             *float64   `db:"exif_lat"`
	ExifLng             *float64   `db:"exif_lng"`
	IsUniqueVisit       *bool      `db:"is_unique_visit"`
	CompletionMode      *string    `db:"completion_mode"`
	CompletedAt         *time.Time `db:"completed_at"`
	Version             int64      `db:"version"`
	CreatedAt           time.Time  `db:"created_at"`
}

const (
	slotNotFoundMsg  = "slot not found"
	visitNotFoundMsg = "visit not found"

	visitColumns = `v.id, v.slot_id, v.property_id, v.broker_id, v.customer_id,
		c.name, c.phone_norm, v.start_at, v.end_at, v.status, v.cancelled_by,
		v.cancellation_reason, v.priority_rebook_until, v.checkin_lat, v.checkin_lng,
		v.distance_meters, v.photo_object_key, v.exif_lat, v.exif_lng,
		v.is_unique_visit, v.completion_mode, v.completed_at, v.version, v.created_at`
)

// Repository provides database operations for slots and visits
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new visits repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(
		&v.ID, &v.SlotID, &v.PropertyID, &v.BrokerID, &v.CustomerID,
		&v.CustomerName, &v.CustomerPhone, &v.StartAt, &v.EndAt, &v.Status,
		&v.CancelledBy, &v.CancellationReason, &v.PriorityRebookUntil,
		&v.CheckinLat, &v.CheckinLng, &v.DistanceMeters, &v.PhotoObjectKey,
		&v.ExifLat, &v.ExifLng, &v.IsUniqueVisit, &v.CompletionMode,
		&v.CompletedAt, &v.Version, &v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateSlot inserts a new open slot.
func (r *Repository) CreateSlot(ctx context.Context, slot *Slot) error {
	query := `
		INSERT INTO slots (id, broker_id, city, start_at, end_at, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, now(), now())`

	_, err := r.pool.Exec(ctx, query,
		slot.ID, slot.BrokerID, slot.City, slot.StartAt, slot.EndAt, slot.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create slot: %w", err)
	}
	return nil
}

// HasOverlappingSlot reports whether the broker already has a non-cancelled
// slot intersecting the given window.
func (r *Repository) HasOverlappingSlot(ctx context.Context, brokerID uuid.UUID, startAt, endAt time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (
		SELECT 1 FROM slots
		WHERE broker_id = $1 AND status IN ('open', 'booked')
		AND start_at < $3 AND end_at > $2
	)`
	if err := r.pool.QueryRow(ctx, query, brokerID, startAt, endAt).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check slot overlap: %w", err)
	}
	return exists, nil
}

// GetSlot retrieves a slot by ID.
func (r *Repository) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	var s Slot
	query := `SELECT id, broker_id, city, start_at, end_at, status, cancel_reason,
		cancelled_at, version, created_at, updated_at
		FROM slots WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.BrokerID, &s.City, &s.StartAt, &s.EndAt, &s.Status,
		&s.CancelReason, &s.CancelledAt, &s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(slotNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	return &s, nil
}

// ListSlotsByBroker returns all of a broker's slots, newest first.
func (r *Repository) ListSlotsByBroker(ctx context.Context, brokerID uuid.UUID) ([]Slot, error) {
	query := `SELECT id, broker_id, city, start_at, end_at, status, cancel_reason,
		cancelled_at, version, created_at, updated_at
		FROM slots WHERE broker_id = $1 ORDER BY start_at DESC`

	rows, err := r.pool.Query(ctx, query, brokerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	defer rows.Close()

	return collectSlots(rows)
}

// ListOpenSlotsForBrokers returns future open slots for the given brokers.
func (r *Repository) ListOpenSlotsForBrokers(ctx context.Context, brokerIDs []uuid.UUID, after time.Time) ([]Slot, error) {
	if len(brokerIDs) == 0 {
		return []Slot{}, nil
	}

	query := `SELECT id, broker_id, city, start_at, end_at, status, cancel_reason,
		cancelled_at, version, created_at, updated_at
		FROM slots WHERE broker_id = ANY($1) AND status = 'open' AND start_at > $2
		ORDER BY start_at ASC`

	rows, err := r.pool.Query(ctx, query, brokerIDs, after)
	if err != nil {
		return nil, fmt.Errorf("failed to list open slots: %w", err)
	}
	defer rows.Close()

	return collectSlots(rows)
}

func collectSlots(rows pgx.Rows) ([]Slot, error) {
	slots := make([]Slot, 0)
	for rows.Next() {
		var s Slot
		if err := rows.Scan(
			&s.ID, &s.BrokerID, &s.City, &s.StartAt, &s.EndAt, &s.Status,
			&s.CancelReason, &s.CancelledAt, &s.Version, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// UpsertCustomer inserts or finds a customer by normalized phone.
func (r *Repository) UpsertCustomer(ctx context.Context, name, phoneNorm string) (uuid.UUID, error) {
	var id uuid.UUID
	query := `
		INSERT INTO customers (id, name, phone_norm, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (phone_norm) DO UPDATE SET name = EXCLUDED.name, updated_at = now()
		RETURNING id`

	if err := r.pool.QueryRow(ctx, query, uuid.New(), name, phoneNorm).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert customer: %w", err)
	}
	return id, nil
}

// BookVisitParams carries everything needed to book a visit atomically.
type BookVisitParams struct {
	SlotID        uuid.UUID
	SlotVersion   int64
	PropertyID    uuid.UUID
	BrokerID      uuid.UUID
	CustomerID    uuid.UUID
	StartAt       time.Time
	EndAt         time.Time
	PriorityUntil *time.Time
}

// BookVisit transitions the slot to booked and creates the visit in one
// transaction. The slot update is guarded by a version check; a concurrent
// booking loses with an invalid_state error.
func (r *Repository) BookVisit(ctx context.Context, p BookVisitParams) (uuid.UUID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin booking: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE slots SET status = $1, version = version + 1, updated_at = now()
		 WHERE id = $2 AND version = $3 AND status = 'open'`,
		string(domain.SlotBooked), p.SlotID, p.SlotVersion,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to book slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return uuid.Nil, apperr.InvalidState("slot was taken by a concurrent booking")
	}

	visitID := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO visits (id, slot_id, property_id, broker_id, customer_id,
			start_at, end_at, status, priority_rebook_until, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, now(), now())`,
		visitID, p.SlotID, p.PropertyID, p.BrokerID, p.CustomerID,
		p.StartAt, p.EndAt, string(domain.VisitScheduled), p.PriorityUntil,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create visit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit booking: %w", err)
	}
	return visitID, nil
}

// GetVisit retrieves a visit by ID.
func (r *Repository) GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	query := `SELECT ` + visitColumns + `
		FROM visits v JOIN customers c ON c.id = v.customer_id
		WHERE v.id = $1`

	v, err := scanVisit(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(visitNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}
	return v, nil
}

// ListScheduledVisitsBySlot returns all scheduled visits bound to a slot.
func (r *Repository) ListScheduledVisitsBySlot(ctx context.Context, slotID uuid.UUID) ([]Visit, error) {
	query := `SELECT ` + visitColumns + `
		FROM visits v JOIN customers c ON c.id = v.customer_id
		WHERE v.slot_id = $1 AND v.status = 'scheduled'`

	return r.listVisits(ctx, query, slotID)
}

// ListVisitsByBroker returns a broker's visits, newest first.
func (r *Repository) ListVisitsByBroker(ctx context.Context, brokerID uuid.UUID) ([]Visit, error) {
	query := `SELECT ` + visitColumns + `
		FROM visits v JOIN customers c ON c.id = v.customer_id
		WHERE v.broker_id = $1 ORDER BY v.start_at DESC`

	return r.listVisits(ctx, query, brokerID)
}

// ListVisitsByCustomerPhone returns all visits booked under a normalized phone.
func (r *Repository) ListVisitsByCustomerPhone(ctx context.Context, phoneNorm string) ([]Visit, error) {
	query := `SELECT ` + visitColumns + `
		FROM visits v JOIN customers c ON c.id = v.customer_id
		WHERE c.phone_norm = $1 ORDER BY v.start_at DESC`

	return r.listVisits(ctx, query, phoneNorm)
}

func (r *Repository) listVisits(ctx context.Context, query string, args ...any) ([]Visit, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	defer rows.Close()

	visits := make([]Visit, 0)
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		visits = append(visits, *v)
	}
	return visits, rows.Err()
}

// CancelSlotParams carries the atomic broker-cancellation write set.
type CancelSlotParams struct {
	SlotID        uuid.UUID
	SlotVersion   int64
	Reason        string
	CancelledAt   time.Time
	PriorityUntil *time.Time
}

// CancelSlotWithVisits cancels the slot and every scheduled visit on it in one
// transaction and returns the affected visit IDs. Priority rebooking, when
// granted, is stamped onto the cancelled visits so the rebook lookup can
// honor it.
func (r *Repository) CancelSlotWithVisits(ctx context.Context, p CancelSlotParams) ([]uuid.UUID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin cancellation: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE slots SET status = $1, cancel_reason = $2, cancelled_at = $3,
			version = version + 1, updated_at = now()
		 WHERE id = $4 AND version = $5 AND status IN ('open', 'booked')`,
		string(domain.SlotCancelled), p.Reason, p.CancelledAt, p.SlotID, p.SlotVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.InvalidState("slot already transitioned")
	}

	rows, err := tx.Query(ctx, `
		UPDATE visits SET status = $1, cancelled_by = 'broker', cancellation_reason = $2,
			priority_rebook_until = $3, version = version + 1, updated_at = now()
		WHERE slot_id = $4 AND status = 'scheduled'
		RETURNING id`,
		string(domain.VisitCancelledByBroker), p.Reason, p.PriorityUntil, p.SlotID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel visits: %w", err)
	}

	visitIDs := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan cancelled visit: %w", err)
		}
		visitIDs = append(visitIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cancelled visits: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}
	return visitIDs, nil
}

// CustomerEndVisit transitions a visit to a customer-initiated terminal state
// and reopens the slot when it was held exclusively for this visit. Both
// writes are version-guarded inside one transaction.
func (r *Repository) CustomerEndVisit(ctx context.Context, visit *Visit, newStatus domain.VisitStatus, slot *Slot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin visit cancellation: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE visits SET status = $1, cancelled_by = 'customer',
			version = version + 1, updated_at = now()
		 WHERE id = $2 AND version = $3 AND status = 'scheduled'`,
		string(newStatus), visit.ID, visit.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel visit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.InvalidState("visit already transitioned")
	}

	if slot != nil {
		tag, err = tx.Exec(ctx,
			`UPDATE slots SET status = $1, version = version + 1, updated_at = now()
			 WHERE id = $2 AND version = $3 AND status = 'booked'`,
			string(domain.SlotOpen), slot.ID, slot.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to reopen slot: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.InvalidState("slot already transitioned")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit visit cancellation: %w", err)
	}
	return nil
}

// RescheduleVisit ends the current visit, reopens its slot, books the target
// slot and creates the replacement visit as one transaction. Every state
// write is version-guarded; any lost race aborts the whole reschedule.
func (r *Repository) RescheduleVisit(ctx context.Context, visit *Visit, oldSlot, target *Slot, priorityUntil *time.Time) (uuid.UUID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin reschedule: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE visits SET status = $1, cancelled_by = 'customer',
			version = version + 1, updated_at = now()
		 WHERE id = $2 AND version = $3 AND status = 'scheduled'`,
		string(domain.VisitRescheduledByCustomer), visit.ID, visit.Version,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to end current visit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return uuid.Nil, apperr.InvalidState("visit already transitioned")
	}

	tag, err = tx.Exec(ctx,
		`UPDATE slots SET status = $1, version = version + 1, updated_at = now()
		 WHERE id = $2 AND version = $3 AND status = 'booked'`,
		string(domain.SlotOpen), oldSlot.ID, oldSlot.Version,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to reopen original slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return uuid.Nil, apperr.InvalidState("original slot already transitioned")
	}

	tag, err = tx.Exec(ctx,
		`UPDATE slots SET status = $1, version = version + 1, updated_at = now()
		 WHERE id = $2 AND version = $3 AND status = 'open'`,
		string(domain.SlotBooked), target.ID, target.Version,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to book target slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return uuid.Nil, apperr.InvalidState("target slot was taken by a concurrent booking")
	}

	newVisitID := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO visits (id, slot_id, property_id, broker_id, customer_id,
			start_at, end_at, status, priority_rebook_until, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, now(), now())`,
		newVisitID, target.ID, visit.PropertyID, target.BrokerID, visit.CustomerID,
		target.StartAt, target.EndAt, string(domain.VisitScheduled), priorityUntil,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create replacement visit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit reschedule: %w", err)
	}
	return newVisitID, nil
}

// BackupBrokerIDs returns brokers whose backup listings map onto the given
// primary property. These brokers' open slots are offered after the primary
// broker's in rebooking.
func (r *Repository) BackupBrokerIDs(ctx context.Context, primaryPropertyID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT DISTINCT broker_id FROM properties
		WHERE primary_property_id = $1 AND status IN ('backup', 'active')`

	rows, err := r.pool.Query(ctx, query, primaryPropertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up backup brokers: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan backup broker: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
