package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"visitops_backend/internal/escalation/domain"
	"visitops_backend/platform/apperr"
)

type Incident struct {
	ID                 uuid.UUID
	SlotID             uuid.UUID
	BrokerID           uuid.UUID
	VisitIDs           []uuid.UUID
	Status             string
	EmergencyRequested bool
	EmergencyReason    *string
	EmergencyDetails   *string
	CancelReason       *string
	RaisedAt           time.Time
	RMDueAt            time.Time
	SRMDueAt           *time.Time
	ReviewedBy         *uuid.UUID
	ReviewStage        *string
	ReviewNote         *string
	ReviewedAt         *time.Time
	FlagIssued         bool
	Version            int64
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const incidentColumns = `id, slot_id, broker_id, visit_ids, status, emergency_requested,
	emergency_reason, emergency_details, cancel_reason, raised_at, rm_due_at, srm_due_at,
	reviewed_by, review_stage, review_note, reviewed_at, flag_issued, version`

func (r *Repository) Insert(ctx context.Context, inc *Incident) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO cancellation_incidents
			(id, slot_id, broker_id, visit_ids, status, emergency_requested,
			 emergency_reason, emergency_details, cancel_reason, raised_at, rm_due_at,
			 reviewed_at, flag_issued, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1)`,
		inc.ID, inc.SlotID, inc.BrokerID, inc.VisitIDs, inc.Status, inc.EmergencyRequested,
		inc.EmergencyReason, inc.EmergencyDetails, inc.CancelReason, inc.RaisedAt,
		inc.RMDueAt, inc.ReviewedAt, inc.FlagIssued)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Incident, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+incidentColumns+` FROM cancellation_incidents WHERE id = $1`, id)
	inc, err := scanIncident(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("incident not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return inc, nil
}

// ListOpen returns incidents still awaiting a decision, oldest deadline first.
func (r *Repository) ListOpen(ctx context.Context) ([]Incident, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+incidentColumns+`
		FROM cancellation_incidents
		WHERE status IN ($1, $2)
		ORDER BY rm_due_at ASC`,
		domain.StatusPendingRM, domain.StatusEscalatedSRM)
	if err != nil {
		return nil, fmt.Errorf("list open incidents: %w", err)
	}
	defer rows.Close()
	return collectIncidents(rows)
}

func (r *Repository) ListByBroker(ctx context.Context, brokerID uuid.UUID) ([]Incident, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+incidentColumns+`
		FROM cancellation_incidents
		WHERE broker_id = $1
		ORDER BY raised_at DESC`,
		brokerID)
	if err != nil {
		return nil, fmt.Errorf("list broker incidents: %w", err)
	}
	defer rows.Close()
	return collectIncidents(rows)
}

// ListEscalatable returns pending incidents whose RM deadline has passed.
func (r *Repository) ListEscalatable(ctx context.Context, now time.Time) ([]Incident, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+incidentColumns+`
		FROM cancellation_incidents
		WHERE status = $1 AND rm_due_at <= $2
		ORDER BY rm_due_at ASC`,
		domain.StatusPendingRM, now)
	if err != nil {
		return nil, fmt.Errorf("list escalatable incidents: %w", err)
	}
	defer rows.Close()
	return collectIncidents(rows)
}

// Escalate moves a pending incident to the SRM stage. The update is guarded
// on version and status, so concurrent readers applying the same escalation
// race harmlessly: exactly one wins.
func (r *Repository) Escalate(ctx context.Context, inc *Incident, srmDueAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE cancellation_incidents
		SET status = $3, srm_due_at = $4, version = version + 1
		WHERE id = $1 AND version = $2 AND status = $5`,
		inc.ID, inc.Version, domain.StatusEscalatedSRM, srmDueAt, domain.StatusPendingRM)
	if err != nil {
		return false, fmt.Errorf("escalate incident: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ReviewParams records a reviewer decision.
type ReviewParams struct {
	Incident   *Incident
	NewStatus  string
	Stage      string
	ReviewerID uuid.UUID
	Note       *string
	ReviewedAt time.Time
	FlagIssued bool
}

// Review applies a decision, guarded on version and the status the stage is
// allowed to decide from.
func (r *Repository) Review(ctx context.Context, p ReviewParams) error {
	fromStatus := domain.StatusPendingRM
	if p.Stage == domain.StageSRM {
		fromStatus = domain.StatusEscalatedSRM
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE cancellation_incidents
		SET status = $3, review_stage = $4, reviewed_by = $5, review_note = $6,
		    reviewed_at = $7, flag_issued = $8, version = version + 1
		WHERE id = $1 AND version = $2 AND status = $9`,
		p.Incident.ID, p.Incident.Version, p.NewStatus, p.Stage, p.ReviewerID,
		p.Note, p.ReviewedAt, p.FlagIssued, fromStatus)
	if err != nil {
		return fmt.Errorf("review incident: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.InvalidState("incident changed while reviewing, reload and retry")
	}
	return nil
}

func collectIncidents(rows pgx.Rows) ([]Incident, error) {
	var out []Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		out = append(out, *inc)
	}
	return out, rows.Err()
}

func scanIncident(row pgx.Row) (*Incident, error) {
	var inc Incident
	err := row.Scan(&inc.ID, &inc.SlotID, &inc.BrokerID, &inc.VisitIDs, &inc.Status,
		&inc.EmergencyRequested, &inc.EmergencyReason, &inc.EmergencyDetails,
		&inc.CancelReason, &inc.RaisedAt, &inc.RMDueAt, &inc.SRMDueAt,
		&inc.ReviewedBy, &inc.ReviewStage, &inc.ReviewNote, &inc.ReviewedAt,
		&inc.FlagIssued, &inc.Version)
	if err != nil {
		return nil, err
	}
	return &inc, nil
}
