// Package adapters bridges the module port interfaces at the composition
// root so the modules themselves stay decoupled.
package adapters

import (
	"context"
	"time"

	"visitops_backend/internal/duplicates/scoring"
	duplicates "visitops_backend/internal/duplicates/service"
	escalation "visitops_backend/internal/escalation/service"
	inventoryrepo "visitops_backend/internal/inventory/repository"
	inventory "visitops_backend/internal/inventory/service"
	ledger "visitops_backend/internal/ledger/service"
	visits "visitops_backend/internal/visits/service"

	"github.com/google/uuid"
)

// PropertyReader exposes listing lookups to the booking flow.
type PropertyReader struct {
	Repo *inventoryrepo.Repository
}

func (a *PropertyReader) GetPropertyInfo(ctx context.Context, id uuid.UUID) (*visits.PropertyInfo, error) {
	p, err := a.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &visits.PropertyInfo{
		ID:                  p.ID,
		BrokerID:            p.BrokerID,
		Status:              p.Status,
		HiddenFromCustomers: p.HiddenFromCustomers,
	}, nil
}

// PropertyLocator serves listing coordinates to the geofence check.
type PropertyLocator struct {
	Repo *inventoryrepo.Repository
}

func (a *PropertyLocator) Coordinates(ctx context.Context, propertyID uuid.UUID) (lat, lng *float64, err error) {
	p, err := a.Repo.Get(ctx, propertyID)
	if err != nil {
		return nil, nil, err
	}
	return p.Lat, p.Lng, nil
}

// BrokerStanding answers deactivation checks from the flag ledger.
type BrokerStanding struct {
	Ledger *ledger.Service
}

func (a *BrokerStanding) IsDeactivated(ctx context.Context, brokerID uuid.UUID, asOf time.Time) (bool, error) {
	return a.Ledger.IsDeactivated(ctx, brokerID, asOf)
}

// IncidentRecorder hands late-cancellation context to the escalation module.
type IncidentRecorder struct {
	Escalation *escalation.Service
}

func (a *IncidentRecorder) RaiseEmergency(ctx context.Context, p visits.IncidentParams) (uuid.UUID, error) {
	return a.Escalation.RaiseEmergency(ctx, raiseParams(p))
}

func (a *IncidentRecorder) RecordAutoRejected(ctx context.Context, p visits.IncidentParams, issueFlag bool) (uuid.UUID, error) {
	return a.Escalation.RecordAutoRejected(ctx, raiseParams(p), issueFlag)
}

func raiseParams(p visits.IncidentParams) escalation.RaiseParams {
	return escalation.RaiseParams{
		SlotID:             p.SlotID,
		BrokerID:           p.BrokerID,
		VisitIDs:           p.VisitIDs,
		RaisedAt:           p.RaisedAt,
		EmergencyRequested: p.EmergencyRequested,
		EmergencyReason:    p.EmergencyReason,
		EmergencyDetails:   p.EmergencyDetails,
		CancelReason:       p.CancelReason,
	}
}

// FlagIssuer lets incident reviews issue accountability flags.
type FlagIssuer struct {
	Ledger *ledger.Service
}

func (a *FlagIssuer) IssueFlag(ctx context.Context, brokerID uuid.UUID, incidentID uuid.UUID, reason string) error {
	_, err := a.Ledger.IssueFlag(ctx, brokerID, &incidentID, reason)
	return err
}

// DuplicateEvaluator runs new listings through the duplicate pipeline.
type DuplicateEvaluator struct {
	Duplicates *duplicates.Service
}

func (a *DuplicateEvaluator) EvaluateNewListing(ctx context.Context, propertyID uuid.UUID, city string, listing scoring.Listing) (*inventory.DuplicateEvaluation, error) {
	eval, err := a.Duplicates.EvaluateNewListing(ctx, propertyID, city, listing)
	if err != nil {
		return nil, err
	}
	return &inventory.DuplicateEvaluation{
		BestScore:  eval.BestScore,
		Hidden:     eval.Hidden,
		AutoHidden: eval.AutoHidden,
	}, nil
}
