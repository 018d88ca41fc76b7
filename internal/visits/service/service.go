package service

import (
	"context"
	"time"

	"visitops_backend/internal/events"
	"visitops_backend/internal/visits/domain"
	"visitops_backend/internal/visits/repository"
	"visitops_backend/internal/visits/transport"
	"visitops_backend/platform/apperr"
	"visitops_backend/platform/config"
	"visitops_backend/platform/logger"
	"visitops_backend/platform/phone"

	"github.com/google/uuid"
)

// PropertyInfo is the minimal property projection booking needs.
type PropertyInfo struct {
	ID                  uuid.UUID
	BrokerID            uuid.UUID
	Status              string
	HiddenFromCustomers bool
}

// PropertyReader looks up listings for booking validation.
type PropertyReader interface {
	GetPropertyInfo(ctx context.Context, id uuid.UUID) (*PropertyInfo, error)
}

// StandingReader answers whether a broker may take on new work. Standing is
// recomputed from the flag set on every call, never cached.
type StandingReader interface {
	IsDeactivated(ctx context.Context, brokerID uuid.UUID, asOf time.Time) (bool, error)
}

// IncidentParams describes the cancellation context handed to the
// escalation pipeline.
type IncidentParams struct {
	SlotID             uuid.UUID
	VisitIDs           []uuid.UUID
	BrokerID           uuid.UUID
	RaisedAt           time.Time
	EmergencyRequested bool
	EmergencyReason    string
	EmergencyDetails   string
	CancelReason       string
}

// IncidentRecorder converts late cancellations into incidents.
type IncidentRecorder interface {
	RaiseEmergency(ctx context.Context, p IncidentParams) (uuid.UUID, error)
	RecordAutoRejected(ctx context.Context, p IncidentParams, issueFlag bool) (uuid.UUID, error)
}

// Service provides business logic for slots and visits
type Service struct {
	repo       *repository.Repository
	properties PropertyReader
	standing   StandingReader
	incidents  IncidentRecorder
	policy     config.PolicyConfig
	eventBus   events.Bus
	log        *logger.Logger
	now        func() time.Time
}

// New creates a new visits service
func New(repo *repository.Repository, properties PropertyReader, standing StandingReader, incidents IncidentRecorder, policy config.PolicyConfig, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		properties: properties,
		standing:   standing,
		incidents:  incidents,
		policy:     policy,
		eventBus:   eventBus,
		log:        log,
		now:        time.Now,
	}
}

// CreateSlot opens a new slot for the broker. Deactivated brokers cannot open
// slots and overlapping windows are rejected.
func (s *Service) CreateSlot(ctx context.Context, brokerID uuid.UUID, req transport.CreateSlotRequest) (*repository.Slot, error) {
	deactivated, err := s.standing.IsDeactivated(ctx, brokerID, s.now())
	if err != nil {
		return nil, err
	}
	if deactivated {
		return nil, apperr.Conflict("broker is deactivated and cannot open slots")
	}

	overlaps, err := s.repo.HasOverlappingSlot(ctx, brokerID, req.StartAt, req.EndAt)
	if err != nil {
		return nil, err
	}
	if overlaps {
		return nil, apperr.Conflict("slot overlaps an existing slot")
	}

	slot := &repository.Slot{
		ID:       uuid.New(),
		BrokerID: brokerID,
		City:     req.City,
		StartAt:  req.StartAt,
		EndAt:    req.EndAt,
		Status:   string(domain.SlotOpen),
	}
	if err := s.repo.CreateSlot(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// Book creates a scheduled visit on an open slot.
func (s *Service) Book(ctx context.Context, req transport.BookVisitRequest) (uuid.UUID, error) {
	slot, err := s.repo.GetSlot(ctx, req.SlotID)
	if err != nil {
		return uuid.Nil, err
	}
	if !domain.CanBook(domain.SlotStatus(slot.Status)) {
		return uuid.Nil, apperr.Conflict("slot is not open for booking")
	}

	prop, err := s.properties.GetPropertyInfo(ctx, req.PropertyID)
	if err != nil {
		return uuid.Nil, err
	}
	if prop.BrokerID != slot.BrokerID {
		return uuid.Nil, apperr.Conflict("slot does not belong to the property's broker")
	}
	if prop.HiddenFromCustomers || prop.Status != "active" {
		return uuid.Nil, apperr.Conflict("property is not available for visits")
	}

	deactivated, err := s.standing.IsDeactivated(ctx, slot.BrokerID, s.now())
	if err != nil {
		return uuid.Nil, err
	}
	if deactivated {
		return uuid.Nil, apperr.Conflict("broker is deactivated")
	}

	phoneNorm := phone.NormalizeE164(req.CustomerPhone)
	customerID, err := s.repo.UpsertCustomer(ctx, req.CustomerName, phoneNorm)
	if err != nil {
		return uuid.Nil, err
	}

	visitID, err := s.repo.BookVisit(ctx, repository.BookVisitParams{
		SlotID:      slot.ID,
		SlotVersion: slot.Version,
		PropertyID:  prop.ID,
		BrokerID:    slot.BrokerID,
		CustomerID:  customerID,
		StartAt:     slot.StartAt,
		EndAt:       slot.EndAt,
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.log.VisitTransition("visit", visitID.String(), "", string(domain.VisitScheduled), "customer")
	s.eventBus.Publish(ctx, events.VisitBooked{
		BaseEvent:     events.NewBaseEvent(),
		VisitID:       visitID,
		SlotID:        slot.ID,
		PropertyID:    prop.ID,
		BrokerID:      slot.BrokerID,
		CustomerPhone: phoneNorm,
		CustomerName:  req.CustomerName,
		SlotStart:     slot.StartAt,
	})
	return visitID, nil
}

// BrokerCancelSlot cancels a slot on behalf of its owning broker and applies
// the short-notice consequences. Brokers can only cancel the slot as a whole.
func (s *Service) BrokerCancelSlot(ctx context.Context, brokerID, slotID uuid.UUID, req transport.CancelSlotRequest) (*transport.CancelSlotResponse, error) {
	slot, err := s.repo.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.BrokerID != brokerID {
		return nil, apperr.AuthMismatch("slot belongs to another broker")
	}
	if !domain.CanBrokerCancel(domain.SlotStatus(slot.Status)) {
		return nil, apperr.Conflict("slot is not cancellable")
	}

	now := s.now()
	wasBooked := slot.Status == string(domain.SlotBooked)
	plan := domain.PlanBrokerCancel(slot.StartAt, now, req.EmergencyClaim, s.policy.GetLateCancelAutoFlag())

	var priorityUntil *time.Time
	if wasBooked {
		priorityUntil = plan.RebookWindowEnd
	}

	visitIDs, err := s.repo.CancelSlotWithVisits(ctx, repository.CancelSlotParams{
		SlotID:        slot.ID,
		SlotVersion:   slot.Version,
		Reason:        req.Reason,
		CancelledAt:   now,
		PriorityUntil: priorityUntil,
	})
	if err != nil {
		return nil, err
	}

	resp := &transport.CancelSlotResponse{ApologyIssued: wasBooked && len(visitIDs) > 0}
	if priorityUntil != nil && len(visitIDs) > 0 {
		resp.RebookWindowHours = int(plan.RebookWindowEnd.Sub(now).Hours())
	}

	// Incidents and RM calls only apply when a customer was actually affected.
	if wasBooked && len(visitIDs) > 0 && plan.ShortNotice {
		params := IncidentParams{
			SlotID:             slot.ID,
			VisitIDs:           visitIDs,
			BrokerID:           brokerID,
			RaisedAt:           now,
			EmergencyRequested: req.EmergencyClaim,
			EmergencyReason:    req.EmergencyReason,
			EmergencyDetails:   req.EmergencyDetails,
			CancelReason:       req.Reason,
		}
		var incidentID uuid.UUID
		if plan.RaiseIncident {
			incidentID, err = s.incidents.RaiseEmergency(ctx, params)
		} else if plan.AutoRejectIncident {
			incidentID, err = s.incidents.RecordAutoRejected(ctx, params, plan.IssueFlag)
		}
		if err != nil {
			return nil, err
		}
		if incidentID != uuid.Nil {
			resp.IncidentID = &incidentID
		}
	}

	s.log.VisitTransition("slot", slot.ID.String(), slot.Status, string(domain.SlotCancelled), "broker")
	s.eventBus.Publish(ctx, events.VisitCancelledByBroker{
		BaseEvent:        events.NewBaseEvent(),
		SlotID:           slot.ID,
		BrokerID:         brokerID,
		VisitIDs:         visitIDs,
		SlotStart:        slot.StartAt,
		ShortNotice:      plan.ShortNotice,
		EmergencyClaimed: req.EmergencyClaim,
		IncidentID:       resp.IncidentID,
	})

	if plan.RequestRMCall && len(visitIDs) > 0 {
		for _, visitID := range visitIDs {
			visit, err := s.repo.GetVisit(ctx, visitID)
			if err != nil {
				s.log.Error("failed to load visit for RM call", "visit_id", visitID, "error", err)
				continue
			}
			s.eventBus.Publish(ctx, events.RMCallRequested{
				BaseEvent:     events.NewBaseEvent(),
				BrokerID:      brokerID,
				CustomerPhone: visit.CustomerPhone,
				CustomerName:  visit.CustomerName,
				SlotStart:     slot.StartAt,
			})
		}
	}

	return resp, nil
}

// CustomerCancel ends a visit on behalf of its booking customer.
func (s *Service) CustomerCancel(ctx context.Context, visitID uuid.UUID, rawPhone string) error {
	visit, err := s.ownedVisit(ctx, visitID, rawPhone)
	if err != nil {
		return err
	}

	slot, err := s.heldSlot(ctx, visit)
	if err != nil {
		return err
	}

	if err := s.repo.CustomerEndVisit(ctx, visit, domain.VisitCancelledByCustomer, slot); err != nil {
		return err
	}

	s.log.VisitTransition("visit", visit.ID.String(), visit.Status, string(domain.VisitCancelledByCustomer), "customer")
	s.eventBus.Publish(ctx, events.VisitCancelledByCustomer{
		BaseEvent:     events.NewBaseEvent(),
		VisitID:       visit.ID,
		SlotID:        visit.SlotID,
		CustomerPhone: visit.CustomerPhone,
	})
	return nil
}

// CustomerReschedule ends the current visit and books the target slot in one
// atomic step. Eligible targets are open slots of the visit's primary broker
// or of brokers backing up the property.
func (s *Service) CustomerReschedule(ctx context.Context, visitID uuid.UUID, req transport.CustomerRescheduleRequest) (uuid.UUID, error) {
	visit, err := s.ownedVisit(ctx, visitID, req.Phone)
	if err != nil {
		return uuid.Nil, err
	}

	target, err := s.repo.GetSlot(ctx, req.TargetSlotID)
	if err != nil {
		return uuid.Nil, err
	}
	if !domain.CanBook(domain.SlotStatus(target.Status)) {
		return uuid.Nil, apperr.Conflict("target slot is not open")
	}

	if target.BrokerID != visit.BrokerID {
		backups, err := s.repo.BackupBrokerIDs(ctx, visit.PropertyID)
		if err != nil {
			return uuid.Nil, err
		}
		eligible := false
		for _, id := range backups {
			if id == target.BrokerID {
				eligible = true
				break
			}
		}
		if !eligible {
			return uuid.Nil, apperr.Conflict("target slot broker is not eligible for this visit")
		}
	}

	oldSlot, err := s.repo.GetSlot(ctx, visit.SlotID)
	if err != nil {
		return uuid.Nil, err
	}

	// Carry the priority window over only while it is still running.
	var priorityUntil *time.Time
	if visit.PriorityRebookUntil != nil && s.now().Before(*visit.PriorityRebookUntil) {
		priorityUntil = visit.PriorityRebookUntil
	}

	newVisitID, err := s.repo.RescheduleVisit(ctx, visit, oldSlot, target, priorityUntil)
	if err != nil {
		return uuid.Nil, err
	}

	s.log.VisitTransition("visit", visit.ID.String(), visit.Status, string(domain.VisitRescheduledByCustomer), "customer")
	s.eventBus.Publish(ctx, events.VisitRescheduled{
		BaseEvent:    events.NewBaseEvent(),
		VisitID:      visit.ID,
		OldSlotID:    visit.SlotID,
		NewSlotID:    target.ID,
		NewSlotStart: target.StartAt,
		PriorityUsed: priorityUntil != nil,
	})
	return newVisitID, nil
}

// RebookOptions lists open slots the customer can move a broker-cancelled
// visit onto, primary broker slots before backup-broker slots.
func (s *Service) RebookOptions(ctx context.Context, visitID uuid.UUID, rawPhone string) (*transport.RebookSlotsResponse, error) {
	visit, err := s.repo.GetVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if !phone.SamePhone(rawPhone, visit.CustomerPhone) {
		return nil, apperr.AuthMismatch("phone does not match the booking")
	}

	now := s.now()
	primary, err := s.repo.ListOpenSlotsForBrokers(ctx, []uuid.UUID{visit.BrokerID}, now)
	if err != nil {
		return nil, err
	}

	backupBrokers, err := s.repo.BackupBrokerIDs(ctx, visit.PropertyID)
	if err != nil {
		return nil, err
	}
	backup, err := s.repo.ListOpenSlotsForBrokers(ctx, backupBrokers, now)
	if err != nil {
		return nil, err
	}

	resp := &transport.RebookSlotsResponse{
		PrimarySlots: toSlotResponses(primary),
		BackupSlots:  toSlotResponses(backup),
	}
	if visit.PriorityRebookUntil != nil && now.Before(*visit.PriorityRebookUntil) {
		resp.PriorityUntil = visit.PriorityRebookUntil
	}
	return resp, nil
}

// ListBrokerSlots returns all slots for the broker.
func (s *Service) ListBrokerSlots(ctx context.Context, brokerID uuid.UUID) ([]transport.SlotResponse, error) {
	slots, err := s.repo.ListSlotsByBroker(ctx, brokerID)
	if err != nil {
		return nil, err
	}
	return toSlotResponses(slots), nil
}

// ListBrokerVisits returns all visits on the broker's slots.
func (s *Service) ListBrokerVisits(ctx context.Context, brokerID uuid.UUID) ([]transport.VisitResponse, error) {
	visits, err := s.repo.ListVisitsByBroker(ctx, brokerID)
	if err != nil {
		return nil, err
	}
	return toVisitResponses(visits), nil
}

// ListCustomerVisits returns all visits booked under a phone number.
func (s *Service) ListCustomerVisits(ctx context.Context, rawPhone string) ([]transport.VisitResponse, error) {
	visits, err := s.repo.ListVisitsByCustomerPhone(ctx, phone.NormalizeE164(rawPhone))
	if err != nil {
		return nil, err
	}
	return toVisitResponses(visits), nil
}

func (s *Service) ownedVisit(ctx context.Context, visitID uuid.UUID, rawPhone string) (*repository.Visit, error) {
	visit, err := s.repo.GetVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if !phone.SamePhone(rawPhone, visit.CustomerPhone) {
		return nil, apperr.AuthMismatch("phone does not match the booking")
	}
	if visit.Status != string(domain.VisitScheduled) {
		return nil, apperr.Conflict("visit is no longer scheduled")
	}
	return visit, nil
}

// heldSlot returns the visit's slot when it was exclusively held for the
// visit (booked) so cancelling reopens it.
func (s *Service) heldSlot(ctx context.Context, visit *repository.Visit) (*repository.Slot, error) {
	slot, err := s.repo.GetSlot(ctx, visit.SlotID)
	if err != nil {
		return nil, err
	}
	if slot.Status != string(domain.SlotBooked) {
		return nil, nil
	}
	return slot, nil
}

func toSlotResponses(slots []repository.Slot) []transport.SlotResponse {
	out := make([]transport.SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, transport.SlotResponse{
			ID:       s.ID,
			BrokerID: s.BrokerID,
			City:     s.City,
			StartAt:  s.StartAt,
			EndAt:    s.EndAt,
			Status:   s.Status,
		})
	}
	return out
}

func toVisitResponses(visits []repository.Visit) []transport.VisitResponse {
	out := make([]transport.VisitResponse, 0, len(visits))
	for _, v := range visits {
		out = append(out, transport.VisitResponse{
			ID:                  v.ID,
			SlotID:              v.SlotID,
			PropertyID:          v.PropertyID,
			BrokerID:            v.BrokerID,
			CustomerName:        v.CustomerName,
			CustomerPhone:       v.CustomerPhone,
			StartAt:             v.StartAt,
			EndAt:               v.EndAt,
			Status:              v.Status,
			PriorityRebookUntil: v.PriorityRebookUntil,
			IsUniqueVisit:       v.IsUniqueVisit,
			CompletionMode:      v.CompletionMode,
			CompletedAt:         v.CompletedAt,
		})
	}
	return out
}
