// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"visitops_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Visit Domain Events
// =============================================================================

// VisitBooked is published when a customer visit is confirmed on a slot.
type VisitBooked struct {
	BaseEvent
	VisitID       uuid.UUID `json:"visitId"`
	SlotID        uuid.UUID `json:"slotId"`
	PropertyID    uuid.UUID `json:"propertyId"`
	BrokerID      uuid.UUID `json:"brokerId"`
	CustomerPhone string    `json:"customerPhone"`
	CustomerName  string    `json:"customerName"`
	SlotStart     time.Time `json:"slotStart"`
	PriorityUsed  bool      `json:"priorityUsed"`
}

func (e VisitBooked) EventName() string { return "visits.visit.booked" }

// VisitCancelledByBroker is published when a broker cancels a slot with
// booked visits on it.
type VisitCancelledByBroker struct {
	BaseEvent
	SlotID           uuid.UUID   `json:"slotId"`
	BrokerID         uuid.UUID   `json:"brokerId"`
	VisitIDs         []uuid.UUID `json:"visitIds"`
	SlotStart        time.Time   `json:"slotStart"`
	ShortNotice      bool        `json:"shortNotice"`
	EmergencyClaimed bool        `json:"emergencyClaimed"`
	IncidentID       *uuid.UUID  `json:"incidentId,omitempty"`
}

func (e VisitCancelledByBroker) EventName() string { return "visits.slot.cancelled_by_broker" }

// VisitCancelledByCustomer is published when a customer cancels their visit.
type VisitCancelledByCustomer struct {
	BaseEvent
	VisitID       uuid.UUID `json:"visitId"`
	SlotID        uuid.UUID `json:"slotId"`
	CustomerPhone string    `json:"customerPhone"`
}

func (e VisitCancelledByCustomer) EventName() string { return "visits.visit.cancelled_by_customer" }

// VisitRescheduled is published when a visit moves to a new slot.
type VisitRescheduled struct {
	BaseEvent
	VisitID      uuid.UUID `json:"visitId"`
	OldSlotID    uuid.UUID `json:"oldSlotId"`
	NewSlotID    uuid.UUID `json:"newSlotId"`
	NewSlotStart time.Time `json:"newSlotStart"`
	PriorityUsed bool      `json:"priorityUsed"`
}

func (e VisitRescheduled) EventName() string { return "visits.visit.rescheduled" }

// VisitCompleted is published when a visit passes verification.
type VisitCompleted struct {
	BaseEvent
	VisitID         uuid.UUID `json:"visitId"`
	BrokerID        uuid.UUID `json:"brokerId"`
	PropertyID      uuid.UUID `json:"propertyId"`
	Method          string    `json:"method"`
	DistanceMeters  *float64  `json:"distanceMeters,omitempty"`
	PhotoObjectKey  string    `json:"photoObjectKey,omitempty"`
	CompletedAt     time.Time `json:"completedAt"`
}

func (e VisitCompleted) EventName() string { return "visits.visit.completed" }

// OTPIssued is published when a completion challenge is created so the
// notification pipeline can deliver the code.
type OTPIssued struct {
	BaseEvent
	VisitID       uuid.UUID `json:"visitId"`
	CustomerPhone string    `json:"customerPhone"`
	CustomerName  string    `json:"customerName"`
	Code          string    `json:"code"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

func (e OTPIssued) EventName() string { return "verification.otp.issued" }

// =============================================================================
// Escalation Domain Events
// =============================================================================

// EmergencyIncidentRaised is published when a broker claims an emergency
// on a short-notice cancellation, opening an RM review.
type EmergencyIncidentRaised struct {
	BaseEvent
	IncidentID uuid.UUID `json:"incidentId"`
	BrokerID   uuid.UUID `json:"brokerId"`
	SlotID     uuid.UUID `json:"slotId"`
	RMDueAt    time.Time `json:"rmDueAt"`
}

func (e EmergencyIncidentRaised) EventName() string { return "escalation.incident.raised" }

// IncidentEscalated is published when an incident passes its RM deadline
// without review and moves to the SRM stage.
type IncidentEscalated struct {
	BaseEvent
	IncidentID uuid.UUID `json:"incidentId"`
	BrokerID   uuid.UUID `json:"brokerId"`
	SRMDueAt   time.Time `json:"srmDueAt"`
}

func (e IncidentEscalated) EventName() string { return "escalation.incident.escalated" }

// RMCallRequested is published when an emergency incident needs an RM phone
// call to the affected customer.
type RMCallRequested struct {
	BaseEvent
	IncidentID    uuid.UUID `json:"incidentId"`
	BrokerID      uuid.UUID `json:"brokerId"`
	CustomerPhone string    `json:"customerPhone"`
	CustomerName  string    `json:"customerName"`
	SlotStart     time.Time `json:"slotStart"`
}

func (e RMCallRequested) EventName() string { return "escalation.rm_call.requested" }

// =============================================================================
// Ledger Domain Events
// =============================================================================

// FlagIssued is published when an accountability flag lands on a broker.
type FlagIssued struct {
	BaseEvent
	FlagID   uuid.UUID `json:"flagId"`
	BrokerID uuid.UUID `json:"brokerId"`
	Reason   string    `json:"reason"`
	Level    int       `json:"level"`
	DecaysAt time.Time `json:"decaysAt"`
}

func (e FlagIssued) EventName() string { return "ledger.flag.issued" }

// BrokerDeactivated is published when a broker accumulates enough active
// flags to be taken off the platform.
type BrokerDeactivated struct {
	BaseEvent
	BrokerID    uuid.UUID `json:"brokerId"`
	ActiveFlags int       `json:"activeFlags"`
}

func (e BrokerDeactivated) EventName() string { return "ledger.broker.deactivated" }

// =============================================================================
// Inventory Domain Events
// =============================================================================

// ListingAutoHidden is published when a new listing scores above the
// auto-hide duplicate threshold.
type ListingAutoHidden struct {
	BaseEvent
	PropertyID     uuid.UUID `json:"propertyId"`
	MatchedAgainst uuid.UUID `json:"matchedAgainst"`
	Score          float64   `json:"score"`
}

func (e ListingAutoHidden) EventName() string { return "inventory.listing.auto_hidden" }

// DuplicateReviewQueued is published when a listing in the ambiguous score
// band is hidden pending manual review.
type DuplicateReviewQueued struct {
	BaseEvent
	ReviewID       uuid.UUID `json:"reviewId"`
	PropertyID     uuid.UUID `json:"propertyId"`
	MatchedAgainst uuid.UUID `json:"matchedAgainst"`
	Score          float64   `json:"score"`
}

func (e DuplicateReviewQueued) EventName() string { return "inventory.duplicate_review.queued" }
