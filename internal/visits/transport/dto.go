package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateSlotRequest is the request body for a broker opening a slot.
type CreateSlotRequest struct {
	City    string    `json:"city" validate:"required,min=2,max=100"`
	StartAt time.Time `json:"startAt" validate:"required"`
	EndAt   time.Time `json:"endAt" validate:"required,gtfield=StartAt"`
}

// BookVisitRequest is the request body for booking a visit on a slot.
type BookVisitRequest struct {
	PropertyID    uuid.UUID `json:"propertyId" validate:"required"`
	SlotID        uuid.UUID `json:"slotId" validate:"required"`
	CustomerName  string    `json:"customerName" validate:"required,min=2,max=150"`
	CustomerPhone string    `json:"customerPhone" validate:"required,min=8,max=20"`
}

// CancelSlotRequest is the request body for a broker cancelling a slot.
// Brokers can only cancel their slot, never reject an individual customer.
type CancelSlotRequest struct {
	Reason           string `json:"reason" validate:"required,min=3,max=500"`
	EmergencyClaim   bool   `json:"emergencyClaim"`
	EmergencyReason  string `json:"emergencyReason,omitempty" validate:"omitempty,max=200"`
	EmergencyDetails string `json:"emergencyDetails,omitempty" validate:"omitempty,max=2000"`
}

// CancelSlotResponse reports what the cancellation entailed.
type CancelSlotResponse struct {
	ApologyIssued     bool       `json:"apologyIssued"`
	RebookWindowHours int        `json:"rebookWindowHours"`
	IncidentID        *uuid.UUID `json:"incidentId,omitempty"`
}

// CustomerCancelRequest cancels a visit on behalf of the booking customer.
type CustomerCancelRequest struct {
	Phone string `json:"phone" validate:"required,min=8,max=20"`
}

// CustomerRescheduleRequest moves a visit to another open slot.
type CustomerRescheduleRequest struct {
	Phone        string    `json:"phone" validate:"required,min=8,max=20"`
	TargetSlotID uuid.UUID `json:"targetSlotId" validate:"required"`
}

// SlotResponse is the API shape of a slot.
type SlotResponse struct {
	ID       uuid.UUID `json:"id"`
	BrokerID uuid.UUID `json:"brokerId"`
	City     string    `json:"city"`
	StartAt  time.Time `json:"startAt"`
	EndAt    time.Time `json:"endAt"`
	Status   string    `json:"status"`
}

// VisitResponse is the API shape of a visit.
type VisitResponse struct {
	ID                 uuid.UUID  `json:"id"`
	SlotID             uuid.UUID  `json:"slotId"`
	PropertyID         uuid.UUID  `json:"propertyId"`
	BrokerID           uuid.UUID  `json:"brokerId"`
	CustomerName       string     `json:"customerName"`
	CustomerPhone      string     `json:"customerPhone"`
	StartAt            time.Time  `json:"startAt"`
	EndAt              time.Time  `json:"endAt"`
	Status             string     `json:"status"`
	PriorityRebookUntil *time.Time `json:"priorityRebookUntil,omitempty"`
	IsUniqueVisit      *bool      `json:"isUniqueVisit,omitempty"`
	CompletionMode     *string    `json:"completionMode,omitempty"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
}

// RebookSlotsResponse lists slots a customer can rebook onto, primary broker
// slots first, then slots from brokers of backup-mapped properties.
type RebookSlotsResponse struct {
	PrimarySlots []SlotResponse `json:"primarySlots"`
	BackupSlots  []SlotResponse `json:"backupSlots"`
	PriorityUntil *time.Time    `json:"priorityUntil,omitempty"`
}
