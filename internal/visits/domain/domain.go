// Package domain holds the slot/visit state machine rules as pure logic,
// separate from persistence so transitions can be tested without a database.
package domain

import (
	"time"

	"visitops_backend/internal/temporal"
)

// SlotStatus defines the lifecycle state of a broker slot.
type SlotStatus string

const (
	SlotOpen      SlotStatus = "open"
	SlotBooked    SlotStatus = "booked"
	SlotCancelled SlotStatus = "cancelled"
	SlotCompleted SlotStatus = "completed"
)

// VisitStatus defines the lifecycle state of a visit.
type VisitStatus string

const (
	VisitScheduled             VisitStatus = "scheduled"
	VisitCompleted             VisitStatus = "completed"
	VisitCancelledByBroker     VisitStatus = "cancelled_by_broker"
	VisitCancelledByCustomer   VisitStatus = "cancelled_by_customer"
	VisitRescheduledByCustomer VisitStatus = "rescheduled_by_customer"
)

// IsTerminal reports whether a visit status admits no further transitions.
func (s VisitStatus) IsTerminal() bool {
	switch s {
	case VisitCompleted, VisitCancelledByBroker, VisitCancelledByCustomer, VisitRescheduledByCustomer:
		return true
	}
	return false
}

// CanBook reports whether a slot can accept a new booking.
func CanBook(s SlotStatus) bool {
	return s == SlotOpen
}

// CanBrokerCancel reports whether a slot can still be cancelled by its broker.
func CanBrokerCancel(s SlotStatus) bool {
	return s == SlotOpen || s == SlotBooked
}

// CancelPlan is the decision a broker cancellation resolves to. The service
// applies it transactionally; computing it is side-effect free.
type CancelPlan struct {
	// ShortNotice is true when the slot starts within the short-notice window.
	ShortNotice bool
	// RebookWindowEnd is set when affected customers get priority rebooking.
	RebookWindowEnd *time.Time
	// RaiseIncident is true when an emergency claim opens an RM review.
	RaiseIncident bool
	// AutoRejectIncident is true when a non-emergency late cancel is recorded
	// as an already-rejected incident.
	AutoRejectIncident bool
	// IssueFlag is true when the cancellation flags the broker immediately.
	IssueFlag bool
	// RequestRMCall is true when an RM should call the affected customers.
	RequestRMCall bool
}

// PlanBrokerCancel decides what a broker cancellation entails. An on-time
// cancellation only triggers an apology. A short-notice one opens a priority
// rebook window and either an RM-reviewed emergency incident or, without an
// emergency claim, an auto-rejected incident with an immediate flag when the
// autoFlag policy is on.
func PlanBrokerCancel(slotStart, now time.Time, emergencyClaimed, autoFlag bool) CancelPlan {
	plan := CancelPlan{}
	if !temporal.IsShortNotice(slotStart, now) {
		return plan
	}

	plan.ShortNotice = true
	windowEnd := temporal.RebookWindowEnd(now)
	plan.RebookWindowEnd = &windowEnd
	plan.RequestRMCall = true

	if emergencyClaimed {
		plan.RaiseIncident = true
		return plan
	}

	plan.AutoRejectIncident = true
	plan.IssueFlag = autoFlag
	return plan
}
