// Package domain holds the incident state machine for late cancellations.
package domain

import "time"

// Incident lifecycle. An incident is terminal once approved, rejected or
// auto-rejected.
const (
	StatusPendingRM    = "pending_rm"
	StatusEscalatedSRM = "escalated_srm"
	StatusApproved     = "approved"
	StatusRejected     = "rejected"
	StatusAutoRejected = "auto_rejected"
)

// Review stages.
const (
	StageRM  = "rm"
	StageSRM = "srm"
)

// IsTerminal reports whether the incident can no longer be reviewed.
func IsTerminal(status string) bool {
	switch status {
	case StatusApproved, StatusRejected, StatusAutoRejected:
		return true
	}
	return false
}

// CanReview reports whether the given stage may decide an incident in the
// given status. An RM loses the incident once it escalates; an SRM only sees
// escalated ones.
func CanReview(status, stage string) bool {
	switch stage {
	case StageRM:
		return status == StatusPendingRM
	case StageSRM:
		return status == StatusEscalatedSRM
	}
	return false
}

// EscalationDue reports whether a pending incident has outlived its RM
// deadline at now. Escalation is applied lazily on read, so an incident past
// its deadline escalates the next time anyone looks at it.
func EscalationDue(status string, rmDueAt, now time.Time) bool {
	return status == StatusPendingRM && !now.Before(rmDueAt)
}
