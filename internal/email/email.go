// Package email delivers operational alert mail to the RM team.
package email

import "context"

// Sender delivers ops alerts. Implementations must be safe for concurrent
// use.
type Sender interface {
	// SendIncidentAlert notifies the RM desk about a fresh emergency
	// cancellation incident and its review deadline.
	SendIncidentAlert(ctx context.Context, incidentID, brokerID, dueAt string) error
	// SendEscalationAlert notifies the SRM desk that an incident blew
	// through its RM deadline.
	SendEscalationAlert(ctx context.Context, incidentID, brokerID, dueAt string) error
}
