package email

import (
	"context"

	"visitops_backend/platform/logger"
)

// NoopSender logs alerts instead of mailing them. Used when email delivery is
// disabled.
type NoopSender struct {
	log *logger.Logger
}

func NewNoopSender(log *logger.Logger) *NoopSender {
	return &NoopSender{log: log}
}

func (s *NoopSender) SendIncidentAlert(_ context.Context, incidentID, brokerID, dueAt string) error {
	s.log.Info("incident alert (email disabled)",
		"incidentId", incidentID, "brokerId", brokerID, "dueAt", dueAt)
	return nil
}

func (s *NoopSender) SendEscalationAlert(_ context.Context, incidentID, brokerID, dueAt string) error {
	s.log.Info("escalation alert (email disabled)",
		"incidentId", incidentID, "brokerId", brokerID, "dueAt", dueAt)
	return nil
}

var _ Sender = (*NoopSender)(nil)
