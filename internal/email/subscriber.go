package email

import (
	"context"
	"fmt"
	"time"

	"visitops_backend/internal/events"
	"visitops_backend/platform/logger"
)

// Subscriber turns escalation events into alert mail.
type Subscriber struct {
	sender Sender
	log    *logger.Logger
}

func NewSubscriber(sender Sender, log *logger.Logger) *Subscriber {
	return &Subscriber{sender: sender, log: log}
}

// RegisterHandlers wires the subscriber to the incident events.
func (s *Subscriber) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.EmergencyIncidentRaised{}.EventName(), events.HandlerFunc(s.onIncidentRaised))
	bus.Subscribe(events.IncidentEscalated{}.EventName(), events.HandlerFunc(s.onIncidentEscalated))
}

func (s *Subscriber) onIncidentRaised(ctx context.Context, event events.Event) error {
	e, ok := event.(events.EmergencyIncidentRaised)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	return s.sender.SendIncidentAlert(ctx,
		e.IncidentID.String(), e.BrokerID.String(), e.RMDueAt.Format(time.RFC3339))
}

func (s *Subscriber) onIncidentEscalated(ctx context.Context, event events.Event) error {
	e, ok := event.(events.IncidentEscalated)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	return s.sender.SendEscalationAlert(ctx,
		e.IncidentID.String(), e.BrokerID.String(), e.SRMDueAt.Format(time.RFC3339))
}
