package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"visitops_backend/internal/events"
	"visitops_backend/internal/notification/repository"
	"visitops_backend/internal/notification/templates"
	visitsrepo "visitops_backend/internal/visits/repository"
	"visitops_backend/platform/logger"
)

// timeLayout is how slot times read inside customer messages.
const timeLayout = "Mon, 2 Jan at 15:04"

// maxDispatchAttempts before an outbox message is marked failed.
const maxDispatchAttempts = 5

type Service struct {
	repo    *repository.Repository
	visits  *visitsrepo.Repository
	catalog *templates.Catalog
	log     *logger.Logger
}

func New(repo *repository.Repository, visits *visitsrepo.Repository, catalog *templates.Catalog, log *logger.Logger) *Service {
	return &Service{repo: repo, visits: visits, catalog: catalog, log: log}
}

// RegisterHandlers wires the service to every event that produces a customer
// message.
func (s *Service) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.VisitBooked{}.EventName(), events.HandlerFunc(s.onVisitBooked))
	bus.Subscribe(events.VisitRescheduled{}.EventName(), events.HandlerFunc(s.onVisitRescheduled))
	bus.Subscribe(events.VisitCancelledByCustomer{}.EventName(), events.HandlerFunc(s.onCustomerCancel))
	bus.Subscribe(events.VisitCancelledByBroker{}.EventName(), events.HandlerFunc(s.onBrokerCancel))
	bus.Subscribe(events.OTPIssued{}.EventName(), events.HandlerFunc(s.onOTPIssued))
	bus.Subscribe(events.RMCallRequested{}.EventName(), events.HandlerFunc(s.onRMCallRequested))
}

func (s *Service) onVisitBooked(ctx context.Context, event events.Event) error {
	e, ok := event.(events.VisitBooked)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	return s.queue(ctx, templates.TemplateVisitConfirmation, e.CustomerPhone, e.CustomerName, &e.VisitID, map[string]string{
		"customer_name": e.CustomerName,
		"visit_time":    e.SlotStart.Format(timeLayout),
		"visit_id":      e.VisitID.String(),
	})
}

func (s *Service) onVisitRescheduled(ctx context.Context, event events.Event) error {
	e, ok := event.(events.VisitRescheduled)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	visit, err := s.visits.GetVisit(ctx, e.VisitID)
	if err != nil {
		return err
	}
	return s.queue(ctx, templates.TemplateVisitRescheduled, visit.CustomerPhone, visit.CustomerName, &e.VisitID, map[string]string{
		"customer_name": visit.CustomerName,
		"visit_time":    e.NewSlotStart.Format(timeLayout),
		"visit_id":      e.VisitID.String(),
	})
}

func (s *Service) onCustomerCancel(ctx context.Context, event events.Event) error {
	e, ok := event.(events.VisitCancelledByCustomer)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	visit, err := s.visits.GetVisit(ctx, e.VisitID)
	if err != nil {
		return err
	}
	return s.queue(ctx, templates.TemplateCustomerCancel, visit.CustomerPhone, visit.CustomerName, &e.VisitID, map[string]string{
		"customer_name": visit.CustomerName,
	})
}

// onBrokerCancel messages every affected customer. Short-notice cancellations
// carry the priority rebooking window; ordinary ones only apologize.
func (s *Service) onBrokerCancel(ctx context.Context, event events.Event) error {
	e, ok := event.(events.VisitCancelledByBroker)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	for _, visitID := range e.VisitIDs {
		visit, err := s.visits.GetVisit(ctx, visitID)
		if err != nil {
			return err
		}

		template := templates.TemplateBrokerCancelNoPriority
		data := map[string]string{
			"customer_name": visit.CustomerName,
			"visit_time":    e.SlotStart.Format(timeLayout),
		}
		if e.ShortNotice && visit.PriorityRebookUntil != nil {
			template = templates.TemplateBrokerCancelPriority
			data["priority_until"] = visit.PriorityRebookUntil.Format(timeLayout)
		}

		if err := s.queue(ctx, template, visit.CustomerPhone, visit.CustomerName, &visitID, data); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) onOTPIssued(ctx context.Context, event events.Event) error {
	e, ok := event.(events.OTPIssued)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	return s.queue(ctx, templates.TemplateOTPVerification, e.CustomerPhone, e.CustomerName, &e.VisitID, map[string]string{
		"customer_name": e.CustomerName,
		"otp_code":      e.Code,
		"expires_at":    e.ExpiresAt.Format("15:04:05"),
	})
}

func (s *Service) onRMCallRequested(ctx context.Context, event events.Event) error {
	e, ok := event.(events.RMCallRequested)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	return s.queue(ctx, templates.TemplateCustomerHelp, e.CustomerPhone, e.CustomerName, nil, map[string]string{
		"customer_name": e.CustomerName,
		"visit_time":    e.SlotStart.Format(timeLayout),
	})
}

func (s *Service) queue(ctx context.Context, template, phone, name string, visitID *uuid.UUID, data map[string]string) error {
	body, err := s.catalog.Render(template, data)
	if err != nil {
		return err
	}

	msg := &repository.Message{
		ID:             uuid.New(),
		Template:       template,
		RecipientPhone: phone,
		RecipientName:  optional(name),
		Body:           body,
		VisitID:        visitID,
	}
	if err := s.repo.Enqueue(ctx, msg); err != nil {
		return err
	}

	visitRef := ""
	if visitID != nil {
		visitRef = visitID.String()
	}
	s.log.NotificationQueued(template, phone, visitRef)
	return nil
}

// MessageLog returns a customer's message history for RM support views.
func (s *Service) MessageLog(ctx context.Context, phone string, limit int) ([]repository.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByPhone(ctx, phone, limit)
}

// DispatchQueued delivers pending outbox messages. Delivery here is writing
// the message to the structured log; a real SMS provider would slot in at the
// marked call.
func (s *Service) DispatchQueued(ctx context.Context, batchSize int) (int, error) {
	queued, err := s.repo.ListQueued(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, msg := range queued {
		// Provider send would happen here.
		s.log.Info("notification dispatched",
			"messageId", msg.ID, "template", msg.Template, "recipient", msg.RecipientPhone)

		if err := s.repo.MarkSent(ctx, msg.ID, time.Now().UTC()); err != nil {
			if ferr := s.repo.MarkFailed(ctx, msg.ID, maxDispatchAttempts); ferr != nil {
				s.log.Warn("outbox bookkeeping failed", "messageId", msg.ID, "error", ferr)
			}
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
