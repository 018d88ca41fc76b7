package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"visitops_backend/internal/escalation/domain"
	"visitops_backend/internal/escalation/repository"
	"visitops_backend/internal/events"
	"visitops_backend/internal/temporal"
	"visitops_backend/platform/apperr"
	"visitops_backend/platform/logger"
)

// FlagIssuer is the accountability ledger as seen from the incident pipeline.
type FlagIssuer interface {
	IssueFlag(ctx context.Context, brokerID uuid.UUID, incidentID uuid.UUID, reason string) error
}

// flagReasonLateCancel is the ledger reason for flags born from late
// cancellations, whether auto-rejected or reviewer-rejected.
const flagReasonLateCancel = "short_notice_cancellation"

// RaiseParams is the cancellation context an incident is built from.
type RaiseParams struct {
	SlotID             uuid.UUID
	BrokerID           uuid.UUID
	VisitIDs           []uuid.UUID
	RaisedAt           time.Time
	EmergencyRequested bool
	EmergencyReason    string
	EmergencyDetails   string
	CancelReason       string
}

type Service struct {
	repo     *repository.Repository
	flags    FlagIssuer
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
}

func New(repo *repository.Repository, flags FlagIssuer, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, flags: flags, eventBus: eventBus, log: log, now: time.Now}
}

// RaiseEmergency opens an incident for a claimed-emergency late cancellation.
// The RM deadline depends on the time of day the incident is raised.
func (s *Service) RaiseEmergency(ctx context.Context, p RaiseParams) (uuid.UUID, error) {
	rmDue := temporal.RMReviewDue(p.RaisedAt)
	inc := &repository.Incident{
		ID:                 uuid.New(),
		SlotID:             p.SlotID,
		BrokerID:           p.BrokerID,
		VisitIDs:           p.VisitIDs,
		Status:             domain.StatusPendingRM,
		EmergencyRequested: true,
		EmergencyReason:    optional(p.EmergencyReason),
		EmergencyDetails:   optional(p.EmergencyDetails),
		CancelReason:       optional(p.CancelReason),
		RaisedAt:           p.RaisedAt,
		RMDueAt:            rmDue,
	}
	if err := s.repo.Insert(ctx, inc); err != nil {
		return uuid.Nil, err
	}

	s.log.SLAEvent("rm_review_due", inc.ID.String(), slog.Time("due_at", rmDue))
	s.eventBus.Publish(ctx, events.EmergencyIncidentRaised{
		BaseEvent:  events.NewBaseEvent(),
		IncidentID: inc.ID,
		BrokerID:   p.BrokerID,
		SlotID:     p.SlotID,
		RMDueAt:    rmDue,
	})
	return inc.ID, nil
}

// RecordAutoRejected opens an already-terminal incident for a late
// cancellation with no emergency claim, optionally flagging the broker in the
// same breath.
func (s *Service) RecordAutoRejected(ctx context.Context, p RaiseParams, issueFlag bool) (uuid.UUID, error) {
	reviewedAt := p.RaisedAt
	inc := &repository.Incident{
		ID:                 uuid.New(),
		SlotID:             p.SlotID,
		BrokerID:           p.BrokerID,
		VisitIDs:           p.VisitIDs,
		Status:             domain.StatusAutoRejected,
		EmergencyRequested: p.EmergencyRequested,
		EmergencyReason:    optional(p.EmergencyReason),
		EmergencyDetails:   optional(p.EmergencyDetails),
		CancelReason:       optional(p.CancelReason),
		RaisedAt:           p.RaisedAt,
		RMDueAt:            temporal.RMReviewDue(p.RaisedAt),
		ReviewedAt:         &reviewedAt,
		FlagIssued:         issueFlag,
	}
	if err := s.repo.Insert(ctx, inc); err != nil {
		return uuid.Nil, err
	}

	if issueFlag {
		if err := s.flags.IssueFlag(ctx, p.BrokerID, inc.ID, flagReasonLateCancel); err != nil {
			return uuid.Nil, fmt.Errorf("flag broker for auto-rejected incident: %w", err)
		}
	}
	return inc.ID, nil
}

// ApplySLA escalates every pending incident whose RM deadline has passed.
// Escalation is lazy: this runs on every incident read, so deadlines take
// effect without a background clock.
func (s *Service) ApplySLA(ctx context.Context, now time.Time) error {
	due, err := s.repo.ListEscalatable(ctx, now)
	if err != nil {
		return err
	}
	for i := range due {
		if err := s.escalate(ctx, &due[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) escalate(ctx context.Context, inc *repository.Incident) error {
	srmDue := temporal.SRMReviewDue(inc.RMDueAt)
	won, err := s.repo.Escalate(ctx, inc, srmDue)
	if err != nil {
		return err
	}
	if !won {
		return nil
	}

	s.log.SLAEvent("escalated_to_srm", inc.ID.String(), slog.Time("srm_due_at", srmDue))
	s.eventBus.Publish(ctx, events.IncidentEscalated{
		BaseEvent:  events.NewBaseEvent(),
		IncidentID: inc.ID,
		BrokerID:   inc.BrokerID,
		SRMDueAt:   srmDue,
	})
	return nil
}

// ListOpen returns undecided incidents after applying overdue escalations.
func (s *Service) ListOpen(ctx context.Context) ([]repository.Incident, error) {
	if err := s.ApplySLA(ctx, s.now().UTC()); err != nil {
		return nil, err
	}
	return s.repo.ListOpen(ctx)
}

func (s *Service) ListByBroker(ctx context.Context, brokerID uuid.UUID) ([]repository.Incident, error) {
	if err := s.ApplySLA(ctx, s.now().UTC()); err != nil {
		return nil, err
	}
	return s.repo.ListByBroker(ctx, brokerID)
}

// Get returns one incident, escalating it first if its deadline has passed.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*repository.Incident, error) {
	inc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if domain.EscalationDue(inc.Status, inc.RMDueAt, s.now().UTC()) {
		if err := s.escalate(ctx, inc); err != nil {
			return nil, err
		}
		return s.repo.Get(ctx, id)
	}
	return inc, nil
}

// ReviewResult reports the decision outcome.
type ReviewResult struct {
	Incident   *repository.Incident
	FlagIssued bool
}

// Review records an approve or reject decision at the given stage. A rejected
// emergency claim flags the broker. An incident past its RM deadline escalates
// before the decision is checked, so an overdue RM review is refused.
func (s *Service) Review(ctx context.Context, incidentID, reviewerID uuid.UUID, stage string, approve bool, note *string) (*ReviewResult, error) {
	inc, err := s.Get(ctx, incidentID)
	if err != nil {
		return nil, err
	}

	if domain.IsTerminal(inc.Status) {
		return nil, apperr.AlreadyResolved("incident is already decided")
	}
	if !domain.CanReview(inc.Status, stage) {
		return nil, apperr.Conflict(fmt.Sprintf("incident is not reviewable at the %s stage", stage))
	}

	newStatus := domain.StatusRejected
	flagIssued := !approve
	if approve {
		newStatus = domain.StatusApproved
	}

	err = s.repo.Review(ctx, repository.ReviewParams{
		Incident:   inc,
		NewStatus:  newStatus,
		Stage:      stage,
		ReviewerID: reviewerID,
		Note:       note,
		ReviewedAt: s.now().UTC(),
		FlagIssued: flagIssued,
	})
	if err != nil {
		return nil, err
	}

	if flagIssued {
		if err := s.flags.IssueFlag(ctx, inc.BrokerID, inc.ID, flagReasonLateCancel); err != nil {
			return nil, fmt.Errorf("flag broker for rejected incident: %w", err)
		}
	}

	s.log.Info("incident reviewed",
		"incidentId", incidentID, "stage", stage, "approved", approve,
		"reviewerId", reviewerID, "flagIssued", flagIssued)

	updated, err := s.repo.Get(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	return &ReviewResult{Incident: updated, FlagIssued: flagIssued}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
