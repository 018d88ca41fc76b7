package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"visitops_backend/internal/events"
	"visitops_backend/internal/ledger/domain"
	"visitops_backend/internal/ledger/repository"
	"visitops_backend/internal/temporal"
	"visitops_backend/platform/logger"
)

// Standing is the broker accountability summary, recomputed from live flags
// on every call.
type Standing struct {
	BrokerID    uuid.UUID
	ActiveFlags int
	Level       int
	Deactivated bool
	Flags       []repository.Flag
	Penalties   []repository.Penalty
}

type Service struct {
	repo     *repository.Repository
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
}

func New(repo *repository.Repository, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: eventBus, log: log, now: time.Now}
}

// IssueFlag records an accountability flag against the broker. The flag level
// counts only flags still live at issue time; level two and above adds a
// monthly penalty, level three and above deactivates the broker.
func (s *Service) IssueFlag(ctx context.Context, brokerID uuid.UUID, incidentID *uuid.UUID, reason string) (*repository.Flag, error) {
	now := s.now().UTC()

	active, err := s.repo.ActiveFlags(ctx, brokerID, now)
	if err != nil {
		return nil, err
	}
	plan := domain.PlanFlag(len(active))

	flag := repository.Flag{
		ID:         uuid.New(),
		BrokerID:   brokerID,
		IncidentID: incidentID,
		Reason:     reason,
		Level:      plan.Level,
		IssuedAt:   now,
		DecaysAt:   temporal.FlagDecayAt(now),
	}
	err = s.repo.IssueFlag(ctx, repository.IssueParams{
		Flag:          flag,
		RecordPenalty: plan.RecordPenalty,
		PenaltyReason: reason,
		Deactivate:    plan.Deactivate,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("broker flag issued",
		"brokerId", brokerID, "flagId", flag.ID, "level", plan.Level,
		"reason", reason, "decaysAt", flag.DecaysAt)

	s.eventBus.Publish(ctx, events.FlagIssued{
		BaseEvent: events.NewBaseEvent(),
		FlagID:    flag.ID,
		BrokerID:  brokerID,
		Reason:    reason,
		Level:     plan.Level,
		DecaysAt:  flag.DecaysAt,
	})
	if plan.Deactivate {
		s.eventBus.Publish(ctx, events.BrokerDeactivated{
			BaseEvent:   events.NewBaseEvent(),
			BrokerID:    brokerID,
			ActiveFlags: plan.Level,
		})
	}

	return &flag, nil
}

// IsDeactivated reports whether the broker may operate at asOf. Flags past
// their decay timestamp no longer count, so standing restores itself without
// any write; the advisory brokers.status column is resynced opportunistically.
func (s *Service) IsDeactivated(ctx context.Context, brokerID uuid.UUID, asOf time.Time) (bool, error) {
	active, err := s.repo.ActiveFlags(ctx, brokerID, asOf)
	if err != nil {
		return false, err
	}
	deactivated := domain.Deactivated(len(active))
	if !deactivated {
		if err := s.repo.ReactivateBroker(ctx, brokerID); err != nil {
			s.log.Warn("broker reactivation sync failed", "brokerId", brokerID, "error", err)
		}
	}
	return deactivated, nil
}

// GetStanding returns the full accountability view for a broker.
func (s *Service) GetStanding(ctx context.Context, brokerID uuid.UUID, asOf time.Time) (*Standing, error) {
	active, err := s.repo.ActiveFlags(ctx, brokerID, asOf)
	if err != nil {
		return nil, err
	}
	flags, err := s.repo.AllFlags(ctx, brokerID)
	if err != nil {
		return nil, err
	}
	penalties, err := s.repo.Penalties(ctx, brokerID)
	if err != nil {
		return nil, err
	}
	return &Standing{
		BrokerID:    brokerID,
		ActiveFlags: len(active),
		Level:       domain.DisplayLevel(len(active)),
		Deactivated: domain.Deactivated(len(active)),
		Flags:       flags,
		Penalties:   penalties,
	}, nil
}
