package transport

import (
	"time"

	"github.com/google/uuid"

	"visitops_backend/internal/ledger/repository"
	"visitops_backend/internal/ledger/service"
)

type FlagResponse struct {
	ID         uuid.UUID  `json:"id"`
	BrokerID   uuid.UUID  `json:"brokerId"`
	IncidentID *uuid.UUID `json:"incidentId,omitempty"`
	Reason     string     `json:"reason"`
	Level      int        `json:"level"`
	IssuedAt   time.Time  `json:"issuedAt"`
	DecaysAt   time.Time  `json:"decaysAt"`
	Active     bool       `json:"active"`
}

type PenaltyResponse struct {
	ID        uuid.UUID `json:"id"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

type StandingResponse struct {
	BrokerID    uuid.UUID         `json:"brokerId"`
	ActiveFlags int               `json:"activeFlags"`
	Level       int               `json:"level"`
	Deactivated bool              `json:"deactivated"`
	Flags       []FlagResponse    `json:"flags"`
	Penalties   []PenaltyResponse `json:"penalties"`
}

func ToStandingResponse(s *service.Standing, asOf time.Time) StandingResponse {
	flags := make([]FlagResponse, 0, len(s.Flags))
	for _, f := range s.Flags {
		flags = append(flags, toFlagResponse(f, asOf))
	}
	penalties := make([]PenaltyResponse, 0, len(s.Penalties))
	for _, p := range s.Penalties {
		penalties = append(penalties, PenaltyResponse{
			ID: p.ID, Year: p.Year, Month: p.Month, Reason: p.Reason, CreatedAt: p.CreatedAt,
		})
	}
	return StandingResponse{
		BrokerID:    s.BrokerID,
		ActiveFlags: s.ActiveFlags,
		Level:       s.Level,
		Deactivated: s.Deactivated,
		Flags:       flags,
		Penalties:   penalties,
	}
}

func toFlagResponse(f repository.Flag, asOf time.Time) FlagResponse {
	return FlagResponse{
		ID:         f.ID,
		BrokerID:   f.BrokerID,
		IncidentID: f.IncidentID,
		Reason:     f.Reason,
		Level:      f.Level,
		IssuedAt:   f.IssuedAt,
		DecaysAt:   f.DecaysAt,
		Active:     asOf.Before(f.DecaysAt),
	}
}
