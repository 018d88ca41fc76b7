package transport

import (
	"time"

	"github.com/google/uuid"

	"visitops_backend/internal/escalation/repository"
)

type ReviewRequest struct {
	Stage   string  `json:"stage" validate:"required,oneof=rm srm"`
	Approve *bool   `json:"approve" validate:"required"`
	Note    *string `json:"note" validate:"omitempty,max=2000"`
}

type IncidentResponse struct {
	ID                 uuid.UUID   `json:"id"`
	SlotID             uuid.UUID   `json:"slotId"`
	BrokerID           uuid.UUID   `json:"brokerId"`
	VisitIDs           []uuid.UUID `json:"visitIds"`
	Status             string      `json:"status"`
	EmergencyRequested bool        `json:"emergencyRequested"`
	EmergencyReason    *string     `json:"emergencyReason,omitempty"`
	EmergencyDetails   *string     `json:"emergencyDetails,omitempty"`
	CancelReason       *string     `json:"cancelReason,omitempty"`
	RaisedAt           time.Time   `json:"raisedAt"`
	RMDueAt            time.Time   `json:"rmDueAt"`
	SRMDueAt           *time.Time  `json:"srmDueAt,omitempty"`
	ReviewedBy         *uuid.UUID  `json:"reviewedBy,omitempty"`
	ReviewStage        *string     `json:"reviewStage,omitempty"`
	ReviewNote         *string     `json:"reviewNote,omitempty"`
	ReviewedAt         *time.Time  `json:"reviewedAt,omitempty"`
	FlagIssued         bool        `json:"flagIssued"`
}

type ReviewResponse struct {
	Incident   IncidentResponse `json:"incident"`
	FlagIssued bool             `json:"flagIssued"`
}

func ToIncidentResponse(inc *repository.Incident) IncidentResponse {
	return IncidentResponse{
		ID:                 inc.ID,
		SlotID:             inc.SlotID,
		BrokerID:           inc.BrokerID,
		VisitIDs:           inc.VisitIDs,
		Status:             inc.Status,
		EmergencyRequested: inc.EmergencyRequested,
		EmergencyReason:    inc.EmergencyReason,
		EmergencyDetails:   inc.EmergencyDetails,
		CancelReason:       inc.CancelReason,
		RaisedAt:           inc.RaisedAt,
		RMDueAt:            inc.RMDueAt,
		SRMDueAt:           inc.SRMDueAt,
		ReviewedBy:         inc.ReviewedBy,
		ReviewStage:        inc.ReviewStage,
		ReviewNote:         inc.ReviewNote,
		ReviewedAt:         inc.ReviewedAt,
		FlagIssued:         inc.FlagIssued,
	}
}
