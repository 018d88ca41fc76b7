package transport

import (
	"time"

	"github.com/google/uuid"

	"visitops_backend/internal/duplicates/repository"
)

type ResolveRequest struct {
	Resolution string  `json:"resolution" validate:"required,oneof=approve_visible keep_backup mark_duplicate"`
	Notes      *string `json:"notes" validate:"omitempty,max=2000"`
}

type ReviewEntryResponse struct {
	ID                uuid.UUID  `json:"id"`
	PropertyID        uuid.UUID  `json:"propertyId"`
	MatchedPropertyID uuid.UUID  `json:"matchedPropertyId"`
	Score             float64    `json:"score"`
	Status            string     `json:"status"`
	AutoHidden        bool       `json:"autoHidden"`
	Resolution        *string    `json:"resolution,omitempty"`
	ResolvedBy        *uuid.UUID `json:"resolvedBy,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	ResolvedAt        *time.Time `json:"resolvedAt,omitempty"`
}

func ToReviewEntryResponse(e *repository.ReviewEntry) ReviewEntryResponse {
	return ReviewEntryResponse{
		ID:                e.ID,
		PropertyID:        e.PropertyID,
		MatchedPropertyID: e.MatchedPropertyID,
		Score:             e.Score,
		Status:            e.Status,
		AutoHidden:        e.AutoHidden,
		Resolution:        e.Resolution,
		ResolvedBy:        e.ResolvedBy,
		Notes:             e.Notes,
		CreatedAt:         e.CreatedAt,
		ResolvedAt:        e.ResolvedAt,
	}
}
