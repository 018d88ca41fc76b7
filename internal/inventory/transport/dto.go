package transport

import (
	"time"

	"github.com/google/uuid"

	"visitops_backend/internal/inventory/repository"
)

type CreatePropertyRequest struct {
	Title         string   `json:"title" validate:"required,min=3,max=200"`
	Description   *string  `json:"description" validate:"omitempty,max=5000"`
	City          string   `json:"city" validate:"required,min=2,max=100"`
	LocationText  string   `json:"locationText" validate:"required,min=3,max=300"`
	AssetType     string   `json:"assetType" validate:"required,oneof=apartment villa plot studio office shop"`
	Configuration string   `json:"configuration" validate:"required,max=30"`
	Price         *float64 `json:"price" validate:"omitempty,gt=0"`
	AreaSqft      *float64 `json:"areaSqft" validate:"omitempty,gt=0"`
	Lat           *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng           *float64 `json:"lng" validate:"omitempty,longitude"`
	ImageURL      *string  `json:"imageUrl" validate:"omitempty,url"`
}

type RemovePropertyRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

type PropertyResponse struct {
	ID                  uuid.UUID  `json:"id"`
	BrokerID            uuid.UUID  `json:"brokerId"`
	Title               string     `json:"title"`
	Description         *string    `json:"description,omitempty"`
	City                string     `json:"city"`
	LocationText        string     `json:"locationText"`
	AssetType           string     `json:"assetType"`
	Configuration       string     `json:"configuration"`
	Price               *float64   `json:"price,omitempty"`
	AreaSqft            *float64   `json:"areaSqft,omitempty"`
	Lat                 *float64   `json:"lat,omitempty"`
	Lng                 *float64   `json:"lng,omitempty"`
	ImageURL            *string    `json:"imageUrl,omitempty"`
	Status              string     `json:"status"`
	HiddenFromCustomers bool       `json:"hiddenFromCustomers"`
	DuplicateScore      *float64   `json:"duplicateScore,omitempty"`
	PrimaryPropertyID   *uuid.UUID `json:"primaryPropertyId,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
}

func ToPropertyResponse(p *repository.Property) PropertyResponse {
	return PropertyResponse{
		ID:                  p.ID,
		BrokerID:            p.BrokerID,
		Title:               p.Title,
		Description:         p.Description,
		City:                p.City,
		LocationText:        p.LocationText,
		AssetType:           p.AssetType,
		Configuration:       p.Configuration,
		Price:               p.Price,
		AreaSqft:            p.AreaSqft,
		Lat:                 p.Lat,
		Lng:                 p.Lng,
		ImageURL:            p.ImageURL,
		Status:              p.Status,
		HiddenFromCustomers: p.HiddenFromCustomers,
		DuplicateScore:      p.DuplicateScore,
		PrimaryPropertyID:   p.PrimaryPropertyID,
		CreatedAt:           p.CreatedAt,
	}
}

type CreatePropertyResponse struct {
	Property       PropertyResponse `json:"property"`
	UnderReview    bool             `json:"underReview"`
	DuplicateScore float64          `json:"duplicateScore"`
}
