package transport

import (
	"time"

	"github.com/google/uuid"
)

// IssueOTPResponse returns the freshly issued challenge.
// DemoCode is echoed for demo and testing transparency only; production
// deployments deliver the code through the notification channel instead.
type IssueOTPResponse struct {
	VisitID   uuid.UUID `json:"visitId"`
	DemoCode  string    `json:"demoCode"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CompleteVisitRequest carries the completion proof. Submitted as multipart
// form data so the photo fallback can ride along.
type CompleteVisitRequest struct {
	OTP string   `form:"otp" validate:"required,len=6,numeric"`
	Lat *float64 `form:"lat"`
	Lng *float64 `form:"lng"`
}

// CompleteVisitResponse reports how the visit was verified. Unique is null
// when classification has not run yet; the stamp lands on a later replay.
type CompleteVisitResponse struct {
	VisitID        uuid.UUID `json:"visitId"`
	CompletionMode string    `json:"completionMode"`
	Unique         *bool     `json:"unique"`
	DistanceMeters *float64  `json:"distanceMeters,omitempty"`
}
