package service

import (
	"visitops_backend/internal/temporal"
	"visitops_backend/platform/apperr"
	"visitops_backend/platform/geo"
)

// Completion modes stamped on a verified visit.
const (
	ModeGeoCheckin    = "geo_checkin"
	ModePhotoFallback = "photo_fallback"
)

// GeofenceResult is the outcome of the proximity check.
type GeofenceResult struct {
	Mode           string
	DistanceMeters *float64
}

// DecideCompletionMode runs the geofence check and falls back to photo
// evidence. Distance exactly at the radius passes; anything beyond it, or a
// missing location or property coordinates, requires a photo.
func DecideCompletionMode(propLat, propLng, checkinLat, checkinLng *float64, hasPhoto bool) (GeofenceResult, error) {
	if propLat != nil && propLng != nil && checkinLat != nil && checkinLng != nil {
		d := geo.DistanceMeters(*propLat, *propLng, *checkinLat, *checkinLng)
		if d <= temporal.GeofenceRadiusMeters {
			return GeofenceResult{Mode: ModeGeoCheckin, DistanceMeters: &d}, nil
		}
		if hasPhoto {
			return GeofenceResult{Mode: ModePhotoFallback, DistanceMeters: &d}, nil
		}
		return GeofenceResult{DistanceMeters: &d}, apperr.VerificationFailed("outside geofence and no photo provided")
	}

	if hasPhoto {
		return GeofenceResult{Mode: ModePhotoFallback}, nil
	}
	return GeofenceResult{}, apperr.VerificationFailed("no location and no photo provided")
}
