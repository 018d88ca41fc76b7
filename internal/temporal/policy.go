// Package temporal centralizes every time-based business rule so review
// deadlines, OTP windows and decay horizons are computed in exactly one place.
package temporal

import "time"

const (
	// OTPTTL is how long an issued OTP stays valid.
	OTPTTL = 120 * time.Second
	// MaxOTPAttempts is the verification attempt budget per challenge.
	MaxOTPAttempts = 3
	// GeofenceRadiusMeters is the max distance for on-site OTP verification.
	GeofenceRadiusMeters = 200.0
	// FlagDecayPeriod is how long a flag stays active before it decays.
	FlagDecayPeriod = 90 * 24 * time.Hour
	// RebookPriorityWindow is how long a customer keeps priority rebooking
	// after a short-notice broker cancellation.
	RebookPriorityWindow = 48 * time.Hour
	// ShortNoticeThreshold marks a broker cancellation as short notice.
	ShortNoticeThreshold = 24 * time.Hour
	// SRMReviewExtension is added to the RM deadline to get the SRM deadline.
	SRMReviewExtension = 24 * time.Hour
)

// RMReviewDue computes the RM review deadline for an incident raised at t.
// Morning incidents get a same-day 12h window, afternoon incidents get 24h.
func RMReviewDue(t time.Time) time.Time {
	if t.Hour() < 12 {
		return t.Add(12 * time.Hour)
	}
	return t.Add(24 * time.Hour)
}

// SRMReviewDue computes the SRM deadline by extending the RM deadline.
// The extension is anchored on the original RM deadline, not on the moment
// the incident escalated, so a late escalation cannot push the SRM window out.
func SRMReviewDue(rmDue time.Time) time.Time {
	return rmDue.Add(SRMReviewExtension)
}

// OTPExpiry returns when an OTP issued at t stops being accepted.
func OTPExpiry(t time.Time) time.Time {
	return t.Add(OTPTTL)
}

// FlagDecayAt returns when a flag issued at t stops counting as active.
func FlagDecayAt(t time.Time) time.Time {
	return t.Add(FlagDecayPeriod)
}

// FlagActive reports whether a flag issued at issuedAt is still active at asOf.
// The stored status column is advisory; this comparison is authoritative.
func FlagActive(issuedAt, asOf time.Time) bool {
	return asOf.Before(FlagDecayAt(issuedAt))
}

// RebookWindowEnd returns when priority rebooking expires for a cancellation at t.
func RebookWindowEnd(t time.Time) time.Time {
	return t.Add(RebookPriorityWindow)
}

// IsShortNotice reports whether cancelling at now against a slot starting at
// slotStart falls inside the short-notice window.
func IsShortNotice(slotStart, now time.Time) bool {
	return slotStart.Sub(now) < ShortNoticeThreshold
}

// TourDurationMinutes returns the planned duration for a tour of n properties.
// The first property takes 120 minutes and every additional one adds 45.
// Counts below one are treated as a single-property tour.
func TourDurationMinutes(propertyCount int) int {
	if propertyCount < 1 {
		propertyCount = 1
	}
	return 120 + (propertyCount-1)*45
}
