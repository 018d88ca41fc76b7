package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"visitops_backend/internal/temporal"
	"visitops_backend/internal/verification/repository"
	"visitops_backend/platform/apperr"
)

// GenerateCode returns a 6-digit numeric code. Codes are short-lived and
// attempt-limited rather than cryptographically strong.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// EvaluateChallenge checks a submitted code against the visit's latest
// challenge. A nil error means the challenge matched and may be consumed.
// Submissions at or after the expiry instant are rejected.
func EvaluateChallenge(ch *repository.Challenge, submitted string, now time.Time) error {
	if ch == nil {
		return apperr.NoActiveChallenge("no OTP has been issued for this visit")
	}
	if ch.Attempts >= temporal.MaxOTPAttempts {
		return apperr.AttemptsExhausted("OTP attempts exhausted, re-issue required")
	}
	if ch.Invalidated {
		return apperr.NoActiveChallenge("challenge was superseded, re-issue required")
	}
	if !now.Before(ch.ExpiresAt) {
		return apperr.ExpiredOtp("OTP has expired, re-issue required")
	}
	if ch.Code != submitted {
		return apperr.InvalidOtp("OTP does not match")
	}
	return nil
}
