package service

import (
	"testing"
	"time"

	"visitops_backend/internal/verification/repository"
	"visitops_backend/platform/apperr"

	"github.com/google/uuid"
)

var issued = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func challenge(code string, attempts int, invalidated bool) *repository.Challenge {
	return &repository.Challenge{
		ID:          uuid.New(),
		VisitID:     uuid.New(),
		Code:        code,
		IssuedAt:    issued,
		ExpiresAt:   issued.Add(120 * time.Second),
		Attempts:    attempts,
		Invalidated: invalidated,
	}
}

func TestEvaluateChallengeNoChallenge(t *testing.T) {
	err := EvaluateChallenge(nil, "123456", issued)
	if !apperr.IsCode(err, apperr.CodeNoActiveChallenge) {
		t.Fatalf("expected no_active_challenge, got %v", err)
	}
}

func TestEvaluateChallengeWindow(t *testing.T) {
	ch := challenge("123456", 0, false)

	if err := EvaluateChallenge(ch, "123456", issued); err != nil {
		t.Fatalf("submission at issue time should pass: %v", err)
	}
	if err := EvaluateChallenge(ch, "123456", issued.Add(119*time.Second)); err != nil {
		t.Fatalf("submission just inside the window should pass: %v", err)
	}
	err := EvaluateChallenge(ch, "123456", issued.Add(120*time.Second))
	if !apperr.IsCode(err, apperr.CodeExpiredOtp) {
		t.Fatalf("submission at expiry instant should fail expired_otp, got %v", err)
	}
}

func TestEvaluateChallengeMismatch(t *testing.T) {
	ch := challenge("123456", 0, false)
	err := EvaluateChallenge(ch, "654321", issued.Add(time.Second))
	if !apperr.IsCode(err, apperr.CodeInvalidOtp) {
		t.Fatalf("expected invalid_otp, got %v", err)
	}
}

func TestEvaluateChallengeExhaustedBeatsCorrectCode(t *testing.T) {
	// The 4th submission after 3 failures fails regardless of correctness.
	ch := challenge("123456", 3, true)
	err := EvaluateChallenge(ch, "123456", issued.Add(time.Second))
	if !apperr.IsCode(err, apperr.CodeAttemptsExhausted) {
		t.Fatalf("expected attempts_exhausted, got %v", err)
	}
}

func TestEvaluateChallengeSupersededIsNoActive(t *testing.T) {
	ch := challenge("123456", 0, true)
	err := EvaluateChallenge(ch, "123456", issued.Add(time.Second))
	if !apperr.IsCode(err, apperr.CodeNoActiveChallenge) {
		t.Fatalf("expected no_active_challenge for superseded challenge, got %v", err)
	}
}

func TestDecideCompletionModeGeofenceBoundary(t *testing.T) {
	propLat, propLng := 12.9716, 77.5946
	// ~0.0018 degrees of latitude is just under 200.0m, 0.0019 just over.
	within := propLat + 0.00179
	outside := propLat + 0.00190

	res, err := DecideCompletionMode(&propLat, &propLng, &within, &propLng, false)
	if err != nil {
		t.Fatalf("inside geofence should complete: %v", err)
	}
	if res.Mode != ModeGeoCheckin {
		t.Fatalf("expected geo_checkin, got %s", res.Mode)
	}
	if res.DistanceMeters == nil || *res.DistanceMeters > 200.0 {
		t.Fatalf("expected distance <= 200m, got %v", res.DistanceMeters)
	}

	_, err = DecideCompletionMode(&propLat, &propLng, &outside, &propLng, false)
	if !apperr.IsCode(err, apperr.CodeVerificationFailed) {
		t.Fatalf("outside geofence without photo should fail verification, got %v", err)
	}

	res, err = DecideCompletionMode(&propLat, &propLng, &outside, &propLng, true)
	if err != nil {
		t.Fatalf("outside geofence with photo should fall back: %v", err)
	}
	if res.Mode != ModePhotoFallback {
		t.Fatalf("expected photo_fallback, got %s", res.Mode)
	}
}

func TestDecideCompletionModeNoLocation(t *testing.T) {
	propLat, propLng := 12.9716, 77.5946

	res, err := DecideCompletionMode(&propLat, &propLng, nil, nil, true)
	if err != nil || res.Mode != ModePhotoFallback {
		t.Fatalf("missing location with photo should fall back, got %s %v", res.Mode, err)
	}

	_, err = DecideCompletionMode(&propLat, &propLng, nil, nil, false)
	if !apperr.IsCode(err, apperr.CodeVerificationFailed) {
		t.Fatalf("missing location without photo should fail, got %v", err)
	}
}

func TestGenerateCodeShape(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("expected numeric code, got %q", code)
			}
		}
	}
}
