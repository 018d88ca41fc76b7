package repository

import (
	"errors"
	"testing"

	"visitops_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
)

func TestAttemptRecordErrConsumedRace(t *testing.T) {
	// A challenge consumed by a racing successful completion leaves no row
	// for the attempt update; the loser must see invalid_state, not a
	// generic failure.
	err := attemptRecordErr(pgx.ErrNoRows)
	if !apperr.IsCode(err, apperr.CodeInvalidState) {
		t.Fatalf("expected invalid_state for consumed challenge, got %v", err)
	}
}

func TestAttemptRecordErrPassesThroughOtherFailures(t *testing.T) {
	cause := errors.New("connection reset")
	err := attemptRecordErr(cause)
	if apperr.IsCode(err, apperr.CodeInvalidState) {
		t.Fatalf("infrastructure failures must not masquerade as invalid_state: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause must be wrapped, got %v", err)
	}
}
