package domain

import (
	"testing"
	"time"

	"visitops_backend/internal/temporal"
)

func TestCanReviewStageGating(t *testing.T) {
	cases := []struct {
		status string
		stage  string
		want   bool
	}{
		{StatusPendingRM, StageRM, true},
		{StatusPendingRM, StageSRM, false},
		{StatusEscalatedSRM, StageRM, false},
		{StatusEscalatedSRM, StageSRM, true},
		{StatusApproved, StageRM, false},
		{StatusApproved, StageSRM, false},
		{StatusRejected, StageSRM, false},
		{StatusAutoRejected, StageRM, false},
		{StatusPendingRM, "admin", false},
	}
	for _, tc := range cases {
		if got := CanReview(tc.status, tc.stage); got != tc.want {
			t.Fatalf("CanReview(%s, %s) = %v, want %v", tc.status, tc.stage, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for status, want := range map[string]bool{
		StatusPendingRM:    false,
		StatusEscalatedSRM: false,
		StatusApproved:     true,
		StatusRejected:     true,
		StatusAutoRejected: true,
	} {
		if got := IsTerminal(status); got != want {
			t.Fatalf("IsTerminal(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestEscalationDueAtDeadline(t *testing.T) {
	rmDue := time.Date(2026, 3, 4, 21, 0, 0, 0, time.UTC)

	if EscalationDue(StatusPendingRM, rmDue, rmDue.Add(-time.Second)) {
		t.Fatal("incident must not escalate before its deadline")
	}
	if !EscalationDue(StatusPendingRM, rmDue, rmDue) {
		t.Fatal("incident must escalate exactly at its deadline")
	}
	if !EscalationDue(StatusPendingRM, rmDue, rmDue.Add(time.Hour)) {
		t.Fatal("incident must escalate after its deadline")
	}
	if EscalationDue(StatusEscalatedSRM, rmDue, rmDue.Add(time.Hour)) {
		t.Fatal("already escalated incident must not escalate again")
	}
	if EscalationDue(StatusApproved, rmDue, rmDue.Add(time.Hour)) {
		t.Fatal("terminal incident must not escalate")
	}
}

func TestSRMDeadlineAnchorsToRMDeadline(t *testing.T) {
	raised := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	rmDue := temporal.RMReviewDue(raised)
	srmDue := temporal.SRMReviewDue(rmDue)

	if want := rmDue.Add(24 * time.Hour); !srmDue.Equal(want) {
		t.Fatalf("SRM deadline = %v, want %v", srmDue, want)
	}
}
