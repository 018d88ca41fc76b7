package temporal

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC)
}

func TestRMReviewDueMorning(t *testing.T) {
	raised := at(11, 59)
	due := RMReviewDue(raised)
	if due != raised.Add(12*time.Hour) {
		t.Fatalf("expected 12h window for 11:59 incident, got %v", due)
	}
}

func TestRMReviewDueAfternoon(t *testing.T) {
	raised := at(12, 0)
	due := RMReviewDue(raised)
	if due != raised.Add(24*time.Hour) {
		t.Fatalf("expected 24h window for 12:00 incident, got %v", due)
	}
}

func TestSRMReviewDueAnchorsOnRMDeadline(t *testing.T) {
	rmDue := at(9, 0)
	srmDue := SRMReviewDue(rmDue)
	if srmDue != rmDue.Add(24*time.Hour) {
		t.Fatalf("expected SRM deadline 24h after RM deadline, got %v", srmDue)
	}
}

func TestFlagActiveBoundary(t *testing.T) {
	issued := at(10, 0)
	justBefore := issued.Add(FlagDecayPeriod).Add(-time.Second)
	if !FlagActive(issued, justBefore) {
		t.Fatalf("flag should still be active one second before decay")
	}
	if FlagActive(issued, issued.Add(FlagDecayPeriod)) {
		t.Fatalf("flag should not be active at decay instant")
	}
}

func TestIsShortNotice(t *testing.T) {
	slot := at(10, 0)
	if !IsShortNotice(slot, slot.Add(-23*time.Hour)) {
		t.Fatalf("23h before slot should be short notice")
	}
	if IsShortNotice(slot, slot.Add(-24*time.Hour)) {
		t.Fatalf("exactly 24h before slot should not be short notice")
	}
	if IsShortNotice(slot, slot.Add(-48*time.Hour)) {
		t.Fatalf("48h before slot should not be short notice")
	}
}

func TestTourDurationMinutes(t *testing.T) {
	cases := []struct {
		count int
		want  int
	}{
		{0, 120},
		{1, 120},
		{2, 165},
		{3, 210},
		{5, 300},
	}
	for _, tc := range cases {
		if got := TourDurationMinutes(tc.count); got != tc.want {
			t.Fatalf("duration for %d properties: expected %d, got %d", tc.count, tc.want, got)
		}
	}
}

func TestOTPExpiry(t *testing.T) {
	issued := at(10, 0)
	if OTPExpiry(issued) != issued.Add(120*time.Second) {
		t.Fatalf("expected 120s OTP window")
	}
}
