package domain

import (
	"testing"
	"time"

	"visitops_backend/internal/temporal"
)

func TestPlanFlagEscalation(t *testing.T) {
	cases := []struct {
		active      int
		wantLevel   int
		wantPenalty bool
		wantDeact   bool
	}{
		{0, 1, false, false},
		{1, 2, true, false},
		{2, 3, true, true},
		{3, 4, true, true},
	}
	for _, tc := range cases {
		plan := PlanFlag(tc.active)
		if plan.Level != tc.wantLevel {
			t.Fatalf("PlanFlag(%d).Level = %d, want %d", tc.active, plan.Level, tc.wantLevel)
		}
		if plan.RecordPenalty != tc.wantPenalty {
			t.Fatalf("PlanFlag(%d).RecordPenalty = %v, want %v", tc.active, plan.RecordPenalty, tc.wantPenalty)
		}
		if plan.Deactivate != tc.wantDeact {
			t.Fatalf("PlanFlag(%d).Deactivate = %v, want %v", tc.active, plan.Deactivate, tc.wantDeact)
		}
	}
}

func TestThirdFlagDeactivates(t *testing.T) {
	if Deactivated(2) {
		t.Fatal("broker with two live flags must still operate")
	}
	if !Deactivated(3) {
		t.Fatal("broker with three live flags must be deactivated")
	}
}

func TestDecayRestoresStanding(t *testing.T) {
	issued := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	decay := temporal.FlagDecayAt(issued)

	// Three flags issued the same day deactivate the broker.
	countAt := func(asOf time.Time) int {
		n := 0
		for i := 0; i < 3; i++ {
			if temporal.FlagActive(issued, asOf) {
				n++
			}
		}
		return n
	}

	before := decay.Add(-time.Minute)
	if !Deactivated(countAt(before)) {
		t.Fatal("broker must be deactivated while all three flags are live")
	}

	after := decay.Add(time.Minute)
	if Deactivated(countAt(after)) {
		t.Fatal("broker must regain standing once flags decay")
	}
}

func TestDisplayLevelCap(t *testing.T) {
	for active, want := range map[int]int{0: 0, 1: 1, 3: 3, 5: 3} {
		if got := DisplayLevel(active); got != want {
			t.Fatalf("DisplayLevel(%d) = %d, want %d", active, got, want)
		}
	}
}
