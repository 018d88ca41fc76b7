package domain

import (
	"testing"
	"time"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestPlanBrokerCancelOnTime(t *testing.T) {
	plan := PlanBrokerCancel(now.Add(30*time.Hour), now, true, true)
	if plan.ShortNotice {
		t.Fatalf("30h out should not be short notice")
	}
	if plan.RaiseIncident || plan.AutoRejectIncident || plan.IssueFlag || plan.RequestRMCall {
		t.Fatalf("on-time cancel should carry no incident, flag or RM call: %+v", plan)
	}
	if plan.RebookWindowEnd != nil {
		t.Fatalf("on-time cancel should not grant priority rebooking")
	}
}

func TestPlanBrokerCancelShortNoticeWithEmergency(t *testing.T) {
	plan := PlanBrokerCancel(now.Add(10*time.Hour), now, true, true)
	if !plan.ShortNotice {
		t.Fatalf("10h out should be short notice")
	}
	if !plan.RaiseIncident {
		t.Fatalf("emergency claim should raise an incident")
	}
	if plan.AutoRejectIncident || plan.IssueFlag {
		t.Fatalf("emergency claim should defer judgment to review: %+v", plan)
	}
	if plan.RebookWindowEnd == nil || !plan.RebookWindowEnd.Equal(now.Add(48*time.Hour)) {
		t.Fatalf("expected 48h rebook window, got %v", plan.RebookWindowEnd)
	}
	if !plan.RequestRMCall {
		t.Fatalf("short-notice cancel should request an RM call")
	}
}

func TestPlanBrokerCancelShortNoticeWithoutEmergency(t *testing.T) {
	plan := PlanBrokerCancel(now.Add(10*time.Hour), now, false, true)
	if plan.RaiseIncident {
		t.Fatalf("no emergency claim should not open an RM review")
	}
	if !plan.AutoRejectIncident || !plan.IssueFlag {
		t.Fatalf("late cancel without emergency should auto-reject and flag: %+v", plan)
	}
}

func TestPlanBrokerCancelAutoFlagDisabled(t *testing.T) {
	plan := PlanBrokerCancel(now.Add(10*time.Hour), now, false, false)
	if !plan.AutoRejectIncident {
		t.Fatalf("incident should still be recorded with the policy off")
	}
	if plan.IssueFlag {
		t.Fatalf("flag should not be issued with the policy off")
	}
}

func TestVisitTerminalStates(t *testing.T) {
	if VisitScheduled.IsTerminal() {
		t.Fatalf("scheduled must not be terminal")
	}
	for _, s := range []VisitStatus{VisitCompleted, VisitCancelledByBroker, VisitCancelledByCustomer, VisitRescheduledByCustomer} {
		if !s.IsTerminal() {
			t.Fatalf("%s must be terminal", s)
		}
	}
}

func TestSlotGuards(t *testing.T) {
	if !CanBook(SlotOpen) || CanBook(SlotBooked) || CanBook(SlotCancelled) {
		t.Fatalf("only open slots are bookable")
	}
	if !CanBrokerCancel(SlotOpen) || !CanBrokerCancel(SlotBooked) {
		t.Fatalf("open and booked slots are cancellable")
	}
	if CanBrokerCancel(SlotCompleted) || CanBrokerCancel(SlotCancelled) {
		t.Fatalf("terminal slots are not cancellable")
	}
}
