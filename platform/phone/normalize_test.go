package phone

import "testing"

func TestNormalizeE164LocalNumber(t *testing.T) {
	got := NormalizeE164("98765 43210")
	if got != "+919876543210" {
		t.Fatalf("expected +919876543210, got %q", got)
	}
}

func TestNormalizeE164AlreadyInternational(t *testing.T) {
	got := NormalizeE164("+919876543210")
	if got != "+919876543210" {
		t.Fatalf("expected +919876543210, got %q", got)
	}
}

func TestNormalizeE164InvalidReturnsTrimmedInput(t *testing.T) {
	got := NormalizeE164("  not-a-number ")
	if got != "not-a-number" {
		t.Fatalf("expected trimmed input back, got %q", got)
	}
}

func TestSamePhone(t *testing.T) {
	if !SamePhone("9876543210", "+91 98765 43210") {
		t.Fatalf("expected numbers to match after normalization")
	}
	if SamePhone("9876543210", "9876543211") {
		t.Fatalf("expected different numbers not to match")
	}
}
