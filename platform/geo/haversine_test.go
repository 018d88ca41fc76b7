package geo

import (
	"math"
	"testing"
)

func TestDistanceMetersZero(t *testing.T) {
	d := DistanceMeters(12.9716, 77.5946, 12.9716, 77.5946)
	if d != 0 {
		t.Fatalf("expected 0 distance for identical points, got %f", d)
	}
}

func TestDistanceMetersKnownPair(t *testing.T) {
	// MG Road to Cubbon Park in Bengaluru, roughly 1.1km apart.
	d := DistanceMeters(12.9758, 77.6045, 12.9763, 77.5929)
	if d < 1000 || d > 1400 {
		t.Fatalf("expected distance around 1.1-1.3km, got %f", d)
	}
}

func TestDistanceMetersSmallOffset(t *testing.T) {
	// One degree of latitude is roughly 111km, so 0.001 deg is ~111m.
	d := DistanceMeters(12.9716, 77.5946, 12.9726, 77.5946)
	if math.Abs(d-111.2) > 1.0 {
		t.Fatalf("expected ~111m, got %f", d)
	}
}

func TestDistanceMetersSymmetric(t *testing.T) {
	a := DistanceMeters(12.9716, 77.5946, 13.0827, 80.2707)
	b := DistanceMeters(13.0827, 80.2707, 12.9716, 77.5946)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("distance not symmetric: %f vs %f", a, b)
	}
}
