package scoring

import (
	"math"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func sampleListing() Listing {
	return Listing{
		Title:         "3BHK in Indiranagar",
		LocationText:  "100 Feet Road, Indiranagar, Bengaluru",
		AssetType:     "apartment",
		Configuration: "3BHK",
		ImageURL:      "https://cdn.example.com/listings/abc123/front.jpg",
		Price:         fptr(18500000),
		AreaSqft:      fptr(1650),
		Lat:           fptr(12.9784),
		Lng:           fptr(77.6408),
	}
}

func TestDefaultScorerIdenticalListings(t *testing.T) {
	a := sampleListing()
	b := sampleListing()

	score := DefaultScorer(a, b)
	if math.Abs(score-100) > 1e-9 {
		t.Fatalf("identical listings scored %.4f, want 100", score)
	}
}

func TestDefaultScorerSymmetry(t *testing.T) {
	a := sampleListing()
	b := sampleListing()
	b.ImageURL = "https://cdn.example.com/listings/xyz999/view.jpg"
	b.Price = fptr(21000000)
	b.Lat = fptr(12.9810)
	b.Lng = fptr(77.6450)
	b.Configuration = "2BHK"

	ab := DefaultScorer(a, b)
	ba := DefaultScorer(b, a)
	if math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("scorer not symmetric: %.6f vs %.6f", ab, ba)
	}
}

func TestDefaultScorerDeterminism(t *testing.T) {
	a := sampleListing()
	b := sampleListing()
	b.Title = "Spacious 3BHK near 100ft road"

	first := DefaultScorer(a, b)
	for i := 0; i < 10; i++ {
		if got := DefaultScorer(a, b); got != first {
			t.Fatalf("score changed between runs: %.6f vs %.6f", first, got)
		}
	}
}

func TestDefaultScorerBounds(t *testing.T) {
	empty := Listing{}
	full := sampleListing()

	for _, pair := range [][2]Listing{{empty, empty}, {empty, full}, {full, full}} {
		score := DefaultScorer(pair[0], pair[1])
		if score < 0 || score > 100 {
			t.Fatalf("score %.4f out of [0, 100]", score)
		}
	}
}

func TestDefaultScorerUnrelatedListingsStayVisible(t *testing.T) {
	a := sampleListing()
	b := Listing{
		Title:         "1RK studio in Whitefield",
		LocationText:  "ITPL Main Road, Whitefield, Bengaluru",
		AssetType:     "studio",
		Configuration: "1RK",
		ImageURL:      "https://photos.other.example/p/998877.png",
		Price:         fptr(3200000),
		AreaSqft:      fptr(420),
		Lat:           fptr(12.9698),
		Lng:           fptr(77.7500),
	}

	score := DefaultScorer(a, b)
	if score > VisibleThreshold {
		t.Fatalf("unrelated listings scored %.4f, want <= %.0f", score, VisibleThreshold)
	}
}

func TestLocationShortCircuitWithinSameSpot(t *testing.T) {
	a := sampleListing()
	b := sampleListing()
	// ~44 m north, inside the same-spot radius.
	b.Lat = fptr(*a.Lat + 0.0004)

	if got := locationSimilarity(a, b); got != 1.0 {
		t.Fatalf("listings %0.f m apart scored location %.4f, want 1.0", sameSpotMeters, got)
	}
}

func TestLocationDecaysWithDistance(t *testing.T) {
	a := sampleListing()
	near := sampleListing()
	far := sampleListing()
	near.Lat = fptr(*a.Lat + 0.005) // ~556 m
	far.Lat = fptr(*a.Lat + 0.020)  // ~2224 m

	ln := locationSimilarity(a, near)
	lf := locationSimilarity(a, far)
	if ln <= lf {
		t.Fatalf("proximity not monotonic: near=%.4f far=%.4f", ln, lf)
	}
	if lf <= 0 || lf >= 1 {
		t.Fatalf("far proximity %.4f out of (0, 1)", lf)
	}

	remote := sampleListing()
	remote.Lat = fptr(*a.Lat + 0.05) // well past the decay distance
	if got := locationSimilarity(a, remote); got != 0 {
		t.Fatalf("remote proximity = %.4f, want 0", got)
	}
}

func TestLocationFallsBackToTextWithoutCoordinates(t *testing.T) {
	a := sampleListing()
	b := sampleListing()
	a.Lat, a.Lng = nil, nil

	if got := locationSimilarity(a, b); got != 1.0 {
		t.Fatalf("identical location text scored %.4f, want 1.0", got)
	}

	b.LocationText = "Sector 45, Gurugram"
	if got := locationSimilarity(a, b); got >= 0.5 {
		t.Fatalf("different cities scored %.4f, want < 0.5", got)
	}
}

func TestRatioOfMagnitudes(t *testing.T) {
	cases := []struct {
		a, b *float64
		want float64
	}{
		{fptr(100), fptr(100), 1.0},
		{fptr(50), fptr(100), 0.5},
		{fptr(100), fptr(50), 0.5},
		{nil, fptr(100), 0},
		{fptr(0), fptr(100), 0},
	}
	for _, tc := range cases {
		if got := ratioOfMagnitudes(tc.a, tc.b); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("ratioOfMagnitudes(%v, %v) = %.4f, want %.4f", tc.a, tc.b, got, tc.want)
		}
	}
}
