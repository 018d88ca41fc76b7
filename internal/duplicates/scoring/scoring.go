// Package scoring implements the listing similarity heuristic used to detect
// duplicate inventory.
package scoring

import (
	"strings"

	"visitops_backend/platform/geo"
)

// Listing is the attribute projection the scorer compares.
type Listing struct {
	Title         string
	LocationText  string
	AssetType     string
	Configuration string
	ImageURL      string
	Price         *float64
	AreaSqft      *float64
	Lat           *float64
	Lng           *float64
}

// Scorer computes a similarity score for a pair of listings. Implementations
// must be deterministic, symmetric and bounded to [0, 100].
type Scorer func(a, b Listing) float64

// Component weights of the default heuristic.
const (
	weightImage     = 0.35
	weightLocation  = 0.25
	weightSpecifics = 0.25
	weightPrice     = 0.15

	weightType   = 0.45
	weightConfig = 0.40
	weightArea   = 0.15

	// sameSpotMeters short-circuits the location component to full match.
	sameSpotMeters = 60.0
	// locationDecayMeters is the distance at which proximity reaches zero.
	locationDecayMeters = 4000.0
)

// Thresholds on the best match in the same city.
const (
	// VisibleThreshold and below keeps the listing fully visible.
	VisibleThreshold = 75.0
	// AutoHideThreshold and above marks the review entry as auto-hidden.
	AutoHideThreshold = 95.0
)

// DefaultScorer is the built-in similarity heuristic.
func DefaultScorer(a, b Listing) float64 {
	image := textRatio(a.ImageURL, b.ImageURL)
	location := locationSimilarity(a, b)
	specifics := weightType*equalFold(a.AssetType, b.AssetType) +
		weightConfig*equalFold(a.Configuration, b.Configuration) +
		weightArea*ratioOfMagnitudes(a.AreaSqft, b.AreaSqft)
	price := ratioOfMagnitudes(a.Price, b.Price)

	score := 100 * (weightImage*image + weightLocation*location +
		weightSpecifics*specifics + weightPrice*price)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func locationSimilarity(a, b Listing) float64 {
	if a.Lat != nil && a.Lng != nil && b.Lat != nil && b.Lng != nil {
		d := geo.DistanceMeters(*a.Lat, *a.Lng, *b.Lat, *b.Lng)
		if d <= sameSpotMeters {
			return 1.0
		}
		prox := 1.0 - d/locationDecayMeters
		if prox < 0 {
			return 0
		}
		return prox
	}
	return textRatio(a.LocationText, b.LocationText)
}

func equalFold(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
		return 1.0
	}
	return 0
}

func ratioOfMagnitudes(a, b *float64) float64 {
	if a == nil || b == nil || *a <= 0 || *b <= 0 {
		return 0
	}
	if *a < *b {
		return *a / *b
	}
	return *b / *a
}

// textRatio is a character-bigram Dice coefficient over normalized text.
// Symmetric and bounded to [0, 1].
func textRatio(a, b string) float64 {
	na, nb := normalizeText(a), normalizeText(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}

	ba, bb := bigrams(na), bigrams(nb)
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}

	overlap := 0
	for gram, count := range ba {
		if other, ok := bb[gram]; ok {
			if other < count {
				overlap += other
			} else {
				overlap += count
			}
		}
	}

	total := 0
	for _, c := range ba {
		total += c
	}
	for _, c := range bb {
		total += c
	}
	return 2.0 * float64(overlap) / float64(total)
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func bigrams(s string) map[string]int {
	runes := []rune(s)
	grams := make(map[string]int)
	for i := 0; i+1 < len(runes); i++ {
		grams[string(runes[i:i+2])]++
	}
	return grams
}
