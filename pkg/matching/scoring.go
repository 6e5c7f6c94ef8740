// Package matching implements listing similarity scoring and identity resolution
package matching

import (
	"math"
	"sort"
	"strings"

	"github.com/Eiat5522/listings-reconciler/pkg/models"
	"github.com/Eiat5522/listings-reconciler/pkg/normalizers"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula
const EarthRadiusMeters = 6371000.0

// Scorer provides string and coordinate comparison algorithms
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// TokenSetRatio computes a token-set similarity score between two free-text
// strings on a 0-100 scale, insensitive to word order and repetition.
//
// Each string is tokenized into a set of normalized words. The shared
// tokens, and the shared tokens plus each side's remainder, are joined into
// sorted strings and compared pairwise with the Levenshtein ratio; the best
// of the three comparisons is the score. Reordered addresses with the same
// tokens score 100; addresses sharing a long prefix of tokens still score
// high even when one side carries extras.
func (s *Scorer) TokenSetRatio(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	var shared, onlyA, onlyB []string
	for token := range tokensA {
		if tokensB[token] {
			shared = append(shared, token)
		} else {
			onlyA = append(onlyA, token)
		}
	}
	for token := range tokensB {
		if !tokensA[token] {
			onlyB = append(onlyB, token)
		}
	}
	sort.Strings(shared)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(shared, " ")
	combinedA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := s.Levenshtein(base, combinedA)
	if r := s.Levenshtein(base, combinedB); r > best {
		best = r
	}
	if r := s.Levenshtein(combinedA, combinedB); r > best {
		best = r
	}

	return best * 100
}

// Levenshtein calculates the Levenshtein distance between two strings
// and returns a similarity score between 0.0 and 1.0
func (s *Scorer) Levenshtein(a, b string) float64 {
	distance := s.LevenshteinDistance(a, b)
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(distance)/float64(maxLen)
}

// LevenshteinDistance calculates the edit distance between two strings
func (s *Scorer) LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Two-row dynamic programming
	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}

// Haversine returns the great-circle distance in meters between two
// latitude/longitude pairs
func (s *Scorer) Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)

	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Distance returns the great-circle distance in meters between two
// listings' coordinates. +Inf signals that one side has no usable pair, for
// callers that want a numeric sentinel instead of the boolean gate.
func (s *Scorer) Distance(a, b models.Listing) float64 {
	coordA, okA := a.Coordinates()
	coordB, okB := b.Coordinates()
	if !okA || !okB {
		return math.Inf(1)
	}
	return s.Haversine(coordA.Latitude, coordA.Longitude, coordB.Latitude, coordB.Longitude)
}

// GeoProximity reports whether two listings sit within thresholdMeters of
// each other. Incomplete or non-numeric coordinates mean the records cannot
// be compared, which is false, not "infinitely far".
func (s *Scorer) GeoProximity(a, b models.Listing, thresholdMeters float64) bool {
	d := s.Distance(a, b)
	return !math.IsInf(d, 1) && d <= thresholdMeters
}

func tokenSet(s string) map[string]bool {
	tokens := normalizers.Tokens(s)
	if len(tokens) == 0 {
		return nil
	}
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
