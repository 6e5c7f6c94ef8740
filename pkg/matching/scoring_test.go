package matching

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Eiat5522/listings-reconciler/pkg/models"
)

func TestTokenSetRatio(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name string
		a    string
		b    string
		want func(t *testing.T, score float64)
	}{
		{
			name: "identical strings score 100",
			a:    "123 Sukhumvit Road, Bangkok",
			b:    "123 Sukhumvit Road, Bangkok",
			want: func(t *testing.T, score float64) { assert.Equal(t, 100.0, score) },
		},
		{
			name: "reordered tokens score 100",
			a:    "Sukhumvit Road 123 Bangkok",
			b:    "123 Sukhumvit Road, Bangkok",
			want: func(t *testing.T, score float64) { assert.Equal(t, 100.0, score) },
		},
		{
			name: "abbreviated street clears the default threshold",
			a:    "123 Sukhumvit Road, Bangkok",
			b:    "Sukhumvit Rd 123, Bangkok",
			want: func(t *testing.T, score float64) { assert.GreaterOrEqual(t, score, 85.0) },
		},
		{
			name: "different streets stay below the default threshold",
			a:    "10 Nimman Road",
			b:    "99 Huay Kaew Road",
			want: func(t *testing.T, score float64) { assert.Less(t, score, 85.0) },
		},
		{
			name: "empty side scores zero",
			a:    "",
			b:    "123 Sukhumvit Road",
			want: func(t *testing.T, score float64) { assert.Equal(t, 0.0, score) },
		},
		{
			name: "punctuation only scores zero",
			a:    "???",
			b:    "123 Sukhumvit Road",
			want: func(t *testing.T, score float64) { assert.Equal(t, 0.0, score) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want(t, scorer.TokenSetRatio(tt.a, tt.b))
		})
	}
}

func TestTokenSetRatioIsSymmetric(t *testing.T) {
	scorer := NewScorer()
	a := "123 Sukhumvit Road, Bangkok"
	b := "Sukhumvit Rd 123, Bangkok"
	assert.Equal(t, scorer.TokenSetRatio(a, b), scorer.TokenSetRatio(b, a))
}

func TestLevenshteinDistance(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		a        string
		b        string
		expected int
	}{
		{"", "", 0},
		{"abc", "abc", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"road", "rd", 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, scorer.LevenshteinDistance(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestHaversine(t *testing.T) {
	scorer := NewScorer()

	// Bangkok to Chiang Mai is roughly 580km
	d := scorer.Haversine(13.7563, 100.5018, 18.7883, 98.9853)
	assert.InDelta(t, 580_000, d, 10_000)

	// identical points
	assert.Equal(t, 0.0, scorer.Haversine(13.7563, 100.5018, 13.7563, 100.5018))
}

func listingAt(lat, lon float64) models.Listing {
	return models.Listing{
		"coordinates": map[string]any{"latitude": lat, "longitude": lon},
	}
}

func TestDistance(t *testing.T) {
	scorer := NewScorer()

	// ~11m apart (0.0001 degrees of latitude)
	close := scorer.Distance(listingAt(13.7563, 100.5018), listingAt(13.7564, 100.5018))
	assert.InDelta(t, 11, close, 2)

	// missing coordinates are not comparable
	d := scorer.Distance(models.Listing{"name": "no coords"}, listingAt(13.7563, 100.5018))
	assert.True(t, math.IsInf(d, 1))
}

func TestGeoProximity(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name      string
		a         models.Listing
		b         models.Listing
		threshold float64
		expected  bool
	}{
		{
			name:      "within threshold",
			a:         listingAt(13.7563, 100.5018),
			b:         listingAt(13.7564, 100.5018),
			threshold: 50,
			expected:  true,
		},
		{
			name:      "beyond threshold",
			a:         listingAt(13.7563, 100.5018),
			b:         listingAt(13.8063, 100.5018), // ~5.5km north
			threshold: 100,
			expected:  false,
		},
		{
			name:      "partial pair is not comparable",
			a:         models.Listing{"coordinates": map[string]any{"latitude": 13.7563}},
			b:         listingAt(13.7563, 100.5018),
			threshold: 1e9,
			expected:  false,
		},
		{
			name:      "non-numeric coordinates are not comparable",
			a:         models.Listing{"coordinates": map[string]any{"latitude": "north", "longitude": "east"}},
			b:         listingAt(13.7563, 100.5018),
			threshold: 1e9,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, scorer.GeoProximity(tt.a, tt.b, tt.threshold))
		})
	}
}
