package merging

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Eiat5522/listings-reconciler/pkg/models"
)

func TestMergeScalarPrecedence(t *testing.T) {
	merger := NewMerger()

	tests := []struct {
		name      string
		preferred models.Listing
		secondary models.Listing
		field     string
		expected  any
	}{
		{
			name:      "preferred value wins conflicts",
			preferred: models.Listing{"id": "a", "description": "curated copy"},
			secondary: models.Listing{"id": "a", "description": "scraped copy"},
			field:     "description",
			expected:  "curated copy",
		},
		{
			name:      "empty preferred string defers to secondary",
			preferred: models.Listing{"id": "a", "description": ""},
			secondary: models.Listing{"id": "a", "description": "scraped copy"},
			field:     "description",
			expected:  "scraped copy",
		},
		{
			name:      "secondary fills fields missing from preferred",
			preferred: models.Listing{"id": "a"},
			secondary: models.Listing{"id": "a", "phone": "+66 2 000 0000"},
			field:     "phone",
			expected:  "+66 2 000 0000",
		},
		{
			name:      "nil preferred defers to secondary",
			preferred: models.Listing{"id": "a", "website": nil},
			secondary: models.Listing{"id": "a", "website": "https://example.com"},
			field:     "website",
			expected:  "https://example.com",
		},
		{
			name:      "non-string scalars follow preferred",
			preferred: models.Listing{"id": "a", "sustainability_rating": 4.5},
			secondary: models.Listing{"id": "a", "sustainability_rating": 2.0},
			field:     "sustainability_rating",
			expected:  4.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := merger.Merge(tt.preferred, tt.secondary)
			assert.Equal(t, tt.expected, merged[tt.field])
		})
	}
}

func TestMergeListUnion(t *testing.T) {
	merger := NewMerger()

	preferred := models.Listing{"id": "a", "eco_focus_tags": []any{"wifi", "solar"}}
	secondary := models.Listing{"id": "a", "eco_focus_tags": []any{"quiet", "wifi"}}

	merged := merger.Merge(preferred, secondary)
	assert.Equal(t, []any{"quiet", "solar", "wifi"}, merged["eco_focus_tags"])

	// union is commutative
	reversed := merger.Merge(secondary, preferred)
	assert.Equal(t, merged["eco_focus_tags"], reversed["eco_focus_tags"])
}

func TestMergeListUnionOneSided(t *testing.T) {
	merger := NewMerger()

	merged := merger.Merge(
		models.Listing{"id": "a"},
		models.Listing{"id": "a", "gallery_image_urls": []any{"b.jpg", "a.jpg"}},
	)
	assert.Equal(t, []any{"a.jpg", "b.jpg"}, merged["gallery_image_urls"])

	// absent on both sides stays absent
	_, present := merged["eco_focus_tags"]
	assert.False(t, present)
}

func TestMergeID(t *testing.T) {
	merger := NewMerger()

	tests := []struct {
		name      string
		preferred models.Listing
		secondary models.Listing
		expected  string
	}{
		{
			name:      "preferred id wins",
			preferred: models.Listing{"id": "listing-1", "name": "Shinei Office"},
			secondary: models.Listing{"id": "listing-2", "name": "Shinei Office"},
			expected:  "listing-1",
		},
		{
			name:      "secondary id fills empty preferred",
			preferred: models.Listing{"id": "", "name": "Shinei Office"},
			secondary: models.Listing{"id": "listing-2", "name": "Shinei Office"},
			expected:  "listing-2",
		},
		{
			name:      "placeholder synthesized from name when neither side has an id",
			preferred: models.Listing{"name": "Shinei Office"},
			secondary: models.Listing{"city": "Bangkok"},
			expected:  "generated-id-shinei-office",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := merger.Merge(tt.preferred, tt.secondary)
			assert.Equal(t, tt.expected, merged.ID())
		})
	}
}

func TestMergeCoordinates(t *testing.T) {
	merger := NewMerger()

	complete := map[string]any{"latitude": 13.7563, "longitude": 100.5018}
	partial := map[string]any{"latitude": 18.7883}

	tests := []struct {
		name      string
		preferred models.Listing
		secondary models.Listing
		expected  any
	}{
		{
			name:      "complete preferred wins",
			preferred: models.Listing{"id": "a", "coordinates": complete},
			secondary: models.Listing{"id": "a", "coordinates": map[string]any{"latitude": 1.0, "longitude": 2.0}},
			expected:  complete,
		},
		{
			name:      "complete secondary beats partial preferred",
			preferred: models.Listing{"id": "a", "coordinates": partial},
			secondary: models.Listing{"id": "a", "coordinates": complete},
			expected:  complete,
		},
		{
			name:      "partial preferred beats nothing",
			preferred: models.Listing{"id": "a", "coordinates": partial},
			secondary: models.Listing{"id": "a"},
			expected:  partial,
		},
		{
			name:      "partial secondary fills missing preferred",
			preferred: models.Listing{"id": "a"},
			secondary: models.Listing{"id": "a", "coordinates": partial},
			expected:  partial,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := merger.Merge(tt.preferred, tt.secondary)
			assert.Equal(t, tt.expected, merged["coordinates"])
		})
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	merger := NewMerger()

	preferred := models.Listing{"id": "a", "eco_focus_tags": []any{"wifi"}}
	secondary := models.Listing{"id": "b", "eco_focus_tags": []any{"quiet"}, "description": "scraped"}

	merged := merger.Merge(preferred, secondary)
	merged["description"] = "changed"
	merged["eco_focus_tags"].([]any)[0] = "changed"

	assert.Equal(t, models.Listing{"id": "a", "eco_focus_tags": []any{"wifi"}}, preferred)
	assert.Equal(t, "scraped", secondary["description"])
	assert.Equal(t, []any{"quiet"}, secondary["eco_focus_tags"])
}

func TestMergeIsIdempotent(t *testing.T) {
	merger := NewMerger()

	record := models.Listing{
		"id":             "listing-1",
		"name":           "Shinei Office",
		"city":           "Bangkok",
		"eco_focus_tags": []any{"solar", "wifi"},
		"coordinates":    map[string]any{"latitude": 13.7563, "longitude": 100.5018},
	}

	merged := merger.Merge(record, record)
	assert.Equal(t, record, merged)
}

func TestMergerWithCustomListFields(t *testing.T) {
	merger := NewMergerWithListFields([]string{"amenities"})

	merged := merger.Merge(
		models.Listing{"id": "a", "amenities": []any{"pool"}},
		models.Listing{"id": "a", "amenities": []any{"gym", "pool"}},
	)
	assert.Equal(t, []any{"gym", "pool"}, merged["amenities"])
}
