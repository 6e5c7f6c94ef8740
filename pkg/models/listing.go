// Package models defines the record shapes shared across the reconciler
package models

import (
	"sort"
	"strings"

	"github.com/Eiat5522/listings-reconciler/pkg/extractor"
)

// Well-known listing field names
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldCity        = "city"
	FieldCategory    = "category"
	FieldAddress     = "address_string"
	FieldCoordinates = "coordinates"
	FieldLatitude    = "latitude"
	FieldLongitude   = "longitude"
)

// ListFields are the listing fields merged with set-union semantics.
// Every other field is treated as a scalar during a merge.
var ListFields = []string{
	"gallery_image_urls",
	"eco_focus_tags",
	"digital_nomad_features",
	"source_urls",
}

// Listing is one point-of-interest record. The field set is open ended:
// only the identity fields above have meaning to the engine, everything
// else passes through merges untouched.
type Listing map[string]any

// Coordinates is a usable latitude/longitude pair. A record carrying only
// one of the two values has no usable coordinates.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

var fields = extractor.New()

// GetString returns the trimmed string value of a field, or "" when the
// field is absent or not a string.
func (l Listing) GetString(field string) string {
	v, ok := l[field]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// ID returns the listing's canonical identifier, or "" when unassigned
func (l Listing) ID() string {
	return l.GetString(FieldID)
}

// SetID assigns the canonical identifier
func (l Listing) SetID(id string) {
	l[FieldID] = id
}

// Name returns the display name
func (l Listing) Name() string {
	return l.GetString(FieldName)
}

// City returns the city
func (l Listing) City() string {
	return l.GetString(FieldCity)
}

// Category returns the category
func (l Listing) Category() string {
	return l.GetString(FieldCategory)
}

// AddressString returns the free-text address
func (l Listing) AddressString() string {
	return l.GetString(FieldAddress)
}

// Coordinates returns the listing's coordinates. ok is false unless both
// latitude and longitude are present and numeric.
func (l Listing) Coordinates() (Coordinates, bool) {
	lat, latOK := fields.ExtractFloat(map[string]any(l), FieldCoordinates+"."+FieldLatitude)
	lon, lonOK := fields.ExtractFloat(map[string]any(l), FieldCoordinates+"."+FieldLongitude)
	if !latOK || !lonOK {
		return Coordinates{}, false
	}
	return Coordinates{Latitude: lat, Longitude: lon}, true
}

// HasCoordinateData reports whether the coordinates field holds structured
// data at all, even a partial pair. The merger prefers any structured
// location data over none.
func (l Listing) HasCoordinateData() bool {
	_, ok := l[FieldCoordinates].(map[string]any)
	return ok
}

// StringList returns the deduplicated, sorted non-empty string entries of a
// list-valued field. Scalar string values are treated as one-element lists.
func (l Listing) StringList(field string) []string {
	seen := make(map[string]bool)
	collect := func(v any) {
		if s, ok := v.(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				seen[trimmed] = true
			}
		}
	}

	switch v := l[field].(type) {
	case []any:
		for _, item := range v {
			collect(item)
		}
	case []string:
		for _, item := range v {
			collect(item)
		}
	default:
		collect(v)
	}

	if len(seen) == 0 {
		return nil
	}
	result := make([]string, 0, len(seen))
	for s := range seen {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// Clone returns a deep copy of the listing. Merged output must never alias
// its inputs, so every record that crosses the engine boundary is copied.
func (l Listing) Clone() Listing {
	if l == nil {
		return nil
	}
	return Listing(cloneMap(map[string]any(l)))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}
