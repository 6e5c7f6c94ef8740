// Package merging combines two records of the same entity into one authoritative record
package merging

import (
	"sort"

	"github.com/Eiat5522/listings-reconciler/pkg/models"
	"github.com/Eiat5522/listings-reconciler/pkg/normalizers"
)

// Merger folds two listing records for the same entity into a single
// record. The preferred record wins scalar conflicts; designated list
// fields take set-union semantics. Output is always a fresh record so that
// a merged result can safely be reused as the preferred side of the next
// fold (A∪B∪C via repeated pairwise merges).
type Merger struct {
	listFields []string
}

// NewMerger creates a Merger with the default list-field set
func NewMerger() *Merger {
	return &Merger{listFields: models.ListFields}
}

// NewMergerWithListFields creates a Merger that unions the given fields
func NewMergerWithListFields(listFields []string) *Merger {
	return &Merger{listFields: listFields}
}

// Merge combines preferred and secondary into a new record. Inputs are
// never mutated. An empty string or empty list counts as "no value", so a
// present-but-empty preferred field does not shadow real secondary data.
func (m *Merger) Merge(preferred, secondary models.Listing) models.Listing {
	merged := make(models.Listing, len(preferred)+len(secondary))

	for key := range preferred {
		merged[key] = m.mergeScalar(preferred[key], secondary[key])
	}
	for key := range secondary {
		if _, done := merged[key]; !done {
			merged[key] = m.mergeScalar(preferred[key], secondary[key])
		}
	}

	for _, field := range m.listFields {
		if union := m.unionLists(preferred, secondary, field); union != nil {
			merged[field] = union
		} else if _, present := merged[field]; present {
			merged[field] = []any{}
		}
	}

	merged[models.FieldID] = m.mergeID(preferred, secondary, merged)
	m.mergeCoordinates(preferred, secondary, merged)

	return merged.Clone()
}

// mergeScalar takes the preferred value unless it is absent or empty
func (m *Merger) mergeScalar(preferredVal, secondaryVal any) any {
	if !isEmpty(preferredVal) {
		return preferredVal
	}
	if !isEmpty(secondaryVal) {
		return secondaryVal
	}
	if preferredVal != nil {
		return preferredVal
	}
	return secondaryVal
}

// unionLists collects the non-empty string entries of a list field from
// both records into a sorted, deduplicated slice. Sorting makes merged
// output reproducible run to run. nil means neither side had entries.
func (m *Merger) unionLists(preferred, secondary models.Listing, field string) []any {
	seen := make(map[string]bool)
	for _, entry := range preferred.StringList(field) {
		seen[entry] = true
	}
	for _, entry := range secondary.StringList(field) {
		seen[entry] = true
	}

	if len(seen) == 0 {
		return nil
	}

	entries := make([]string, 0, len(seen))
	for entry := range seen {
		entries = append(entries, entry)
	}
	sort.Strings(entries)

	union := make([]any, len(entries))
	for i, entry := range entries {
		union[i] = entry
	}
	return union
}

// mergeID picks the preferred id, then the secondary id, then synthesizes a
// placeholder from the merged name
func (m *Merger) mergeID(preferred, secondary, merged models.Listing) string {
	if id := preferred.ID(); id != "" {
		return id
	}
	if id := secondary.ID(); id != "" {
		return id
	}
	return "generated-id-" + normalizers.Slugify(merged.Name())
}

// mergeCoordinates applies the asymmetric coordinate rule: a complete pair
// beats an incomplete one, but any structured location data beats none.
func (m *Merger) mergeCoordinates(preferred, secondary, merged models.Listing) {
	switch {
	case hasCompleteCoordinates(preferred):
		merged[models.FieldCoordinates] = preferred[models.FieldCoordinates]
	case hasCompleteCoordinates(secondary):
		merged[models.FieldCoordinates] = secondary[models.FieldCoordinates]
	case preferred.HasCoordinateData():
		merged[models.FieldCoordinates] = preferred[models.FieldCoordinates]
	case secondary.HasCoordinateData():
		merged[models.FieldCoordinates] = secondary[models.FieldCoordinates]
	default:
		if _, present := merged[models.FieldCoordinates]; present {
			merged[models.FieldCoordinates] = secondary[models.FieldCoordinates]
		}
	}
}

func hasCompleteCoordinates(l models.Listing) bool {
	_, ok := l.Coordinates()
	return ok
}

// isEmpty reports whether a dynamic value counts as "no value" for scalar
// precedence: nil, empty string, or empty list/map
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch val := v.(type) {
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
