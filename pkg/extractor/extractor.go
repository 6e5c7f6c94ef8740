// Package extractor provides tools for extracting values from nested record data
package extractor

import (
	"strconv"
	"strings"
)

// Extractor handles extracting values from nested data structures
type Extractor struct{}

// New creates a new Extractor
func New() *Extractor {
	return &Extractor{}
}

// Extract extracts a value from data using a dot-notation path
// (e.g. "name", "coordinates.latitude"). A nil result means the path
// does not resolve to a value.
func (e *Extractor) Extract(data any, path string) any {
	if path == "" {
		return data
	}

	current := data
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}

	return current
}

// ExtractString extracts a value and converts it to a string.
// Nil and non-scalar values yield nil.
func (e *Extractor) ExtractString(data any, path string) *string {
	value := e.Extract(data, path)
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case string:
		return &v
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		return &s
	case int:
		s := strconv.Itoa(v)
		return &s
	case bool:
		s := strconv.FormatBool(v)
		return &s
	default:
		return nil
	}
}

// ExtractFloat extracts a value and coerces it to a float64. Strings are
// parsed; anything unparseable reads as absent rather than erroring, so a
// bad numeric field never poisons the record it came from.
func (e *Extractor) ExtractFloat(data any, path string) (float64, bool) {
	return ToFloat(e.Extract(data, path))
}

// ToFloat coerces a dynamic value to a float64
func ToFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
