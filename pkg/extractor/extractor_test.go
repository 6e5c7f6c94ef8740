package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	data := map[string]any{
		"name": "Shinei Office",
		"coordinates": map[string]any{
			"latitude": 13.7563,
		},
	}

	e := New()
	assert.Equal(t, "Shinei Office", e.Extract(data, "name"))
	assert.Equal(t, 13.7563, e.Extract(data, "coordinates.latitude"))
	assert.Nil(t, e.Extract(data, "coordinates.longitude"))
	assert.Nil(t, e.Extract(data, "name.nested"))
	assert.Equal(t, data, e.Extract(data, ""))
}

func TestExtractString(t *testing.T) {
	e := New()
	data := map[string]any{
		"name":   "Shinei Office",
		"rating": 4.5,
		"count":  3,
		"open":   true,
		"tags":   []any{"a"},
	}

	s := e.ExtractString(data, "name")
	require.NotNil(t, s)
	assert.Equal(t, "Shinei Office", *s)

	s = e.ExtractString(data, "rating")
	require.NotNil(t, s)
	assert.Equal(t, "4.5", *s)

	s = e.ExtractString(data, "count")
	require.NotNil(t, s)
	assert.Equal(t, "3", *s)

	s = e.ExtractString(data, "open")
	require.NotNil(t, s)
	assert.Equal(t, "true", *s)

	assert.Nil(t, e.ExtractString(data, "tags"))
	assert.Nil(t, e.ExtractString(data, "missing"))
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected float64
		ok       bool
	}{
		{"float64", 4.5, 4.5, true},
		{"int", 3, 3, true},
		{"numeric string", " 13.7563 ", 13.7563, true},
		{"empty string", "  ", 0, false},
		{"garbage string", "north", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := ToFloat(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, f)
		})
	}
}
