package slugid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateID(t *testing.T) {
	tests := []struct {
		name     string
		listing  string
		city     string
		category string
		expected string
	}{
		{
			name:     "curated city and category codes",
			listing:  "Shinei Office",
			city:     "Bangkok",
			category: "Coworking",
			expected: "shinei-office-bangkok-bkk-cw",
		},
		{
			name:     "case insensitive code lookup",
			listing:  "Hub53",
			city:     "CHIANG MAI",
			category: "COWORKING",
			expected: "hub53-chiang-mai-cnx-cw",
		},
		{
			name:     "unknown city falls back to slug prefix",
			listing:  "The Surf House",
			city:     "Khanom",
			category: "Accommodation",
			expected: "the-surf-house-khanom-kha-ac",
		},
		{
			name:     "unknown category falls back to slug prefix",
			listing:  "Wat Tour",
			city:     "Bangkok",
			category: "Museum",
			expected: "wat-tour-bangkok-bkk-mu",
		},
		{
			name:     "empty inputs degrade to empty components",
			listing:  "",
			city:     "",
			category: "",
			expected: "---",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(DefaultCodeTable())
			assert.Equal(t, tt.expected, g.GenerateID(tt.listing, tt.city, tt.category))
		})
	}
}

func TestGenerateIDIsStable(t *testing.T) {
	g := New(DefaultCodeTable())
	first := g.GenerateID("Shinei Office", "Bangkok", "Coworking")
	second := g.GenerateID("Shinei Office", "Bangkok", "Coworking")
	assert.Equal(t, first, second)
}

func TestCollisionSuffix(t *testing.T) {
	g := New(DefaultCodeTable(), WithCollisionSuffix())
	seq := g.Sequence()

	first := seq.GenerateID("Shinei Office", "Bangkok", "Coworking")
	second := seq.GenerateID("Shinei Office", "Bangkok", "Coworking")
	third := seq.GenerateID("Shinei Office", "Bangkok", "Coworking")

	assert.Equal(t, "shinei-office-bangkok-bkk-cw", first)
	assert.Equal(t, "shinei-office-bangkok-bkk-cw-2", second)
	assert.Equal(t, "shinei-office-bangkok-bkk-cw-3", third)
}

func TestCollisionSuffixResetsPerSequence(t *testing.T) {
	g := New(DefaultCodeTable(), WithCollisionSuffix())

	run := func() []string {
		seq := g.Sequence()
		return []string{
			seq.GenerateID("Shinei Office", "Bangkok", "Coworking"),
			seq.GenerateID("Shinei Office", "Bangkok", "Coworking"),
		}
	}

	first := run()
	second := run()

	assert.Equal(t, []string{"shinei-office-bangkok-bkk-cw", "shinei-office-bangkok-bkk-cw-2"}, first)
	assert.Equal(t, first, second)
}

func TestSequenceWithoutSuffixIsPlain(t *testing.T) {
	seq := New(DefaultCodeTable()).Sequence()

	first := seq.GenerateID("Shinei Office", "Bangkok", "Coworking")
	second := seq.GenerateID("Shinei Office", "Bangkok", "Coworking")

	assert.Equal(t, "shinei-office-bangkok-bkk-cw", first)
	assert.Equal(t, first, second)
}

func TestCodeTableMerge(t *testing.T) {
	base := DefaultCodeTable()
	merged := base.Merge(CodeTable{
		Cities:     map[string]string{"lisbon": "lis", "bangkok": "bgk"},
		Categories: map[string]string{"museum": "ms"},
	})

	g := New(merged)
	assert.Equal(t, "lis", g.CityCode("Lisbon"))
	assert.Equal(t, "bgk", g.CityCode("Bangkok")) // override wins
	assert.Equal(t, "ms", g.CategoryCode("Museum"))
	assert.Equal(t, "cnx", g.CityCode("Chiang Mai")) // base preserved

	// base table untouched
	assert.Equal(t, "bkk", base.Cities["bangkok"])
}
