// Package slugid generates stable, human-readable listing identifiers
package slugid

import (
	"fmt"
	"strings"

	"github.com/Eiat5522/listings-reconciler/pkg/normalizers"
)

// CodeTable maps lowercase city and category names to curated short codes.
// It is an immutable snapshot injected into the Generator; callers load
// overrides from config rather than mutating process-wide state.
type CodeTable struct {
	Cities     map[string]string `json:"cities"`
	Categories map[string]string `json:"categories"`
}

// DefaultCodeTable returns the curated Thailand code tables: 3-letter city
// codes (IATA or mnemonic) and 2-letter category abbreviations.
func DefaultCodeTable() CodeTable {
	return CodeTable{
		Cities: map[string]string{
			"bangkok":    "bkk",
			"chiang mai": "cnx",
			"phuket":     "hkt",
			"koh lanta":  "lnt",
			"koh samui":  "usm",
			"pattaya":    "pty",
			"hua hin":    "hhn",
			"krabi":      "kbv",
			"ayutthaya":  "ayt",
			"udon thani": "uth",
		},
		Categories: map[string]string{
			"coworking":     "cw",
			"cafe":          "cf",
			"accommodation": "ac",
			"restaurant":    "rs",
			"activity":      "at",
			"coliving":      "cl",
			"retreat":       "rt",
		},
	}
}

// Merge returns a copy of the table with entries from other layered on top
func (t CodeTable) Merge(other CodeTable) CodeTable {
	merged := CodeTable{
		Cities:     make(map[string]string, len(t.Cities)+len(other.Cities)),
		Categories: make(map[string]string, len(t.Categories)+len(other.Categories)),
	}
	for k, v := range t.Cities {
		merged.Cities[k] = v
	}
	for k, v := range other.Cities {
		merged.Cities[k] = v
	}
	for k, v := range t.Categories {
		merged.Categories[k] = v
	}
	for k, v := range other.Categories {
		merged.Categories[k] = v
	}
	return merged
}

// Generator builds slug ids of the form
// {slug(name)}-{slug(city)}-{citycode}-{categorycode}.
//
// Ids are not globally unique across distinct entities that share a
// normalized name, city and category; that collision is inherited from the
// id scheme already live in the directory. The optional counter suffix
// disambiguates within a single run, but changes ids relative to existing
// data, so it is off by default. The Generator itself is immutable; counter
// state lives in the per-run Sequence so that replaying the same inputs
// always reproduces the same ids.
type Generator struct {
	codes        CodeTable
	disambiguate bool
}

// Option configures a Generator
type Option func(*Generator)

// WithCollisionSuffix enables the deterministic counter suffix ("-2", "-3",
// assigned in first-seen order) for colliding ids.
func WithCollisionSuffix() Option {
	return func(g *Generator) {
		g.disambiguate = true
	}
}

// New creates a Generator with the given code table
func New(codes CodeTable, opts ...Option) *Generator {
	g := &Generator{
		codes: codes,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateID builds the canonical id for a listing. It never fails: empty
// inputs degrade to empty slug components, producing a syntactically valid
// but low-quality id that callers must validate if uniqueness matters.
func (g *Generator) GenerateID(name, city, category string) string {
	return fmt.Sprintf("%s-%s-%s-%s",
		normalizers.Slugify(name),
		normalizers.Slugify(city),
		g.CityCode(city),
		g.CategoryCode(category),
	)
}

// Sequence starts a run-scoped id assignment. When the collision suffix is
// enabled the counter resets with every Sequence, so identical inputs yield
// identical ids run after run. A Sequence is not safe for concurrent use;
// each run takes its own.
func (g *Generator) Sequence() *Sequence {
	return &Sequence{
		gen:  g,
		seen: make(map[string]int),
	}
}

// Sequence assigns ids for one run, tracking collisions in first-seen order
type Sequence struct {
	gen  *Generator
	seen map[string]int
}

// GenerateID builds the canonical id for a listing, applying the counter
// suffix ("-2", "-3") to repeats when the generator disambiguates.
func (s *Sequence) GenerateID(name, city, category string) string {
	id := s.gen.GenerateID(name, city, category)
	if !s.gen.disambiguate {
		return id
	}

	s.seen[id]++
	if n := s.seen[id]; n > 1 {
		return fmt.Sprintf("%s-%d", id, n)
	}
	return id
}

// CityCode returns the curated short code for a city, falling back to the
// first 3 characters of its slug.
func (g *Generator) CityCode(city string) string {
	if code, ok := g.codes.Cities[strings.ToLower(strings.TrimSpace(city))]; ok {
		return code
	}
	return truncate(normalizers.Slugify(city), 3)
}

// CategoryCode returns the curated short code for a category, falling back
// to the first 2 characters of its slug.
func (g *Generator) CategoryCode(category string) string {
	if code, ok := g.codes.Categories[strings.ToLower(strings.TrimSpace(category))]; ok {
		return code
	}
	return truncate(normalizers.Slugify(category), 2)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
