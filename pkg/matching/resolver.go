package matching

import (
	"github.com/Eiat5522/listings-reconciler/pkg/models"
	"github.com/Eiat5522/listings-reconciler/pkg/normalizers"
)

// ResolverConfig contains tunables for the identity decision
type ResolverConfig struct {
	FuzzyThreshold     float64 // Token-set score (0-100) at or above which addresses match (default: 85)
	GeoThresholdMeters float64 // Distance at or below which coordinates match (default: 100)
	RequireBothSignals bool    // AND the textual and spatial signals instead of ORing them
}

// DefaultResolverConfig returns the default resolver configuration
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		FuzzyThreshold:     85,
		GeoThresholdMeters: 100,
		RequireBothSignals: false,
	}
}

// Resolver decides whether two listing records denote the same real-world
// entity. It is state-free: every decision depends only on the two records
// and the configured thresholds.
type Resolver struct {
	scorer *Scorer
	config ResolverConfig
}

// NewResolver creates a new Resolver
func NewResolver(config ResolverConfig) *Resolver {
	return &Resolver{
		scorer: NewScorer(),
		config: config,
	}
}

// Scorer exposes the resolver's scorer for callers that need raw scores
func (r *Resolver) Scorer() *Scorer {
	return r.scorer
}

// SameEntity reports whether a and b denote the same listing.
//
// Two independent signals are evaluated: textual identity (same normalized
// name and city plus fuzzy address agreement) and spatial identity
// (coordinates within the geo threshold). By default either signal alone is
// enough: a renamed business at the same pin is still the same listing, and
// a relisting with a typo'd address but identical GPS is too. Over-merging
// is cheaper for the directory than duplicate listings; deployments that
// want the opposite trade-off set RequireBothSignals.
func (r *Resolver) SameEntity(a, b models.Listing) bool {
	textual := r.TextualMatch(a, b)
	spatial := r.scorer.GeoProximity(a, b, r.config.GeoThresholdMeters)

	if r.config.RequireBothSignals {
		return textual && spatial
	}
	return textual || spatial
}

// TextualMatch reports whether two listings agree on normalized name and
// city and have fuzzy-matching addresses
func (r *Resolver) TextualMatch(a, b models.Listing) bool {
	nameA := normalizers.Slugify(a.Name())
	cityA := normalizers.Slugify(a.City())
	if nameA == "" || cityA == "" {
		return false
	}
	if nameA != normalizers.Slugify(b.Name()) || cityA != normalizers.Slugify(b.City()) {
		return false
	}
	return r.FuzzyAddressMatch(a.AddressString(), b.AddressString())
}

// FuzzyAddressMatch reports whether two free-text addresses clear the
// configured token-set threshold. Unusable input (either side empty after
// normalization) is false.
func (r *Resolver) FuzzyAddressMatch(addr1, addr2 string) bool {
	return r.scorer.TokenSetRatio(addr1, addr2) >= r.config.FuzzyThreshold
}
