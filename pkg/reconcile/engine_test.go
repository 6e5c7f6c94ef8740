package reconcile

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Eiat5522/listings-reconciler/pkg/matching"
	"github.com/Eiat5522/listings-reconciler/pkg/merging"
	"github.com/Eiat5522/listings-reconciler/pkg/models"
	"github.com/Eiat5522/listings-reconciler/pkg/slugid"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func newTestEngine(workers int) *Engine {
	return NewEngine(
		getTestLogger(),
		matching.NewResolver(matching.DefaultResolverConfig()),
		merging.NewMerger(),
		slugid.New(slugid.DefaultCodeTable()),
		Config{Workers: workers},
	)
}

func TestReconcileMergesByID(t *testing.T) {
	engine := newTestEngine(1)

	primary := []models.Listing{
		{"id": "listing-1", "name": "Shinei Office", "city": "Bangkok", "eco_focus_tags": []any{"wifi"}},
	}
	secondary := []models.Listing{
		{"id": "listing-1", "name": "Shinei Office Bangkok", "city": "Bangkok", "eco_focus_tags": []any{"quiet"}, "phone": "+66 2 000 0000"},
	}

	output, report, err := engine.Reconcile(context.Background(), primary, secondary)
	require.NoError(t, err)
	require.Len(t, output, 1)

	assert.Equal(t, 1, report.IDMerges)
	assert.Equal(t, 0, report.FuzzyMerges)
	assert.Equal(t, 1, report.OutputCount)

	merged := output[0]
	assert.Equal(t, "listing-1", merged.ID())
	assert.Equal(t, "Shinei Office", merged.Name()) // primary wins conflicts
	assert.Equal(t, "+66 2 000 0000", merged.GetString("phone"))
	assert.Equal(t, []any{"quiet", "wifi"}, merged["eco_focus_tags"])
}

func TestReconcileMergesByFuzzyIdentity(t *testing.T) {
	engine := newTestEngine(1)

	// addresses share a bucket prefix but only fuzzy-match beyond it
	primary := []models.Listing{
		{"name": "Shinei Office", "city": "Bangkok", "address_string": "123 Sukhumvit Road, Bangkok, Thailand 10110", "eco_focus_tags": []any{"solar"}},
	}
	secondary := []models.Listing{
		{"name": "Shinei  Office", "city": "bangkok", "address_string": "123 Sukhumvit Road, Bangkok Thailand", "eco_focus_tags": []any{"wifi"}},
	}

	output, report, err := engine.Reconcile(context.Background(), primary, secondary)
	require.NoError(t, err)
	require.Len(t, output, 1)

	assert.Equal(t, 0, report.IDMerges)
	assert.Equal(t, 1, report.FuzzyMerges)

	merged := output[0]
	assert.Equal(t, []any{"solar", "wifi"}, merged["eco_focus_tags"])
	// no id on either side: the merger synthesizes a placeholder
	assert.Equal(t, "generated-id-shinei-office", merged.ID())
}

func TestReconcileMergesByGeoProximity(t *testing.T) {
	engine := newTestEngine(1)

	// same bucket (same name and city, both addresses empty), textual match
	// fails on the empty addresses, but the pins are ~11m apart
	primary := []models.Listing{
		{"name": "Shinei Office", "city": "Bangkok", "coordinates": map[string]any{"latitude": 13.7563, "longitude": 100.5018}},
	}
	secondary := []models.Listing{
		{"name": "Shinei Office", "city": "Bangkok", "coordinates": map[string]any{"latitude": 13.7564, "longitude": 100.5018}, "website": "https://example.com"},
	}

	output, report, err := engine.Reconcile(context.Background(), primary, secondary)
	require.NoError(t, err)
	require.Len(t, output, 1)

	assert.Equal(t, 1, report.FuzzyMerges)
	assert.Equal(t, "https://example.com", output[0].GetString("website"))
	coords, ok := output[0].Coordinates()
	require.True(t, ok)
	assert.Equal(t, 13.7563, coords.Latitude) // primary pin wins
}

func TestReconcileDistinctRecordsSurvive(t *testing.T) {
	engine := newTestEngine(1)

	primary := []models.Listing{
		{"id": "a", "name": "Shinei Office", "city": "Bangkok", "address_string": "10 Nimman Road"},
	}
	secondary := []models.Listing{
		{"id": "b", "name": "Hub53", "city": "Chiang Mai", "address_string": "99 Huay Kaew Road"},
	}

	output, report, err := engine.Reconcile(context.Background(), primary, secondary)
	require.NoError(t, err)
	assert.Len(t, output, 2)
	assert.Equal(t, 0, report.IDMerges)
	assert.Equal(t, 0, report.FuzzyMerges)
	assert.Equal(t, 2, report.OutputCount)
}

func TestReconcileNoIdentityPassthrough(t *testing.T) {
	engine := newTestEngine(1)

	primary := []models.Listing{
		{"id": "orphan-1", "address_string": "somewhere"},
		{"name": "No City Cafe"},
	}

	output, report, err := engine.Reconcile(context.Background(), primary, nil)
	require.NoError(t, err)
	assert.Len(t, output, 2)
	assert.Equal(t, 2, report.NoIdentityCount)
	assert.Equal(t, "orphan-1", output[0].ID())
}

func TestReconcileAssignsSlugIDs(t *testing.T) {
	engine := newTestEngine(1)

	primary := []models.Listing{
		{"name": "Shinei Office", "city": "Bangkok", "category": "Coworking", "address_string": "123 Sukhumvit Road"},
	}

	output, _, err := engine.Reconcile(context.Background(), primary, nil)
	require.NoError(t, err)
	require.Len(t, output, 1)
	assert.Equal(t, "shinei-office-bangkok-bkk-cw", output[0].ID())
}

func TestReconcileDoesNotMutateInputs(t *testing.T) {
	engine := newTestEngine(1)

	primary := []models.Listing{
		{"name": "Shinei Office", "city": "Bangkok", "category": "Coworking"},
	}
	secondary := []models.Listing{
		{"name": "Shinei Office", "city": "Bangkok", "category": "Coworking"},
	}

	_, _, err := engine.Reconcile(context.Background(), primary, secondary)
	require.NoError(t, err)

	_, hasID := primary[0]["id"]
	assert.False(t, hasID)
	_, hasID = secondary[0]["id"]
	assert.False(t, hasID)
}

func TestReconcileIsDeterministic(t *testing.T) {
	build := func() ([]models.Listing, []models.Listing) {
		primary := []models.Listing{
			{"id": "a", "name": "Shinei Office", "city": "Bangkok", "address_string": "123 Sukhumvit Road", "eco_focus_tags": []any{"solar"}},
			{"name": "Hub53", "city": "Chiang Mai", "address_string": "14 Sirimangkalajarn Road"},
			{"name": "Beach Hut", "city": "Koh Lanta", "address_string": "Long Beach"},
		}
		secondary := []models.Listing{
			{"id": "a", "name": "Shinei Office", "city": "Bangkok", "eco_focus_tags": []any{"wifi"}},
			{"name": "Hub53", "city": "Chiang Mai", "address_string": "14 Sirimangkalajarn Road"},
			{"name": "Night Market Stall", "city": "Phuket", "address_string": "Old Town"},
		}
		return primary, secondary
	}

	primary, secondary := build()
	serial, serialReport, err := newTestEngine(1).Reconcile(context.Background(), primary, secondary)
	require.NoError(t, err)

	for run := 0; run < 3; run++ {
		primary, secondary = build()
		parallel, parallelReport, err := newTestEngine(4).Reconcile(context.Background(), primary, secondary)
		require.NoError(t, err)
		assert.Equal(t, serial, parallel)
		assert.Equal(t, serialReport, parallelReport)
	}
}

func TestReconcileRepeatRunsReproduceSuffixedIDs(t *testing.T) {
	engine := NewEngine(
		getTestLogger(),
		matching.NewResolver(matching.DefaultResolverConfig()),
		merging.NewMerger(),
		slugid.New(slugid.DefaultCodeTable(), slugid.WithCollisionSuffix()),
		Config{Workers: 1},
	)

	// two distinct listings that share a slug id base: same name, city and
	// category, addresses far enough apart that nothing merges
	build := func() []models.Listing {
		return []models.Listing{
			{"name": "Shinei Office", "city": "Bangkok", "category": "Coworking", "address_string": "10 Nimman Road"},
			{"name": "Shinei Office", "city": "Bangkok", "category": "Coworking", "address_string": "999 Rama IX Road, Huai Khwang"},
		}
	}

	first, _, err := engine.Reconcile(context.Background(), build(), nil)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "shinei-office-bangkok-bkk-cw", first[0].ID())
	assert.Equal(t, "shinei-office-bangkok-bkk-cw-2", first[1].ID())

	// same engine, same inputs: the counter restarts with the run
	second, _, err := engine.Reconcile(context.Background(), build(), nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestReconcileEmptyInputs(t *testing.T) {
	engine := newTestEngine(1)

	output, report, err := engine.Reconcile(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, output)
	assert.Equal(t, 0, report.OutputCount)
}
