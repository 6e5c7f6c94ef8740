// Package reconcile orchestrates the reconciliation of two listing datasets
package reconcile

import (
	"context"
	"sync"

	"github.com/Gobusters/ectologger"

	"github.com/Eiat5522/listings-reconciler/pkg/appcontext"
	"github.com/Eiat5522/listings-reconciler/pkg/matching"
	"github.com/Eiat5522/listings-reconciler/pkg/merging"
	"github.com/Eiat5522/listings-reconciler/pkg/models"
	"github.com/Eiat5522/listings-reconciler/pkg/normalizers"
	"github.com/Eiat5522/listings-reconciler/pkg/slugid"
	"github.com/Eiat5522/listings-reconciler/pkg/tracing"
)

// addressPrefixLen bounds the address component of the bucket key; a full
// fuzzy comparison inside the key would defeat the point of bucketing
const addressPrefixLen = 30

// Config contains engine tunables
type Config struct {
	Workers int // parallel bucket workers (default: 4)
}

// DefaultConfig returns default engine configuration
func DefaultConfig() Config {
	return Config{Workers: 4}
}

// Engine runs the two-pass reconciliation over a dataset pair. It holds no
// state between runs; a run is one bounded computation over the inputs.
type Engine struct {
	logger   ectologger.Logger
	resolver *matching.Resolver
	merger   *merging.Merger
	idgen    *slugid.Generator
	config   Config
}

// NewEngine creates a new reconciliation engine
func NewEngine(
	logger ectologger.Logger,
	resolver *matching.Resolver,
	merger *merging.Merger,
	idgen *slugid.Generator,
	config Config,
) *Engine {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Engine{
		logger:   logger,
		resolver: resolver,
		merger:   merger,
		idgen:    idgen,
		config:   config,
	}
}

// Reconcile merges the primary and secondary collections into a new,
// deduplicated collection. The primary side is authoritative on conflicts.
// Inputs are never mutated; every output record is an independent copy.
//
// Two passes run over the pair: an id-indexed pass that merges records
// sharing an exact id, then a bucketed pass that groups the remainder by
// (normalized name, normalized city, address prefix) and folds same-entity
// records inside each bucket. Records without a usable name+city cannot be
// deduplicated safely and pass through unchanged.
func (e *Engine) Reconcile(ctx context.Context, primary, secondary []models.Listing) ([]models.Listing, *models.Report, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcile.Engine.Reconcile")
	defer span.End()

	report := &models.Report{
		PrimaryCount:   len(primary),
		SecondaryCount: len(secondary),
	}

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":          appcontext.GetRunID(ctx),
		"primary_count":   len(primary),
		"secondary_count": len(secondary),
	})
	log.Info("Starting reconciliation run")

	combined := e.mergeByID(primary, secondary, report)
	output := e.mergeByIdentity(ctx, combined, report)

	// Records that never picked up an id during merging get one now, so the
	// final collection is importable as-is. The id sequence is scoped to
	// this run: collision counters restart, so replaying the same inputs
	// reproduces the same ids.
	ids := e.idgen.Sequence()
	for _, record := range output {
		if record.ID() == "" {
			record.SetID(ids.GenerateID(record.Name(), record.City(), record.Category()))
		}
	}

	report.OutputCount = len(output)
	log.WithFields(map[string]any{
		"id_merges":    report.IDMerges,
		"fuzzy_merges": report.FuzzyMerges,
		"no_identity":  report.NoIdentityCount,
		"output_count": report.OutputCount,
	}).Info("Reconciliation complete")

	return output, report, nil
}

// mergeByID merges records from the two sides that share an exact id.
// Unmatched primary records pass through; unmatched secondary records are
// appended after them. Every record leaving this pass is a copy.
func (e *Engine) mergeByID(primary, secondary []models.Listing, report *models.Report) []models.Listing {
	index := make(map[string]int, len(secondary))
	for i, record := range secondary {
		id := record.ID()
		if id == "" {
			continue
		}
		if _, exists := index[id]; !exists {
			index[id] = i
		}
	}

	consumed := make(map[int]bool, len(secondary))
	combined := make([]models.Listing, 0, len(primary)+len(secondary))

	for _, record := range primary {
		id := record.ID()
		if id != "" {
			if i, ok := index[id]; ok && !consumed[i] {
				consumed[i] = true
				combined = append(combined, e.merger.Merge(record, secondary[i]))
				report.IDMerges++
				continue
			}
		}
		combined = append(combined, record.Clone())
	}

	for i, record := range secondary {
		if !consumed[i] {
			combined = append(combined, record.Clone())
		}
	}

	return combined
}

// mergeByIdentity groups records into coarse identity buckets and folds
// same-entity records within each bucket. Buckets are independent, so their
// resolution fans out across a worker pool; results land in slots indexed
// by bucket order, keeping output deterministic regardless of scheduling.
func (e *Engine) mergeByIdentity(ctx context.Context, records []models.Listing, report *models.Report) []models.Listing {
	_, span := tracing.StartSpan(ctx, "reconcile.Engine.mergeByIdentity")
	defer span.End()

	type bucketKey struct {
		name          string
		city          string
		addressPrefix string
	}

	var passthrough []models.Listing
	buckets := make(map[bucketKey][]models.Listing)
	var order []bucketKey

	for _, record := range records {
		name := normalizers.Slugify(record.Name())
		city := normalizers.Slugify(record.City())
		if name == "" || city == "" {
			// No identity key: merging would risk silent data loss, which is
			// worse than an un-deduplicated record.
			passthrough = append(passthrough, record)
			report.NoIdentityCount++
			continue
		}

		key := bucketKey{
			name:          name,
			city:          city,
			addressPrefix: prefix(normalizers.Slugify(record.AddressString()), addressPrefixLen),
		}
		if _, exists := buckets[key]; !exists {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], record)
	}

	resolved := make([][]models.Listing, len(order))
	merges := make([]int, len(order))

	workers := e.config.Workers
	if workers > len(order) {
		workers = len(order)
	}

	if workers <= 1 {
		for i, key := range order {
			resolved[i], merges[i] = e.resolveBucket(buckets[key])
		}
	} else {
		jobs := make(chan int)
		var wg sync.WaitGroup
		wg.Add(workers)
		for w := 0; w < workers; w++ {
			go func() {
				defer wg.Done()
				for i := range jobs {
					resolved[i], merges[i] = e.resolveBucket(buckets[order[i]])
				}
			}()
		}
		for i := range order {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}

	output := passthrough
	for i := range order {
		output = append(output, resolved[i]...)
		report.FuzzyMerges += merges[i]
	}
	return output
}

// resolveBucket folds same-entity records within one bucket. The earlier
// occupant is the preferred side of each fold, so the primary dataset keeps
// winning conflicts through chains of merges.
func (e *Engine) resolveBucket(records []models.Listing) ([]models.Listing, int) {
	if len(records) == 1 {
		return records, 0
	}

	var survivors []models.Listing
	merges := 0
	for _, record := range records {
		merged := false
		for i, existing := range survivors {
			if e.resolver.SameEntity(existing, record) {
				survivors[i] = e.merger.Merge(existing, record)
				merges++
				merged = true
				break
			}
		}
		if !merged {
			survivors = append(survivors, record)
		}
	}
	return survivors, merges
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
