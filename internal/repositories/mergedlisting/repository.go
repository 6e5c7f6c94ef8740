// Package mergedlisting persists the reconciled listing collection
package mergedlisting

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/Eiat5522/listings-reconciler/pkg/models"
	"github.com/Eiat5522/listings-reconciler/pkg/tracing"
)

// Repository handles merged listing persistence
type Repository struct {
	db     *sqlx.DB
	logger ectologger.Logger
}

// NewRepository creates a new merged listing repository
func NewRepository(db *sqlx.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// UpsertBatch writes the output of a run, replacing listings that already
// exist under the same id
func (r *Repository) UpsertBatch(ctx context.Context, runID string, listings []models.Listing) error {
	ctx, span := tracing.StartSpan(ctx, "mergedlisting.Repository.UpsertBatch")
	defer span.End()

	now := time.Now().UTC()
	for _, listing := range listings {
		data, err := json.Marshal(listing)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"listing_id": listing.ID(),
			}).Error("Failed to serialize listing for persistence")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to serialize listing")
		}

		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto("merged_listings")
		sb.Cols("id", "run_id", "city", "category", "data", "created_at", "updated_at")
		sb.Values(listing.ID(), runID, listing.City(), listing.Category(), data, now, now)

		query, args := sb.Build()
		query += " ON CONFLICT (id) DO UPDATE SET run_id = EXCLUDED.run_id, city = EXCLUDED.city, category = EXCLUDED.category, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at"

		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"listing_id": listing.ID(),
			}).Error("Failed to upsert merged listing")
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to persist merged listing")
		}
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id": runID,
		"count":  len(listings),
	}).Info("Persisted merged listings")
	return nil
}

// Get retrieves a merged listing by id
func (r *Repository) Get(ctx context.Context, id string) (*models.MergedListing, error) {
	ctx, span := tracing.StartSpan(ctx, "mergedlisting.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "run_id", "city", "category", "data", "created_at", "updated_at")
	sb.From("merged_listings")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var listing models.MergedListing
	if err := r.db.GetContext(ctx, &listing, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("merged listing %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get merged listing")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get merged listing")
	}

	return &listing, nil
}

// List retrieves merged listings, optionally filtered by city and category
func (r *Repository) List(ctx context.Context, city, category string, limit, offset int) ([]models.MergedListing, error) {
	ctx, span := tracing.StartSpan(ctx, "mergedlisting.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "run_id", "city", "category", "data", "created_at", "updated_at")
	sb.From("merged_listings")
	if city != "" {
		sb.Where(sb.Equal("city", city))
	}
	if category != "" {
		sb.Where(sb.Equal("category", category))
	}
	sb.OrderBy("id ASC")
	if limit > 0 {
		sb.Limit(limit)
	}
	if offset > 0 {
		sb.Offset(offset)
	}

	query, args := sb.Build()
	var listings []models.MergedListing
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list merged listings")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list merged listings")
	}

	return listings, nil
}

// Count returns the number of persisted merged listings
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "mergedlisting.Repository.Count")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("merged_listings")

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count merged listings")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count merged listings")
	}

	return count, nil
}
