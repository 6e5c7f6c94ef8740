// Package reconcilerun persists reconciliation run records and reports
package reconcilerun

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/Eiat5522/listings-reconciler/pkg/models"
	"github.com/Eiat5522/listings-reconciler/pkg/tracing"
)

// Repository handles reconciliation run persistence
type Repository struct {
	db     *sqlx.DB
	logger ectologger.Logger
}

// NewRepository creates a new run repository
func NewRepository(db *sqlx.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create records the start of a run and returns its id
func (r *Repository) Create(ctx context.Context) (*models.ReconcileRun, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcilerun.Repository.Create")
	defer span.End()

	run := &models.ReconcileRun{
		ID:        uuid.New().String(),
		Status:    "running",
		StartedAt: time.Now().UTC(),
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("reconcile_runs")
	sb.Cols("id", "status", "started_at")
	sb.Values(run.ID, run.Status, run.StartedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create reconcile run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create reconcile run")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"run_id": run.ID}).Info("Created reconcile run")
	return run, nil
}

// Complete marks a run finished and stores its report
func (r *Repository) Complete(ctx context.Context, id string, report *models.Report) error {
	ctx, span := tracing.StartSpan(ctx, "reconcilerun.Repository.Complete")
	defer span.End()

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to serialize run report")
	}

	return r.finish(ctx, id, "completed", reportJSON, "")
}

// Fail marks a run failed with the failure reason
func (r *Repository) Fail(ctx context.Context, id string, runErr error) error {
	ctx, span := tracing.StartSpan(ctx, "reconcilerun.Repository.Fail")
	defer span.End()

	return r.finish(ctx, id, "failed", nil, runErr.Error())
}

func (r *Repository) finish(ctx context.Context, id, status string, reportJSON []byte, errMsg string) error {
	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("reconcile_runs")
	sb.Set(
		sb.Assign("status", status),
		sb.Assign("report", reportJSON),
		sb.Assign("error", errMsg),
		sb.Assign("completed_at", now),
	)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to finish reconcile run")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to finish reconcile run")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("reconcile run %s not found", id))
	}

	return nil
}

// Get retrieves a run by id
func (r *Repository) Get(ctx context.Context, id string) (*models.ReconcileRun, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcilerun.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "status", "report", "error", "started_at", "completed_at")
	sb.From("reconcile_runs")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var run models.ReconcileRun
	if err := r.db.GetContext(ctx, &run, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("reconcile run %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get reconcile run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get reconcile run")
	}

	if len(run.ReportJSON) > 0 {
		var report models.Report
		if err := json.Unmarshal(run.ReportJSON, &report); err == nil {
			run.Report = &report
		}
	}

	return &run, nil
}

// ListRecent retrieves the most recent runs, newest first
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]models.ReconcileRun, error) {
	ctx, span := tracing.StartSpan(ctx, "reconcilerun.Repository.ListRecent")
	defer span.End()

	if limit <= 0 {
		limit = 20
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "status", "report", "error", "started_at", "completed_at")
	sb.From("reconcile_runs")
	sb.OrderBy("started_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var runs []models.ReconcileRun
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list reconcile runs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list reconcile runs")
	}

	return runs, nil
}
