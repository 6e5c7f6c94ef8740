// Package reconcile exposes the reconciliation engine over HTTP
package reconcile

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Eiat5522/listings-reconciler/internal/loader"
	"github.com/Eiat5522/listings-reconciler/pkg/appcontext"
	"github.com/Eiat5522/listings-reconciler/pkg/models"
	enginepkg "github.com/Eiat5522/listings-reconciler/pkg/reconcile"
)

// Handler handles reconciliation API endpoints
type Handler struct {
	engine *enginepkg.Engine
	logger ectologger.Logger
}

// NewHandler creates a new reconcile handler
func NewHandler(engine *enginepkg.Engine, logger ectologger.Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: logger,
	}
}

// Register registers the reconcile routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.Reconcile)
}

// Request is the request body for a reconciliation run. Entries are
// accepted as raw JSON values so a partially malformed collection can still
// run; non-object entries are dropped and counted.
type Request struct {
	Primary   []any `json:"primary"`
	Secondary []any `json:"secondary"`
}

// Response is the reconciliation result
type Response struct {
	RunID    string           `json:"run_id"`
	Report   *models.Report   `json:"report"`
	Listings []models.Listing `json:"listings"`
}

// Reconcile merges an uploaded dataset pair and returns the deduplicated
// collection with its run report
func (h *Handler) Reconcile(c echo.Context) error {
	ctx := c.Request().Context()

	var req Request
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if len(req.Primary) == 0 && len(req.Secondary) == 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, "at least one of primary or secondary must be non-empty")
	}

	primary, droppedPrimary := loader.Sanitize(req.Primary)
	secondary, droppedSecondary := loader.Sanitize(req.Secondary)

	runID := uuid.New().String()
	ctx = appcontext.SetRunID(ctx, runID)

	listings, report, err := h.engine.Reconcile(ctx, primary, secondary)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Reconciliation run failed")
		return httperror.NewHTTPError(http.StatusInternalServerError, "reconciliation failed")
	}
	report.DroppedPrimary = droppedPrimary
	report.DroppedSecondary = droppedSecondary

	return c.JSON(http.StatusOK, Response{
		RunID:    runID,
		Report:   report,
		Listings: listings,
	})
}
