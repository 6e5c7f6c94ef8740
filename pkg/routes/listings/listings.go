// Package listings serves the persisted merged collection
package listings

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Eiat5522/listings-reconciler/internal/repositories/mergedlisting"
	"github.com/Eiat5522/listings-reconciler/internal/repositories/reconcilerun"
)

// Handler handles merged listing API endpoints
type Handler struct {
	listings *mergedlisting.Repository
	runs     *reconcilerun.Repository
	logger   ectologger.Logger
}

// NewHandler creates a new listings handler
func NewHandler(listings *mergedlisting.Repository, runs *reconcilerun.Repository, logger ectologger.Logger) *Handler {
	return &Handler{
		listings: listings,
		runs:     runs,
		logger:   logger,
	}
}

// Register registers the listing routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("/listings", h.List)
	g.GET("/listings/:id", h.Get)
	g.GET("/runs", h.ListRuns)
	g.GET("/runs/:id", h.GetRun)
}

// List returns persisted merged listings, filterable by city and category
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	results, err := h.listings.List(ctx, c.QueryParam("city"), c.QueryParam("category"), limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, results)
}

// Get returns one merged listing by id
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	listing, err := h.listings.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listing)
}

// ListRuns returns recent reconciliation runs
func (h *Handler) ListRuns(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	runs, err := h.runs.ListRecent(ctx, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, runs)
}

// GetRun returns one run with its report
func (h *Handler) GetRun(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	run, err := h.runs.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, run)
}
