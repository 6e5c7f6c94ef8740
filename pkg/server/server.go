// Package server assembles the HTTP service around the engine
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Eiat5522/listings-reconciler/config"
	"github.com/Eiat5522/listings-reconciler/internal/repositories/mergedlisting"
	"github.com/Eiat5522/listings-reconciler/internal/repositories/reconcilerun"
	"github.com/Eiat5522/listings-reconciler/pkg/middleware"
	enginepkg "github.com/Eiat5522/listings-reconciler/pkg/reconcile"
	"github.com/Eiat5522/listings-reconciler/pkg/routes/health"
	"github.com/Eiat5522/listings-reconciler/pkg/routes/listings"
	reconcileroute "github.com/Eiat5522/listings-reconciler/pkg/routes/reconcile"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Server hosts the reconciliation API
type Server struct {
	echo    *echo.Echo
	config  *config.Config
	logger  ectologger.Logger
	checker *health.Checker
}

// New assembles the echo server. db may be nil when persistence is
// disabled; the listing browse routes are then not registered.
func New(
	cfg *config.Config,
	logger ectologger.Logger,
	engine *enginepkg.Engine,
	db *sqlx.DB,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
	}))
	e.Use(echomiddleware.Recover())

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second

	checker := health.NewChecker(db, Version)
	checker.RegisterRoutes(e)

	reconcileroute.NewHandler(engine, logger).Register(e.Group("/api/v1/reconcile"))

	if db != nil {
		listingsRepo := mergedlisting.NewRepository(db, logger)
		runsRepo := reconcilerun.NewRepository(db, logger)
		listings.NewHandler(listingsRepo, runsRepo, logger).Register(e.Group("/api/v1"))
	}

	return &Server{
		echo:    e,
		config:  cfg,
		logger:  logger,
		checker: checker,
	}
}

// Echo exposes the underlying echo instance for tests
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start begins serving and blocks until the server stops
func (s *Server) Start() error {
	s.checker.SetReady(true)
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.logger.WithFields(map[string]any{"addr": addr}).Infof("Starting %s on %s", s.config.AppName, addr)
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	s.checker.SetReady(false)
	return s.echo.Shutdown(ctx)
}
