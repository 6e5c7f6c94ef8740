package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/Eiat5522/listings-reconciler/pkg/server"
	"github.com/Eiat5522/listings-reconciler/pkg/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the reconciliation API over HTTP",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	shutdownTracing := tracing.Init(cfg.AppName)
	defer func() { _ = shutdownTracing(ctx) }()

	engine, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}

	var db *sqlx.DB
	if cfg.DatabaseEnabled {
		db, err = connectDatabase(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	srv := server.New(cfg, logger, engine, db)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Infof("Received signal %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
