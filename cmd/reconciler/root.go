package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Eiat5522/listings-reconciler/config"
	"github.com/Eiat5522/listings-reconciler/pkg/database"
	"github.com/Eiat5522/listings-reconciler/pkg/matching"
	"github.com/Eiat5522/listings-reconciler/pkg/merging"
	"github.com/Eiat5522/listings-reconciler/pkg/reconcile"
	"github.com/Eiat5522/listings-reconciler/pkg/slugid"
)

var rootCmd = &cobra.Command{
	Use:           "reconciler",
	Short:         "Reconciles the directory's listing datasets into one deduplicated collection",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(uploadCmd)
}

// Execute runs the CLI
func Execute() error {
	// .env is optional; a missing file is the normal production case
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func setup() (*config.Config, ectologger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, newLogger(cfg), nil
}

func newLogger(cfg *config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	if cfg.PrettyLogs {
		zapLogger, _ = zap.NewDevelopment()
	} else {
		zapLogger, _ = zap.NewProduction()
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func buildEngine(cfg *config.Config, logger ectologger.Logger) (*reconcile.Engine, error) {
	codes := slugid.DefaultCodeTable()
	if cfg.CodeTablePath != "" {
		overrides, err := loadCodeTable(cfg.CodeTablePath)
		if err != nil {
			return nil, err
		}
		codes = codes.Merge(overrides)
	}

	var opts []slugid.Option
	if cfg.IDCollisionSuffix {
		opts = append(opts, slugid.WithCollisionSuffix())
	}

	resolver := matching.NewResolver(matching.ResolverConfig{
		FuzzyThreshold:     cfg.FuzzyMatchThreshold,
		GeoThresholdMeters: cfg.GeoThresholdMeters,
		RequireBothSignals: cfg.RequireBothSignals,
	})

	return reconcile.NewEngine(
		logger,
		resolver,
		merging.NewMerger(),
		slugid.New(codes, opts...),
		reconcile.Config{Workers: cfg.MergeWorkerCount},
	), nil
}

func loadCodeTable(path string) (slugid.CodeTable, error) {
	var table slugid.CodeTable
	data, err := os.ReadFile(path)
	if err != nil {
		return table, fmt.Errorf("reading code table %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &table); err != nil {
		return table, fmt.Errorf("parsing code table %s: %w", path, err)
	}
	return table, nil
}

// connectDatabase opens the staging database and applies migrations
func connectDatabase(ctx context.Context, cfg *config.Config, logger ectologger.Logger) (*sqlx.DB, error) {
	db, err := database.Connect(ctx, database.Config{
		Driver:          cfg.DatabaseDriver,
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		UserName:        cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("creating migration driver: %w", err)
	}

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
	})
	if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
		return nil, err
	}

	return db, nil
}
