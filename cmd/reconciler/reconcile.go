package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Eiat5522/listings-reconciler/internal/images"
	"github.com/Eiat5522/listings-reconciler/internal/loader"
	"github.com/Eiat5522/listings-reconciler/internal/repositories/mergedlisting"
	"github.com/Eiat5522/listings-reconciler/internal/repositories/reconcilerun"
	"github.com/Eiat5522/listings-reconciler/internal/writer"
	"github.com/Eiat5522/listings-reconciler/pkg/appcontext"
	"github.com/Eiat5522/listings-reconciler/pkg/events"
	"github.com/Eiat5522/listings-reconciler/pkg/kafka"
	"github.com/Eiat5522/listings-reconciler/pkg/tracing"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run a batch reconciliation over the configured input pair",
	RunE:  runReconcile,
}

func runReconcile(cmd *cobra.Command, args []string) error {
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

	load := loader.New(logger)
	primary, droppedPrimary, primaryErr := load.LoadJSON(ctx, cfg.PrimaryInputPath)
	secondary, droppedSecondary, secondaryErr := load.LoadJSON(ctx, cfg.SecondaryInputPath)
	if primaryErr != nil && secondaryErr != nil {
		return fmt.Errorf("both input collections unobtainable: %v / %v", primaryErr, secondaryErr)
	}

	runID := uuid.New().String()

	var (
		store *mergedlisting.Repository
		runs  *reconcilerun.Repository
	)
	if cfg.DatabaseEnabled {
		db, err := connectDatabase(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		store = mergedlisting.NewRepository(db, logger)
		runs = reconcilerun.NewRepository(db, logger)

		run, err := runs.Create(ctx)
		if err != nil {
			return err
		}
		runID = run.ID
	}

	ctx = appcontext.SetRunID(ctx, runID)

	listings, report, err := engine.Reconcile(ctx, primary, secondary)
	if err != nil {
		if runs != nil {
			_ = runs.Fail(ctx, runID, err)
		}
		return err
	}
	report.DroppedPrimary = droppedPrimary
	report.DroppedSecondary = droppedSecondary

	out := writer.New(logger)
	if err := out.WriteJSON(ctx, cfg.OutputJSONPath, listings); err != nil {
		return err
	}
	if cfg.OutputCSVPath != "" {
		if err := out.WriteCSV(ctx, cfg.OutputCSVPath, listings); err != nil {
			return err
		}
	}

	if store != nil {
		if err := store.UpsertBatch(ctx, runID, listings); err != nil {
			_ = runs.Fail(ctx, runID, err)
			return err
		}
		if err := runs.Complete(ctx, runID, report); err != nil {
			return err
		}
	}

	if cfg.KafkaEnabled {
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()

		emitter := events.NewEmitter(producer, logger)
		if err := emitter.EmitListingsMerged(ctx, runID, listings); err != nil {
			return err
		}
		if err := emitter.EmitRunCompleted(ctx, runID, report); err != nil {
			return err
		}
	}

	if cfg.ImageStagingEnabled {
		stager := images.NewStager(logger)
		if _, err := stager.Stage(ctx, listings, cfg.ImageSourceDir, cfg.ImageStagingDir); err != nil {
			return err
		}
	}

	if cfg.SanityEnabled {
		client := writer.NewSanityClient(writer.SanityConfig{
			ProjectID:  cfg.SanityProjectID,
			Dataset:    cfg.SanityDataset,
			Token:      cfg.SanityToken,
			APIVersion: cfg.SanityAPIVersion,
			BatchSize:  cfg.SanityUploadBatchSize,
			MaxRetries: cfg.SanityMaxRetries,
		}, logger)
		if err := client.CheckAuth(ctx); err != nil {
			return err
		}
		if _, err := client.UploadListings(ctx, listings); err != nil {
			return err
		}
	}

	logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":            runID,
		"primary_count":     report.PrimaryCount,
		"secondary_count":   report.SecondaryCount,
		"dropped_primary":   report.DroppedPrimary,
		"dropped_secondary": report.DroppedSecondary,
		"id_merges":         report.IDMerges,
		"fuzzy_merges":      report.FuzzyMerges,
		"no_identity":       report.NoIdentityCount,
		"output_count":      report.OutputCount,
	}).Info("Reconciliation run finished")

	return nil
}
