package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Eiat5522/listings-reconciler/internal/loader"
	"github.com/Eiat5522/listings-reconciler/internal/writer"
	"github.com/Eiat5522/listings-reconciler/pkg/models"
	"github.com/Eiat5522/listings-reconciler/pkg/tracing"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [merged.json|merged.csv]",
	Short: "Re-export an existing merged collection to the content store",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runUpload,
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	shutdownTracing := tracing.Init(cfg.AppName)
	defer func() { _ = shutdownTracing(ctx) }()

	path := cfg.OutputJSONPath
	if len(args) > 0 {
		path = args[0]
	}

	load := loader.New(logger)
	var listings []models.Listing
	if strings.HasSuffix(path, ".csv") {
		listings, err = load.LoadCSV(ctx, path)
	} else {
		listings, _, err = load.LoadJSON(ctx, path)
	}
	if err != nil {
		return fmt.Errorf("loading merged collection: %w", err)
	}
	if len(listings) == 0 {
		return fmt.Errorf("no listings found in %s", path)
	}

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

	summary, err := client.UploadListings(ctx, listings)
	if err != nil {
		return err
	}

	logger.WithContext(ctx).WithFields(map[string]any{
		"uploaded": summary.Uploaded,
		"skipped":  summary.Skipped,
		"source":   path,
	}).Info("Upload finished")
	return nil
}
