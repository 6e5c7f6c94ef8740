// Package events handles event emission for reconciliation runs
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Eiat5522/listings-reconciler/pkg/kafka"
	"github.com/Eiat5522/listings-reconciler/pkg/models"
	"github.com/Eiat5522/listings-reconciler/pkg/tracing"
)

// Emitter publishes reconciliation lifecycle events
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitListingsMerged emits one listing.merged event per output record of a run
func (e *Emitter) EmitListingsMerged(ctx context.Context, runID string, listings []models.Listing) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitListingsMerged")
	defer span.End()

	events := make([]*kafka.ListingEvent, 0, len(listings))
	for _, listing := range listings {
		data, err := json.Marshal(listing)
		if err != nil {
			e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"listing_id": listing.ID(),
			}).Warn("Skipping unserializable listing event")
			continue
		}

		events = append(events, &kafka.ListingEvent{
			EventType: "listing.merged",
			RunID:     runID,
			ListingID: listing.ID(),
			City:      listing.City(),
			Category:  listing.Category(),
			Data:      data,
			SourceIDs: listing.StringList("source_urls"),
		})
	}

	if err := e.producer.PublishListingEvents(ctx, events); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit listing.merged events")
		return err
	}

	return nil
}

// EmitRunCompleted emits a run.completed event with the run report
func (e *Emitter) EmitRunCompleted(ctx context.Context, runID string, report *models.Report) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunCompleted")
	defer span.End()

	event := &kafka.RunEvent{
		EventType: "run.completed",
		RunID:     runID,
		Report:    report,
	}

	if err := e.producer.PublishRunEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit run.completed event")
		return err
	}

	return nil
}

// EmitRunFailed emits a run.failed event carrying the failure reason
func (e *Emitter) EmitRunFailed(ctx context.Context, runID string, runErr error) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunFailed")
	defer span.End()

	event := &kafka.RunEvent{
		EventType: "run.failed",
		RunID:     runID,
		Error:     runErr.Error(),
	}

	if err := e.producer.PublishRunEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit run.failed event")
		return err
	}

	return nil
}
