package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/labconnect/medtest-booking/internal/apperr"
	"github.com/labconnect/medtest-booking/internal/model"
	"github.com/labconnect/medtest-booking/internal/queue"
	"github.com/labconnect/medtest-booking/internal/repository"
	"github.com/labconnect/medtest-booking/internal/storage"
)

// AdvanceInput asks the pipeline to move one line item to Status,
// optionally attaching a report.
type AdvanceInput struct {
	BookingID string
	ItemID    string
	Status    string
	Report    *storage.Artifact
}

// StatusPipeline moves booking line items through the fulfillment stages.
type StatusPipeline struct {
	store     BookingStore
	artifacts ArtifactStore
	events    EventPublisher
	policy    TransitionPolicy
	maxReport int64
	log       zerolog.Logger
	now       func() time.Time
}

// NewStatusPipeline returns a pipeline enforcing policy.  Reports larger
// than maxReport bytes are rejected; zero means storage.MaxReportBytes.
func NewStatusPipeline(store BookingStore, artifacts ArtifactStore, events EventPublisher, policy TransitionPolicy, maxReport int64, log zerolog.Logger) *StatusPipeline {
	if maxReport <= 0 {
		maxReport = storage.MaxReportBytes
	}
	return &StatusPipeline{
		store:     store,
		artifacts: artifacts,
		events:    events,
		policy:    policy,
		maxReport: maxReport,
		log:       log.With().Str("component", "pipeline").Str("mode", policy.Mode()).Logger(),
		now:       time.Now,
	}
}

// Advance validates the target status, locks the item, checks the
// transition, uploads the report if one is attached and writes the new
// status in the same transaction.  A failed upload leaves the item as it
// was.  The updated item is returned.
func (p *StatusPipeline) Advance(ctx context.Context, in AdvanceInput) (*model.BookingLineItem, error) {
	if in.BookingID == "" || in.ItemID == "" {
		return nil, apperr.Validation("booking_id and item_id are required")
	}
	next, ok := model.ParseItemStatus(in.Status)
	if !ok {
		return nil, apperr.Validation("Invalid status value. Allowed values: " + allowedStatuses())
	}
	if in.Report != nil {
		if err := storage.Check(*in.Report, p.maxReport); err != nil {
			return nil, apperr.Validation("Invalid report file: " + err.Error())
		}
	}

	var previous model.ItemStatus
	item, err := p.store.UpdateItemStatus(ctx, in.BookingID, in.ItemID,
		func(ctx context.Context, cur model.BookingLineItem) (repository.ItemChange, error) {
			previous = cur.Status
			if !p.policy.Allows(cur.Status, next) {
				return repository.ItemChange{}, apperr.Conflict(
					fmt.Sprintf("Cannot move test from %q to %q", cur.Status, next))
			}
			change := repository.ItemChange{Status: next}
			if in.Report != nil {
				url, err := p.artifacts.Upload(ctx, *in.Report, "reports/"+in.BookingID)
				if err != nil {
					return repository.ItemChange{}, apperr.Internal("Report upload failed", err)
				}
				change.ReportLink = &url
			}
			return change, nil
		})
	if err != nil {
		return nil, p.translate(err, in)
	}

	p.log.Info().Str("booking_id", in.BookingID).Str("item_id", in.ItemID).
		Str("from", string(previous)).Str("to", string(item.Status)).Msg("item status updated")

	pctx, cancel := detached(ctx)
	defer cancel()
	ev := queue.ItemStatusChangedEvent{
		BookingID:      item.BookingID,
		ItemID:         item.ID,
		PreviousStatus: string(previous),
		Status:         string(item.Status),
		ChangedAt:      p.now().UTC().Format(time.RFC3339),
	}
	if item.ReportLink != nil {
		ev.ReportLink = *item.ReportLink
	}
	if err := p.events.PublishItemStatusChanged(pctx, ev); err != nil {
		p.log.Warn().Err(err).Str("item_id", item.ID).Msg("booking.item_status_changed not published")
	}
	return item, nil
}

func (p *StatusPipeline) translate(err error, in AdvanceInput) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("Test item not found for this booking", in.ItemID)
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		if ae.Kind == apperr.KindInternal {
			p.log.Error().Err(err).Str("item_id", in.ItemID).Msg("status update failed")
		}
		return ae
	}
	p.log.Error().Err(err).Str("booking_id", in.BookingID).Str("item_id", in.ItemID).Msg("status update failed")
	return apperr.Internal("Failed to update test status", err)
}

func allowedStatuses() string {
	all := model.AllItemStatuses()
	names := make([]string, len(all))
	for i, st := range all {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}
