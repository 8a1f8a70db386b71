package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labconnect/medtest-booking/internal/apperr"
	"github.com/labconnect/medtest-booking/internal/model"
	"github.com/labconnect/medtest-booking/internal/storage"
)

func pipelineFixture(policy TransitionPolicy, status model.ItemStatus) (*StatusPipeline, *fakeBookings, *fakeArtifacts, *fakeEvents) {
	store := newFakeBookings()
	store.items["i-1"] = model.BookingLineItem{
		ID: "i-1", BookingID: "b-1", MedicalTestID: "T1",
		Price: decimal.NewFromInt(300), Status: status,
	}
	files := &fakeArtifacts{}
	events := &fakeEvents{}
	return NewStatusPipeline(store, files, events, policy, 0, zerolog.Nop()), store, files, events
}

func report() *storage.Artifact {
	body := "%PDF-1.7"
	return &storage.Artifact{Name: "r.pdf", ContentType: "application/pdf", Size: int64(len(body)), Body: strings.NewReader(body)}
}

func TestAdvance_RejectsUnknownStatus(t *testing.T) {
	p, store, _, _ := pipelineFixture(PermissiveTransitions(), model.StatusCollected)

	for _, s := range []string{"done", "Sample Collected", "cancelled", ""} {
		_, err := p.Advance(context.Background(), AdvanceInput{BookingID: "b-1", ItemID: "i-1", Status: s})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), s)
	}
	assert.Equal(t, model.StatusCollected, store.items["i-1"].Status)
}

func TestAdvance_PermissiveAllowsSkipping(t *testing.T) {
	p, _, _, events := pipelineFixture(PermissiveTransitions(), model.StatusCollectionDue)

	item, err := p.Advance(context.Background(), AdvanceInput{BookingID: "b-1", ItemID: "i-1", Status: "report delivery"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusReportDelivery, item.Status)
	require.Len(t, events.changed, 1)
	assert.Equal(t, "sample collection due", events.changed[0].PreviousStatus)
	assert.Equal(t, "report delivery", events.changed[0].Status)
}

func TestAdvance_StrictRejectsSkipping(t *testing.T) {
	p, store, _, _ := pipelineFixture(StrictTransitions(), model.StatusCollectionDue)

	_, err := p.Advance(context.Background(), AdvanceInput{BookingID: "b-1", ItemID: "i-1", Status: "report delivery"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, model.StatusCollectionDue, store.items["i-1"].Status)

	item, err := p.Advance(context.Background(), AdvanceInput{BookingID: "b-1", ItemID: "i-1", Status: "sample collected"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCollected, item.Status)
}

func TestAdvance_WrongBookingIsNotFound(t *testing.T) {
	p, _, _, _ := pipelineFixture(PermissiveTransitions(), model.StatusCollected)

	_, err := p.Advance(context.Background(), AdvanceInput{BookingID: "b-2", ItemID: "i-1", Status: "sample processing"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAdvance_UploadsReport(t *testing.T) {
	p, _, files, events := pipelineFixture(PermissiveTransitions(), model.StatusProcessing)

	item, err := p.Advance(context.Background(), AdvanceInput{BookingID: "b-1", ItemID: "i-1", Status: "report generated", Report: report()})
	require.NoError(t, err)
	assert.Equal(t, 1, files.uploads)
	assert.Equal(t, "reports/b-1", files.folder)
	require.NotNil(t, item.ReportLink)
	assert.Equal(t, "https://files.example/reports/b-1/r.pdf", *item.ReportLink)
	assert.Equal(t, *item.ReportLink, events.changed[0].ReportLink)
}

func TestAdvance_UploadFailureKeepsStatus(t *testing.T) {
	p, store, files, events := pipelineFixture(PermissiveTransitions(), model.StatusProcessing)
	files.err = errors.New("bucket unavailable")

	_, err := p.Advance(context.Background(), AdvanceInput{BookingID: "b-1", ItemID: "i-1", Status: "report generated", Report: report()})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, model.StatusProcessing, store.items["i-1"].Status)
	assert.Nil(t, store.items["i-1"].ReportLink)
	assert.Empty(t, events.changed)
}

func TestAdvance_InvalidReportRejectedBeforeStore(t *testing.T) {
	p, _, files, _ := pipelineFixture(PermissiveTransitions(), model.StatusProcessing)
	bad := &storage.Artifact{Name: "r.exe", ContentType: "application/octet-stream", Size: 3, Body: strings.NewReader("abc")}

	_, err := p.Advance(context.Background(), AdvanceInput{BookingID: "b-1", ItemID: "i-1", Status: "report generated", Report: bad})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Zero(t, files.uploads)
}

func TestAdvance_StoreFailureIsInternal(t *testing.T) {
	p, store, _, _ := pipelineFixture(PermissiveTransitions(), model.StatusCollected)
	store.updateErr = errStore

	_, err := p.Advance(context.Background(), AdvanceInput{BookingID: "b-1", ItemID: "i-1", Status: "sample processing"})
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "deadlock")
}

func TestAdvance_ReportLimitFromConfig(t *testing.T) {
	big := func() *storage.Artifact {
		return &storage.Artifact{Name: "scan.pdf", ContentType: "application/pdf", Size: 15 << 20, Body: strings.NewReader("%PDF")}
	}

	// default limit is 10 MiB
	p, _, files, _ := pipelineFixture(PermissiveTransitions(), model.StatusProcessing)
	_, err := p.Advance(context.Background(), AdvanceInput{BookingID: "b-1", ItemID: "i-1", Status: "report generated", Report: big()})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Zero(t, files.uploads)

	store := newFakeBookings()
	store.items["i-1"] = model.BookingLineItem{ID: "i-1", BookingID: "b-1", Status: model.StatusProcessing}
	files = &fakeArtifacts{}
	p = NewStatusPipeline(store, files, &fakeEvents{}, PermissiveTransitions(), 20<<20, zerolog.Nop())
	item, err := p.Advance(context.Background(), AdvanceInput{BookingID: "b-1", ItemID: "i-1", Status: "report generated", Report: big()})
	require.NoError(t, err)
	assert.Equal(t, 1, files.uploads)
	require.NotNil(t, item.ReportLink)
}
