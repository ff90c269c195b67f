package engine

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipflow/flipflow/internal/config"
	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/gateway"
	"github.com/flipflow/flipflow/internal/gateway/mock"
	"github.com/flipflow/flipflow/internal/store/memory"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *memory.Store, *mock.Gateway) {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	gw := mock.New()
	st := memory.New()
	c, err := New(st, gw, cfg)
	require.NoError(t, err)
	return c, st, gw
}

func seedActive(st *memory.Store, sku, itemID string, days, views int) *domain.Listing {
	l := &domain.Listing{
		SKU:           sku,
		Title:         "Test " + sku,
		Description:   "desc",
		ConditionID:   "USED_GOOD",
		PurchasePrice: decimal.RequireFromString("10.00"),
		ListPrice:     decimal.RequireFromString("100.00"),
		ShippingCost:  decimal.RequireFromString("5.00"),
		Status:        domain.ListingActive,
		DaysActive:    days,
		TotalViews:    views,
		PhotoURLs:     []string{"a.jpg", "b.jpg"},
	}
	if itemID != "" {
		l.EbayItemID = &itemID
	}
	st.Seed(l)
	return l
}

func TestRunRepricerWritesJobLog(t *testing.T) {
	ctx := context.Background()
	c, st, gw := newTestCoordinator(t)
	require.NoError(t, gw.CreateInventoryItem(ctx, "SKU-1", gateway.InventoryItem{Quantity: 1}))
	seedActive(st, "SKU-1", "L1", 65, 50)

	report, err := c.RunRepricer(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Repriced)

	jobs, err := c.RecentJobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "repricer", jobs[0].JobName)
	assert.Equal(t, domain.JobSuccess, jobs[0].Status)
	assert.Equal(t, 1, jobs[0].ItemsProcessed)
	assert.Equal(t, 1, jobs[0].ItemsAffected)
	require.NotNil(t, jobs[0].FinishedAt)
	require.NotNil(t, jobs[0].Details)
}

func TestPreviewRepriceDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	c, st, _ := newTestCoordinator(t)
	seedActive(st, "SKU-1", "L1", 65, 50)

	report, err := c.PreviewReprice(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Repriced)
	assert.Equal(t, "90.00", report.Details[0].NewPrice.StringFixed(2))

	l, _ := st.Listing(1)
	assert.Nil(t, l.CurrentPrice)
	assert.Nil(t, l.LastRepricedAt)

	// Previews leave no job trail.
	jobs, err := c.RecentJobs(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestFailedRunRollsBackButLogs(t *testing.T) {
	ctx := context.Background()
	c, st, gw := newTestCoordinator(t)
	seedActive(st, "SKU-1", "L1", 70, 0)
	gw.InjectFailure("get_traffic_report", gateway.NewError(gateway.KindAuth, "get_traffic_report", "expired"))

	_, err := c.RunZombieScan(ctx)
	require.Error(t, err)

	jobs, jerr := c.RecentJobs(ctx, 10)
	require.NoError(t, jerr)
	require.Len(t, jobs, 1)
	assert.Equal(t, domain.JobFailed, jobs[0].Status)
	require.NotNil(t, jobs[0].ErrorMessage)
	assert.Contains(t, *jobs[0].ErrorMessage, "traffic report")
}

func TestFlagThenPurgatoryFlow(t *testing.T) {
	ctx := context.Background()
	c, st, _ := newTestCoordinator(t)
	l := seedActive(st, "SKU-1", "L1", 70, 2)
	_ = l

	rec, err := c.FlagZombie(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ZombieFlagged, rec.ActionTaken)

	entry, err := c.EnterPurgatory(ctx, 1)
	require.NoError(t, err)
	// (10 + 5 + 0.30) / 0.841 = 18.19 break-even, 30% off = 12.73.
	assert.Equal(t, "12.73", entry.MarkdownPrice.StringFixed(2))

	after, _ := st.Listing(1)
	assert.Equal(t, domain.ListingPurgatory, after.Status)
}

func TestAnswerOffer(t *testing.T) {
	ctx := context.Background()
	c, st, _ := newTestCoordinator(t)
	seedActive(st, "SKU-1", "L1", 10, 2)

	decision, err := c.AnswerOffer(ctx, 1, "OFFER-X", "BUYER-1", decimal.RequireFromString("95.00"))
	require.NoError(t, err)
	assert.Equal(t, gateway.ActionAccept, decision.Action)
}

func TestReleaseQueueBatchDryRunSkipsJobLog(t *testing.T) {
	ctx := context.Background()
	c, st, _ := newTestCoordinator(t)

	st.Seed(&domain.Listing{
		SKU:         "SKU-1",
		Title:       "Test SKU-1",
		ConditionID: "USED_GOOD",
		ListPrice:   decimal.RequireFromString("50.00"),
		Status:      domain.ListingDraft,
	})

	_, err := c.EnqueueListing(ctx, 1, 3)
	require.NoError(t, err)

	report, err := c.ReleaseQueueBatch(ctx, true)
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Selected)

	jobs, err := c.RecentJobs(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestRunSnapshotCollectorUpserts(t *testing.T) {
	ctx := context.Background()
	c, st, _ := newTestCoordinator(t)
	c.now = func() time.Time { return time.Date(2026, 8, 24, 15, 0, 0, 0, time.UTC) }
	seedActive(st, "SKU-1", "L1", 10, 7)

	first, err := c.RunSnapshotCollector(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Collected)
	assert.Equal(t, "2026-08-24", first.Date)

	// Same day again: the row upserts instead of duplicating.
	second, err := c.RunSnapshotCollector(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Collected)
}
