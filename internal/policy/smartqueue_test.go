package policy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/gateway"
	"github.com/flipflow/flipflow/internal/gateway/mock"
	"github.com/flipflow/flipflow/internal/store"
	"github.com/flipflow/flipflow/internal/store/memory"
)

func newTestQueue(t *testing.T, gw gateway.Gateway) *SmartQueue {
	t.Helper()
	q, err := NewSmartQueue(gw, testConfig(t))
	require.NoError(t, err)
	return q
}

func TestSurgeWindowPredicate(t *testing.T) {
	q := newTestQueue(t, mock.New())
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2026-01-11 is a Sunday; default window is Sunday 20:00-22:00 ET.
	cases := []struct {
		at   time.Time
		want bool
	}{
		{time.Date(2026, 1, 11, 20, 0, 0, 0, ny), true},
		{time.Date(2026, 1, 11, 21, 59, 0, 0, ny), true},
		{time.Date(2026, 1, 11, 22, 0, 0, 0, ny), false},
		{time.Date(2026, 1, 11, 19, 59, 0, 0, ny), false},
		{time.Date(2026, 1, 12, 20, 30, 0, 0, ny), false}, // Monday
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, q.IsSurgeWindowActive(tc.at), "%s", tc.at)
	}

	// The predicate converts to the surge timezone: Sunday 20:30 ET is
	// 01:30 UTC Monday.
	utcMonday := time.Date(2026, 1, 12, 1, 30, 0, 0, time.UTC)
	assert.True(t, q.IsSurgeWindowActive(utcMonday))
}

func TestEnqueueTransitionsListing(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	draft := activeListing("SKU-1", "", "50.00", 0, 0)
	draft.Status = domain.ListingDraft
	st.Seed(draft)

	q := newTestQueue(t, mock.New())

	var entry *domain.QueueEntry
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		var err error
		entry, err = q.Enqueue(ctx, sess, 1, 5)
		return err
	}))

	assert.Equal(t, domain.QueuePending, entry.Status)
	assert.Equal(t, 5, entry.Priority)
	assert.Contains(t, entry.ScheduledWindow, "Sunday")

	l, _ := st.Listing(1)
	assert.Equal(t, domain.ListingQueued, l.Status)
}

func TestEnqueueRejectsActiveListing(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	st.Seed(activeListing("SKU-1", "L1", "50.00", 10, 5))

	q := newTestQueue(t, mock.New())

	err := st.WithSession(ctx, func(sess store.Session) error {
		_, err := q.Enqueue(ctx, sess, 1, 0)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func seedQueued(t *testing.T, st *memory.Store, q *SmartQueue, sku string, priority int) {
	t.Helper()
	ctx := context.Background()
	draft := activeListing(sku, "", "50.00", 0, 0)
	draft.Status = domain.ListingDraft
	st.Seed(draft)
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		_, err := q.Enqueue(ctx, sess, draft.ID, priority)
		return err
	}))
}

func TestReleaseBatchOrdersByPriority(t *testing.T) {
	ctx := context.Background()
	gw := mock.New()
	st := memory.New()
	q := newTestQueue(t, gw)

	seedQueued(t, st, q, "SKU-LOW", 1)
	seedQueued(t, st, q, "SKU-HIGH", 9)

	var report *ReleaseReport
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		var err error
		report, err = q.ReleaseBatch(ctx, sess, false)
		return err
	}))

	assert.Equal(t, 2, report.Selected)
	assert.Equal(t, 2, report.Released)
	assert.Len(t, report.BatchID, 12)
	require.Len(t, report.Details, 2)
	assert.Equal(t, "SKU-HIGH", report.Details[0].SKU)
	assert.Equal(t, "SKU-LOW", report.Details[1].SKU)

	for _, d := range report.Details {
		assert.True(t, d.Released)
		require.NotNil(t, d.NewItemID)
	}

	// Both listings went live with fresh ids and offers.
	l1, _ := st.Listing(1)
	assert.Equal(t, domain.ListingActive, l1.Status)
	require.NotNil(t, l1.EbayItemID)
	require.NotNil(t, l1.OfferID)
	assert.NotNil(t, l1.ListedAt)
}

func TestReleaseBatchDryRun(t *testing.T) {
	ctx := context.Background()
	gw := mock.New()
	st := memory.New()
	q := newTestQueue(t, gw)

	seedQueued(t, st, q, "SKU-1", 3)

	var report *ReleaseReport
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		var err error
		report, err = q.ReleaseBatch(ctx, sess, true)
		return err
	}))

	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Selected)
	assert.Equal(t, 0, report.Released)

	l, _ := st.Listing(1)
	assert.Equal(t, domain.ListingQueued, l.Status)
	assert.Nil(t, l.EbayItemID)
}

func TestReleaseBatchPerEntryFailure(t *testing.T) {
	ctx := context.Background()
	gw := mock.New()
	st := memory.New()
	q := newTestQueue(t, gw)

	seedQueued(t, st, q, "SKU-HIGH", 9)
	seedQueued(t, st, q, "SKU-LOW", 1)

	// Fires once: the high-priority entry fails, the batch continues.
	gw.InjectFailure("create_offer", gateway.NewError(gateway.KindAPI, "create_offer", "down"))

	var report *ReleaseReport
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		var err error
		report, err = q.ReleaseBatch(ctx, sess, false)
		return err
	}))

	assert.Equal(t, 1, report.Released)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Details, 2)
	assert.False(t, report.Details[0].Released)
	assert.Contains(t, report.Details[0].Error, "create offer")
	assert.True(t, report.Details[1].Released)

	// The failed listing stays queued for a retry.
	high, _ := st.Listing(1)
	assert.Equal(t, domain.ListingQueued, high.Status)
}

func TestReleaseBatchRespectsBatchSize(t *testing.T) {
	ctx := context.Background()
	gw := mock.New()
	st := memory.New()

	cfg := testConfig(t)
	cfg.Queue.BatchSize = 2
	q, err := NewSmartQueue(gw, cfg)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		seedQueued(t, st, q, "SKU-"+string(rune('A'+i)), i)
	}

	var report *ReleaseReport
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		report, err = q.ReleaseBatch(ctx, sess, false)
		return err
	}))
	assert.Equal(t, 2, report.Selected)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	gw := mock.New()
	st := memory.New()
	q := newTestQueue(t, gw)
	q.now = func() time.Time { return fixedNow }

	seedQueued(t, st, q, "SKU-1", 5)
	seedQueued(t, st, q, "SKU-2", 1)

	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		_, err := q.ReleaseBatch(ctx, sess, false)
		return err
	}))
	seedQueued(t, st, q, "SKU-3", 1)

	var stats *QueueStats
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		var err error
		stats, err = q.Stats(ctx, sess)
		return err
	}))

	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 2, stats.Released)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 2, stats.ReleasedToday)
}
