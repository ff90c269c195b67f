package engine

import (
	"context"
	"time"

	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/store"
)

// SnapshotReport summarizes one snapshot collection pass.
type SnapshotReport struct {
	Date      string `json:"date"`
	Collected int    `json:"collected"`
}

// snapshotStatuses are the listing states worth a daily time-series row.
// Sold and ended listings stop accruing traffic.
var snapshotStatuses = []domain.ListingStatus{
	domain.ListingActive,
	domain.ListingZombie,
	domain.ListingPurgatory,
}

// RunSnapshotCollector writes one snapshot row per live listing for today.
// Re-running on the same day upserts, so the collector is safe to repeat.
func (c *Coordinator) RunSnapshotCollector(ctx context.Context) (*SnapshotReport, error) {
	day := c.now().UTC().Truncate(24 * time.Hour)
	report := &SnapshotReport{Date: day.Format("2006-01-02")}

	err := c.runLogged(ctx, "snapshot_collector", "scheduled", func(sess store.Session) (int, int, any, error) {
		for _, status := range snapshotStatuses {
			listings, err := sess.Listings().ListByStatus(ctx, status)
			if err != nil {
				return 0, 0, nil, err
			}
			for _, l := range listings {
				snap := &domain.ListingSnapshot{
					ListingID:        l.ID,
					SnapshotDate:     day,
					Views:            l.TotalViews,
					Watchers:         l.Watchers,
					PriceAtSnapshot:  l.EffectivePrice(),
					StatusAtSnapshot: l.Status,
				}
				if err := sess.Snapshots().Create(ctx, snap); err != nil {
					return 0, 0, nil, err
				}
				report.Collected++
			}
		}
		return report.Collected, report.Collected, report, nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}
