package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flipflow/flipflow/internal/config"
	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/gateway"
	"github.com/flipflow/flipflow/internal/pkg/logger"
	"github.com/flipflow/flipflow/internal/store"
)

// RelistCandidate is one listing due for a preventive relist.
type RelistCandidate struct {
	ListingID    int64           `json:"listing_id"`
	SKU          string          `json:"sku"`
	Title        string          `json:"title"`
	DaysActive   int             `json:"days_active"`
	TotalViews   int             `json:"total_views"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}

// RelistDetail is one completed preventive relist.
type RelistDetail struct {
	ListingID int64   `json:"listing_id"`
	SKU       string  `json:"sku"`
	OldItemID *string `json:"old_item_id"`
	NewItemID *string `json:"new_item_id"`
}

// RelistReport summarizes one auto-relist run.
type RelistReport struct {
	TotalScanned int            `json:"total_scanned"`
	Relisted     int            `json:"relisted"`
	Skipped      int            `json:"skipped"`
	Errors       int            `json:"errors"`
	Details      []RelistDetail `json:"details"`
}

// AutoRelister relists low-traffic listings on a cadence before they decay
// into zombies. It reuses the resurrection pipeline but restores the zombie
// cycle count afterward: a preventive relist is not a decay event.
type AutoRelister struct {
	cadenceDays    int
	viewsThreshold int
	resurrector    *Resurrector
	now            func() time.Time
}

// NewAutoRelister builds a relister sharing the resurrection pipeline.
func NewAutoRelister(gw gateway.Gateway, cfg *config.Config) *AutoRelister {
	return &AutoRelister{
		cadenceDays:    cfg.Relist.CadenceDays,
		viewsThreshold: cfg.Relist.ViewsThreshold,
		resurrector:    NewResurrector(gw, cfg),
		now:            time.Now,
	}
}

// IsDue reports whether a listing qualifies for a preventive relist.
func (a *AutoRelister) IsDue(l *domain.Listing) bool {
	return l.Status == domain.ListingActive &&
		l.DaysActive >= a.cadenceDays &&
		l.TotalViews < a.viewsThreshold &&
		l.OfferID != nil
}

// ScanCandidates returns what a relist run would touch, without mutation.
func (a *AutoRelister) ScanCandidates(ctx context.Context, sess store.Session) ([]RelistCandidate, error) {
	active, err := sess.Listings().ListByStatus(ctx, domain.ListingActive)
	if err != nil {
		return nil, fmt.Errorf("list active listings: %w", err)
	}
	var out []RelistCandidate
	for _, l := range active {
		if a.IsDue(l) {
			out = append(out, RelistCandidate{
				ListingID:    l.ID,
				SKU:          l.SKU,
				Title:        l.Title,
				DaysActive:   l.DaysActive,
				TotalViews:   l.TotalViews,
				CurrentPrice: l.EffectivePrice(),
			})
		}
	}
	return out, nil
}

// Run relists every eligible listing. Failures are counted, not propagated.
func (a *AutoRelister) Run(ctx context.Context, sess store.Session) (*RelistReport, error) {
	active, err := sess.Listings().ListByStatus(ctx, domain.ListingActive)
	if err != nil {
		return nil, fmt.Errorf("list active listings: %w", err)
	}

	report := &RelistReport{TotalScanned: len(active)}
	for _, l := range active {
		if !a.IsDue(l) {
			report.Skipped++
			continue
		}

		oldItemID := l.EbayItemID
		oldCycle := l.ZombieCycleCount
		oldDays := l.DaysActive
		oldViews := l.TotalViews

		res, err := a.resurrector.Resurrect(ctx, sess, l.ID)
		if err != nil {
			return nil, err
		}
		if !res.Success {
			report.Errors++
			continue
		}

		// Undo the cycle bump; preventive relists do not consume a cycle.
		relisted, err := sess.Listings().Get(ctx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("get relisted listing %d: %w", l.ID, err)
		}
		relisted.ZombieCycleCount = oldCycle
		if err := sess.Listings().Update(ctx, relisted); err != nil {
			return nil, fmt.Errorf("restore cycle count for listing %d: %w", l.ID, err)
		}

		now := a.now().UTC()
		rec := &domain.ZombieRecord{
			ListingID:             l.ID,
			DetectedAt:            now,
			DaysActiveAtDetection: oldDays,
			ViewsAtDetection:      oldViews,
			ActionTaken:           domain.ZombiePreventiveRelist,
			ResurrectedAt:         &now,
			OldItemID:             oldItemID,
			NewItemID:             res.NewItemID,
			CycleNumber:           0,
		}
		if err := sess.Zombies().Create(ctx, rec); err != nil {
			return nil, fmt.Errorf("create relist record: %w", err)
		}

		report.Relisted++
		report.Details = append(report.Details, RelistDetail{
			ListingID: l.ID,
			SKU:       l.SKU,
			OldItemID: oldItemID,
			NewItemID: res.NewItemID,
		})
	}

	logger.Info("auto relist",
		"scanned", report.TotalScanned, "relisted", report.Relisted,
		"skipped", report.Skipped, "errors", report.Errors)
	return report, nil
}
