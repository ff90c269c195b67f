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

// ZombieReport is one detected zombie listing.
type ZombieReport struct {
	ListingID        int64           `json:"listing_id"`
	SKU              string          `json:"sku"`
	Title            string          `json:"title"`
	EbayItemID       *string         `json:"ebay_item_id"`
	DaysActive       int             `json:"days_active"`
	TotalViews       int             `json:"total_views"`
	Watchers         int             `json:"watchers"`
	ZombieCycleCount int             `json:"zombie_cycle_count"`
	ShouldPurgatory  bool            `json:"should_purgatory"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
}

// ZombieScanResult summarizes one detection pass.
type ZombieScanResult struct {
	TotalScanned        int            `json:"total_scanned"`
	ZombiesFound        int            `json:"zombies_found"`
	PurgatoryCandidates int            `json:"purgatory_candidates"`
	Zombies             []ZombieReport `json:"zombies"`
}

// ZombieKiller detects listings that have gone stale in search: old enough
// and unseen enough that only a fresh item id will revive them. Detection
// and mutation are separate; Scan reports, FlagZombie acts.
type ZombieKiller struct {
	gw             gateway.Gateway
	daysThreshold  int
	viewsThreshold int
	maxCycles      int
	now            func() time.Time
}

// NewZombieKiller builds a detector from zombie thresholds.
func NewZombieKiller(gw gateway.Gateway, cfg *config.Config) *ZombieKiller {
	return &ZombieKiller{
		gw:             gw,
		daysThreshold:  cfg.Zombie.DaysThreshold,
		viewsThreshold: cfg.Zombie.ViewsThreshold,
		maxCycles:      cfg.Zombie.MaxCycles,
		now:            time.Now,
	}
}

// IsZombie applies the detection predicate. Equality on views is not a
// zombie; equality on days is.
func (z *ZombieKiller) IsZombie(daysActive, views int) bool {
	return daysActive >= z.daysThreshold && views < z.viewsThreshold
}

// Scan enumerates active listings, refreshes view counts from a batched
// traffic report, and reports zombies without mutating status.
func (z *ZombieKiller) Scan(ctx context.Context, sess store.Session) (*ZombieScanResult, error) {
	active, err := sess.Listings().ListByStatus(ctx, domain.ListingActive)
	if err != nil {
		return nil, fmt.Errorf("list active listings: %w", err)
	}
	if len(active) == 0 {
		return &ZombieScanResult{}, nil
	}

	var itemIDs []string
	for _, l := range active {
		if l.EbayItemID != nil {
			itemIDs = append(itemIDs, *l.EbayItemID)
		}
	}

	traffic := map[string]int{}
	if len(itemIDs) > 0 {
		report, err := z.gw.GetTrafficReport(ctx, itemIDs, "LAST_90_DAYS")
		if err != nil {
			return nil, fmt.Errorf("traffic report: %w", err)
		}
		for id, m := range report.Listings {
			traffic[id] = m.Views
		}
	}

	result := &ZombieScanResult{TotalScanned: len(active)}
	for _, l := range active {
		views := l.TotalViews
		if l.EbayItemID != nil {
			if v, ok := traffic[*l.EbayItemID]; ok {
				views = v
				if views != l.TotalViews {
					l.TotalViews = views
					if err := sess.Listings().Update(ctx, l); err != nil {
						return nil, fmt.Errorf("sync views for listing %d: %w", l.ID, err)
					}
				}
			}
		}

		if !z.IsZombie(l.DaysActive, views) {
			continue
		}

		shouldPurgatory := l.ZombieCycleCount >= z.maxCycles
		if shouldPurgatory {
			result.PurgatoryCandidates++
		}
		result.Zombies = append(result.Zombies, ZombieReport{
			ListingID:        l.ID,
			SKU:              l.SKU,
			Title:            l.Title,
			EbayItemID:       l.EbayItemID,
			DaysActive:       l.DaysActive,
			TotalViews:       views,
			Watchers:         l.Watchers,
			ZombieCycleCount: l.ZombieCycleCount,
			ShouldPurgatory:  shouldPurgatory,
			CurrentPrice:     l.EffectivePrice(),
		})
	}
	result.ZombiesFound = len(result.Zombies)

	logger.Info("zombie scan",
		"scanned", result.TotalScanned, "zombies", result.ZombiesFound,
		"purgatory_candidates", result.PurgatoryCandidates)
	return result, nil
}

// FlagZombie transitions a listing to zombie status (or straight to
// purgatory when it has exhausted its cycles) and appends a ZombieRecord.
func (z *ZombieKiller) FlagZombie(ctx context.Context, sess store.Session, listingID int64) (*domain.ZombieRecord, error) {
	l, err := sess.Listings().Get(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("get listing %d: %w", listingID, err)
	}

	if err := l.Transition(domain.ListingZombie); err != nil {
		return nil, fmt.Errorf("flag listing %d: %w", listingID, err)
	}
	action := domain.ZombieFlagged
	if l.ZombieCycleCount >= z.maxCycles {
		// Exhausted its cycles: demote straight through to purgatory.
		if err := l.Transition(domain.ListingPurgatory); err != nil {
			return nil, fmt.Errorf("flag listing %d: %w", listingID, err)
		}
		action = domain.ZombiePurgatored
		enteredAt := z.now().UTC()
		l.EnteredPurgatoryAt = &enteredAt
	}
	if err := sess.Listings().Update(ctx, l); err != nil {
		return nil, fmt.Errorf("update listing %d: %w", listingID, err)
	}

	rec := &domain.ZombieRecord{
		ListingID:             l.ID,
		DetectedAt:            z.now().UTC(),
		DaysActiveAtDetection: l.DaysActive,
		ViewsAtDetection:      l.TotalViews,
		ActionTaken:           action,
		CycleNumber:           l.ZombieCycleCount + 1,
	}
	if err := sess.Zombies().Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create zombie record: %w", err)
	}

	logger.Info("flagged zombie", "listing_id", l.ID, "sku", l.SKU, "action", string(action))
	return rec, nil
}
