package policy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flipflow/flipflow/internal/config"
	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/gateway"
	"github.com/flipflow/flipflow/internal/pkg/logger"
	"github.com/flipflow/flipflow/internal/store"
)

// ResurrectionResult reports one resurrection attempt.
type ResurrectionResult struct {
	ListingID     int64      `json:"listing_id"`
	SKU           string     `json:"sku"`
	OldItemID     *string    `json:"old_item_id"`
	NewItemID     *string    `json:"new_item_id"`
	NewOfferID    *string    `json:"new_offer_id"`
	CycleNumber   int        `json:"cycle_number"`
	Success       bool       `json:"success"`
	Error         string     `json:"error,omitempty"`
	ResurrectedAt *time.Time `json:"resurrected_at,omitempty"`
}

// Resurrector ends a stale listing and republishes it under a fresh item
// id: withdraw, cooldown, rotate photos, new inventory item under a
// resurrection SKU, create and publish a new offer.
type Resurrector struct {
	gw            gateway.Gateway
	cooldown      time.Duration
	marketplaceID string
	now           func() time.Time
}

// NewResurrector builds a resurrector. The cooldown gives the marketplace
// time to clear the old listing's active flag before the republish.
func NewResurrector(gw gateway.Gateway, cfg *config.Config) *Resurrector {
	return &Resurrector{
		gw:            gw,
		cooldown:      time.Duration(cfg.Zombie.ResurrectionDelaySeconds) * time.Second,
		marketplaceID: cfg.Ebay.MarketplaceID,
		now:           time.Now,
	}
}

// ResurrectionSKU derives the next-cycle SKU. Any existing _R<n> suffix is
// stripped first, so the cycle number never stacks.
func ResurrectionSKU(originalSKU string, cycle int) string {
	base := strings.SplitN(originalSKU, "_R", 2)[0]
	return fmt.Sprintf("%s_R%d", base, cycle)
}

// Resurrect runs the full pipeline for one listing. Gateway failures stop
// the pipeline and report a failed result; nothing mutates locally until
// the new listing is live.
func (r *Resurrector) Resurrect(ctx context.Context, sess store.Session, listingID int64) (*ResurrectionResult, error) {
	l, err := sess.Listings().Get(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("get listing %d: %w", listingID, err)
	}

	oldItemID := l.EbayItemID
	oldOfferID := l.OfferID
	cycle := l.ZombieCycleCount + 1
	newSKU := ResurrectionSKU(l.SKU, cycle)
	logger.Info("resurrecting listing", "listing_id", l.ID, "sku", l.SKU, "cycle", cycle)

	fail := func(msg string, cause error) *ResurrectionResult {
		return &ResurrectionResult{
			ListingID:   l.ID,
			SKU:         l.SKU,
			OldItemID:   oldItemID,
			CycleNumber: cycle,
			Success:     false,
			Error:       fmt.Sprintf("%s: %v", msg, cause),
		}
	}

	// Withdraw strictly precedes the republish.
	if oldOfferID != nil {
		if err := r.gw.WithdrawOffer(ctx, *oldOfferID); err != nil {
			logger.Error("withdraw failed", "listing_id", l.ID, "error", err)
			return fail("withdraw offer", err), nil
		}
	}

	if r.cooldown > 0 {
		timer := time.NewTimer(r.cooldown)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}

	rotated := domain.RotatePhotos(l.PhotoURLs)

	item := gateway.InventoryItem{
		Title:       valueOr(l.TitleSanitized, l.Title),
		Description: valueOr(l.DescriptionMobile, l.Description),
		Brand:       valueOr(l.Brand, ""),
		Model:       valueOr(l.Model, ""),
		CategoryID:  valueOr(l.CategoryID, ""),
		ConditionID: l.ConditionID,
		Price:       l.ListPrice,
		Quantity:    1,
		PhotoURLs:   rotated,
	}
	if err := r.gw.CreateInventoryItem(ctx, newSKU, item); err != nil {
		logger.Error("inventory create failed", "listing_id", l.ID, "error", err)
		return fail("create inventory item", err), nil
	}

	offer, err := r.gw.CreateOffer(ctx, gateway.OfferRequest{
		SKU:           newSKU,
		MarketplaceID: r.marketplaceID,
		Price:         l.ListPrice,
		Quantity:      1,
		CategoryID:    valueOr(l.CategoryID, ""),
	})
	if err != nil {
		return fail("create offer", err), nil
	}
	pub, err := r.gw.PublishOffer(ctx, offer.OfferID)
	if err != nil {
		return fail("publish offer", err), nil
	}

	now := r.now().UTC()
	daysAtDetection := l.DaysActive
	viewsAtDetection := l.TotalViews
	l.SKU = newSKU
	l.EbayItemID = &pub.ListingID
	l.OfferID = &offer.OfferID
	if err := l.Transition(domain.ListingActive); err != nil {
		return nil, fmt.Errorf("reactivate listing %d: %w", l.ID, err)
	}
	l.ZombieCycleCount = cycle
	l.DaysActive = 0
	l.TotalViews = 0
	l.Watchers = 0
	l.PhotoURLs = rotated
	l.MainPhotoIndex = 0
	l.ListedAt = &now
	if err := sess.Listings().Update(ctx, l); err != nil {
		return nil, fmt.Errorf("update listing %d: %w", l.ID, err)
	}

	rec := &domain.ZombieRecord{
		ListingID:             l.ID,
		DetectedAt:            now,
		DaysActiveAtDetection: daysAtDetection,
		ViewsAtDetection:      viewsAtDetection,
		ActionTaken:           domain.ZombieResurrected,
		ResurrectedAt:         &now,
		OldItemID:             oldItemID,
		NewItemID:             &pub.ListingID,
		CycleNumber:           cycle,
	}
	if err := sess.Zombies().Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create zombie record: %w", err)
	}

	return &ResurrectionResult{
		ListingID:     l.ID,
		SKU:           newSKU,
		OldItemID:     oldItemID,
		NewItemID:     &pub.ListingID,
		NewOfferID:    &offer.OfferID,
		CycleNumber:   cycle,
		Success:       true,
		ResurrectedAt: &now,
	}, nil
}

func valueOr(p *string, fallback string) string {
	if p != nil && *p != "" {
		return *p
	}
	return fallback
}
