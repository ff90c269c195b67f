package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/flipflow/flipflow/internal/config"
	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/gateway"
	"github.com/flipflow/flipflow/internal/pkg/logger"
	"github.com/flipflow/flipflow/internal/store"
)

// ShuffleDetail is one listing whose photos were rotated.
type ShuffleDetail struct {
	ListingID    int64  `json:"listing_id"`
	SKU          string `json:"sku"`
	NewMainPhoto string `json:"new_main_photo"`
}

// ShuffleReport summarizes one photo-shuffle run.
type ShuffleReport struct {
	TotalScanned int             `json:"total_scanned"`
	Shuffled     int             `json:"shuffled"`
	Skipped      int             `json:"skipped"`
	Errors       int             `json:"errors"`
	Details      []ShuffleDetail `json:"details"`
}

// PhotoShuffler rotates the main photo on listings that have sat long
// enough with zero views. A stale thumbnail is the cheapest thing to
// change on a listing nobody clicks.
type PhotoShuffler struct {
	gw          gateway.Gateway
	daysNoViews int
	now         func() time.Time
}

// NewPhotoShuffler builds the shuffler.
func NewPhotoShuffler(gw gateway.Gateway, cfg *config.Config) *PhotoShuffler {
	return &PhotoShuffler{
		gw:          gw,
		daysNoViews: cfg.Growth.PhotoShuffleDaysNoViews,
		now:         time.Now,
	}
}

// ShouldShuffle reports whether a listing qualifies for a photo rotation.
// Listings with fewer than two photos never qualify; there is nothing to
// rotate to.
func (p *PhotoShuffler) ShouldShuffle(l *domain.Listing) bool {
	return l.Status == domain.ListingActive &&
		l.DaysActive >= p.daysNoViews &&
		l.TotalViews == 0 &&
		len(l.PhotoURLs) >= 2
}

// Run rotates photos on every qualifying active listing and pushes the new
// order to the marketplace. Single-photo listings are counted as skipped;
// per-listing gateway failures are counted, not propagated.
func (p *PhotoShuffler) Run(ctx context.Context, sess store.Session) (*ShuffleReport, error) {
	active, err := sess.Listings().ListByStatus(ctx, domain.ListingActive)
	if err != nil {
		return nil, fmt.Errorf("list active listings: %w", err)
	}

	report := &ShuffleReport{TotalScanned: len(active)}
	for _, l := range active {
		if l.DaysActive < p.daysNoViews || l.TotalViews != 0 {
			continue
		}
		if len(l.PhotoURLs) < 2 {
			report.Skipped++
			continue
		}

		rotated := domain.RotatePhotos(l.PhotoURLs)
		item := gateway.InventoryItem{
			Title:       valueOr(l.TitleSanitized, l.Title),
			Description: valueOr(l.DescriptionMobile, l.Description),
			Brand:       valueOr(l.Brand, ""),
			Model:       valueOr(l.Model, ""),
			CategoryID:  valueOr(l.CategoryID, ""),
			ConditionID: l.ConditionID,
			Price:       l.EffectivePrice(),
			Quantity:    1,
			PhotoURLs:   rotated,
		}
		if err := p.gw.UpdateInventoryItem(ctx, l.SKU, item); err != nil {
			report.Errors++
			logger.Error("photo shuffle push failed", "listing_id", l.ID, "error", err)
			continue
		}

		l.PhotoURLs = rotated
		if err := sess.Listings().Update(ctx, l); err != nil {
			return nil, fmt.Errorf("update listing %d: %w", l.ID, err)
		}

		report.Shuffled++
		report.Details = append(report.Details, ShuffleDetail{
			ListingID:    l.ID,
			SKU:          l.SKU,
			NewMainPhoto: rotated[0],
		})
	}

	logger.Info("photo shuffle",
		"scanned", report.TotalScanned, "shuffled", report.Shuffled,
		"skipped", report.Skipped, "errors", report.Errors)
	return report, nil
}
