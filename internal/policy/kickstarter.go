package policy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flipflow/flipflow/internal/config"
	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/gateway"
	"github.com/flipflow/flipflow/internal/pkg/logger"
	"github.com/flipflow/flipflow/internal/store"
)

// ErrCampaignExists is returned when a listing already has an active
// promoted-listings campaign.
var ErrCampaignExists = errors.New("active campaign already exists")

// ErrListingNotActive is returned when a promotion targets a listing that
// is not live.
var ErrListingNotActive = errors.New("listing is not active")

// PromotionResult reports one created kickstarter campaign.
type PromotionResult struct {
	CampaignID     int64     `json:"campaign_id"`
	EbayCampaignID string    `json:"ebay_campaign_id"`
	AdRatePercent  float64   `json:"ad_rate_percent"`
	DurationDays   int       `json:"duration_days"`
	EndsAt         time.Time `json:"ends_at"`
}

// CleanupReport summarizes one expired-campaign sweep.
type CleanupReport struct {
	ExpiredFound int `json:"expired_found"`
	Ended        int `json:"ended"`
	Errors       int `json:"errors"`
}

// Kickstarter buys sales history for new listings: a promoted-listings
// campaign at a low ad rate for a fixed window, ended automatically.
type Kickstarter struct {
	gw           gateway.Gateway
	adRate       decimal.Decimal
	durationDays int
	now          func() time.Time
}

// NewKickstarter builds the promoter.
func NewKickstarter(gw gateway.Gateway, cfg *config.Config) *Kickstarter {
	return &Kickstarter{
		gw:           gw,
		adRate:       decimal.NewFromFloat(cfg.Promo.AdRatePercent),
		durationDays: cfg.Promo.DurationDays,
		now:          time.Now,
	}
}

// Promote creates a campaign for a newly active listing. Refuses listings
// that are not active or already carry an active campaign.
func (k *Kickstarter) Promote(ctx context.Context, sess store.Session, listingID int64) (*PromotionResult, error) {
	l, err := sess.Listings().Get(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("get listing %d: %w", listingID, err)
	}
	if l.Status != domain.ListingActive {
		return nil, fmt.Errorf("%w: listing %d is %s", ErrListingNotActive, listingID, l.Status)
	}

	if _, err := sess.Campaigns().ActiveForListing(ctx, listingID); err == nil {
		return nil, fmt.Errorf("%w: listing %d", ErrCampaignExists, listingID)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check active campaign: %w", err)
	}

	now := k.now().UTC()
	endsAt := now.AddDate(0, 0, k.durationDays)

	var itemIDs []string
	if l.EbayItemID != nil {
		itemIDs = append(itemIDs, *l.EbayItemID)
	}
	info, err := k.gw.CreateCampaign(ctx, gateway.CampaignRequest{
		Name:          "Kickstart-" + l.SKU,
		AdRatePercent: k.adRate,
		StartDate:     now,
		EndDate:       endsAt,
		ListingIDs:    itemIDs,
	})
	if err != nil {
		logger.Error("campaign create failed", "listing_id", listingID, "error", err)
		return nil, fmt.Errorf("create campaign: %w", err)
	}

	c := &domain.Campaign{
		ListingID:      listingID,
		EbayCampaignID: &info.CampaignID,
		CampaignType:   domain.CampaignKickstarter,
		AdRatePercent:  k.adRate,
		StartedAt:      now,
		EndsAt:         endsAt,
		Status:         domain.CampaignActive,
	}
	if err := sess.Campaigns().Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create campaign row: %w", err)
	}

	l.AdRatePercent = k.adRate
	if err := sess.Listings().Update(ctx, l); err != nil {
		return nil, fmt.Errorf("update listing %d: %w", listingID, err)
	}

	logger.Info("kickstarter campaign created",
		"listing_id", listingID, "campaign_id", info.CampaignID,
		"ad_rate", k.adRate.String(), "ends_at", endsAt.Format(time.RFC3339))

	return &PromotionResult{
		CampaignID:     c.ID,
		EbayCampaignID: info.CampaignID,
		AdRatePercent:  k.adRate.InexactFloat64(),
		DurationDays:   k.durationDays,
		EndsAt:         endsAt,
	}, nil
}

// CleanupExpired ends every campaign past its end date and resets the
// listing's ad rate. Gateway failures are counted, not propagated.
func (k *Kickstarter) CleanupExpired(ctx context.Context, sess store.Session) (*CleanupReport, error) {
	now := k.now().UTC()
	expired, err := sess.Campaigns().ListExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list expired campaigns: %w", err)
	}

	report := &CleanupReport{ExpiredFound: len(expired)}
	for _, c := range expired {
		if c.EbayCampaignID != nil {
			if err := k.gw.EndCampaign(ctx, *c.EbayCampaignID); err != nil {
				report.Errors++
				logger.Error("end campaign failed", "campaign_id", *c.EbayCampaignID, "error", err)
				continue
			}
		}

		c.Status = domain.CampaignEnded
		if err := sess.Campaigns().Update(ctx, c); err != nil {
			return nil, fmt.Errorf("update campaign %d: %w", c.ID, err)
		}

		l, err := sess.Listings().Get(ctx, c.ListingID)
		if err == nil {
			l.AdRatePercent = decimal.Zero
			if err := sess.Listings().Update(ctx, l); err != nil {
				return nil, fmt.Errorf("reset ad rate for listing %d: %w", l.ID, err)
			}
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("get listing %d: %w", c.ListingID, err)
		}

		report.Ended++
	}

	logger.Info("kickstarter cleanup",
		"expired", report.ExpiredFound, "ended", report.Ended, "errors", report.Errors)
	return report, nil
}
