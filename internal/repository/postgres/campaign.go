package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/store"
)

// CampaignRepo implements store.CampaignRepo.
type CampaignRepo struct{ q querier }

const campaignColumns = `
	id, listing_id, ebay_campaign_id, campaign_type, ad_rate_percent,
	started_at, ends_at, status, created_at, updated_at`

func scanCampaign(row rowScanner) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	var ebayID sql.NullString
	err := row.Scan(
		&c.ID, &c.ListingID, &ebayID, &c.CampaignType, &c.AdRatePercent,
		&c.StartedAt, &c.EndsAt, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.EbayCampaignID = strPtr(ebayID)
	return c, nil
}

func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO campaigns
			(listing_id, ebay_campaign_id, campaign_type, ad_rate_percent,
			 started_at, ends_at, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW())
		RETURNING id, created_at, updated_at
	`, c.ListingID, nullStr(c.EbayCampaignID), c.CampaignType,
		c.AdRatePercent, c.StartedAt, c.EndsAt, c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepo) ActiveForListing(ctx context.Context, listingID int64) (*domain.Campaign, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT`+campaignColumns+`
		FROM campaigns
		WHERE listing_id = $1 AND status = $2
		ORDER BY started_at DESC
		LIMIT 1
	`, listingID, domain.CampaignActive)
	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get active campaign: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) ListExpired(ctx context.Context, now time.Time) ([]*domain.Campaign, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT`+campaignColumns+`
		FROM campaigns
		WHERE status = $1 AND ends_at <= $2
		ORDER BY ends_at
	`, domain.CampaignActive, now)
	if err != nil {
		return nil, fmt.Errorf("list expired campaigns: %w", err)
	}
	defer rows.Close()

	var out []*domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CampaignRepo) Update(ctx context.Context, c *domain.Campaign) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE campaigns SET
			ebay_campaign_id = $2, campaign_type = $3, ad_rate_percent = $4,
			started_at = $5, ends_at = $6, status = $7, updated_at = NOW()
		WHERE id = $1
	`, c.ID, nullStr(c.EbayCampaignID), c.CampaignType, c.AdRatePercent,
		c.StartedAt, c.EndsAt, c.Status)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update campaign rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
