package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// QueueEntry is a SmartQueue slot: a listing waiting to be released during
// the next surge window. A listing with a pending entry must itself be in
// queued status.
type QueueEntry struct {
	ID              int64       `json:"id"`
	ListingID       int64       `json:"listing_id"`
	Priority        int         `json:"priority"`
	ScheduledWindow string      `json:"scheduled_window"`
	ScheduledAt     *time.Time  `json:"scheduled_at"`
	ReleasedAt      *time.Time  `json:"released_at"`
	Status          QueueStatus `json:"status"`
	ErrorMessage    *string     `json:"error_message"`
	BatchID         *string     `json:"batch_id"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// ZombieRecord is an append-only audit row for zombie detection,
// resurrection, purgatory demotion, and preventive relists.
type ZombieRecord struct {
	ID                    int64        `json:"id"`
	ListingID             int64        `json:"listing_id"`
	DetectedAt            time.Time    `json:"detected_at"`
	DaysActiveAtDetection int          `json:"days_active_at_detection"`
	ViewsAtDetection      int          `json:"views_at_detection"`
	ActionTaken           ZombieAction `json:"action_taken"`
	ResurrectedAt         *time.Time   `json:"resurrected_at"`
	OldItemID             *string      `json:"old_item_id"`
	NewItemID             *string      `json:"new_item_id"`
	CycleNumber           int          `json:"cycle_number"`
	CreatedAt             time.Time    `json:"created_at"`
}

// OfferRecord is the append-only per-(listing, buyer) offer history. It is
// the source of truth for the outbound cooldown; the listing's
// LastOfferSentAt is informational only.
type OfferRecord struct {
	ID              int64           `json:"id"`
	ListingID       int64           `json:"listing_id"`
	BuyerID         string          `json:"buyer_id"`
	OfferPrice      decimal.Decimal `json:"offer_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	SentAt          time.Time       `json:"sent_at"`
	Status          OfferStatus     `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Campaign tracks a promoted-listings campaign. At most one active campaign
// may exist per listing.
type Campaign struct {
	ID             int64           `json:"id"`
	ListingID      int64           `json:"listing_id"`
	EbayCampaignID *string         `json:"ebay_campaign_id"`
	CampaignType   CampaignType    `json:"campaign_type"`
	AdRatePercent  decimal.Decimal `json:"ad_rate_percent"`
	StartedAt      time.Time       `json:"started_at"`
	EndsAt         time.Time       `json:"ends_at"`
	Status         CampaignStatus  `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ProfitRecord is the historical per-sale fee breakdown. Policies never read
// these rows; they exist for reporting.
type ProfitRecord struct {
	ID                  int64           `json:"id"`
	ListingID           int64           `json:"listing_id"`
	SalePrice           decimal.Decimal `json:"sale_price"`
	PurchasePrice       decimal.Decimal `json:"purchase_price"`
	ShippingCost        decimal.Decimal `json:"shipping_cost"`
	EbayFeePercent      decimal.Decimal `json:"ebay_fee_percent"`
	AdFeePercent        decimal.Decimal `json:"ad_fee_percent"`
	EbayFeeAmount       decimal.Decimal `json:"ebay_fee_amount"`
	AdFeeAmount         decimal.Decimal `json:"ad_fee_amount"`
	NetProfit           decimal.Decimal `json:"net_profit"`
	ProfitMarginPercent decimal.Decimal `json:"profit_margin_percent"`
	MeetsFloor          bool            `json:"meets_floor"`
	CreatedAt           time.Time       `json:"created_at"`
}

// ListingSnapshot is one day of traffic/price time-series for a listing,
// written by the snapshot collector and read only by reporting.
type ListingSnapshot struct {
	ID               int64           `json:"id"`
	ListingID        int64           `json:"listing_id"`
	SnapshotDate     time.Time       `json:"snapshot_date"`
	Views            int             `json:"views"`
	Impressions      int             `json:"impressions"`
	Watchers         int             `json:"watchers"`
	PriceAtSnapshot  decimal.Decimal `json:"price_at_snapshot"`
	StatusAtSnapshot ListingStatus   `json:"status_at_snapshot"`
	CreatedAt        time.Time       `json:"created_at"`
}

// JobLog records one coordinator-driven policy run.
type JobLog struct {
	ID             int64      `json:"id"`
	JobName        string     `json:"job_name"`
	JobType        string     `json:"job_type"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at"`
	Status         JobStatus  `json:"status"`
	ItemsProcessed int        `json:"items_processed"`
	ItemsAffected  int        `json:"items_affected"`
	ErrorMessage   *string    `json:"error_message"`
	Details        *string    `json:"details"`
	CreatedAt      time.Time  `json:"created_at"`
}
