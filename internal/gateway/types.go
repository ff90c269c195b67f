package gateway

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem is the marketplace-side representation of a listing's
// product data, keyed by SKU.
type InventoryItem struct {
	SKU         string          `json:"sku"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Brand       string          `json:"brand,omitempty"`
	Model       string          `json:"model,omitempty"`
	CategoryID  string          `json:"category_id,omitempty"`
	ConditionID string          `json:"condition_id"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	PhotoURLs   []string        `json:"photo_urls,omitempty"`
}

// PriceQuantityUpdate is one entry of a bulk price/quantity push. Nil fields
// are left unchanged on the marketplace side.
type PriceQuantityUpdate struct {
	SKU          string           `json:"sku"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	Quantity     *int             `json:"quantity,omitempty"`
	HandlingDays *int             `json:"handling_days,omitempty"`
}

// BulkFailure reports one SKU that a bulk update could not apply.
type BulkFailure struct {
	SKU     string `json:"sku"`
	Message string `json:"message"`
}

// BulkResult summarizes a bulk price/quantity push. A partially failed push
// is not a gateway error; callers inspect Failed.
type BulkResult struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// OfferRequest creates a marketplace offer (the publishable wrapper around
// an inventory item).
type OfferRequest struct {
	SKU                 string          `json:"sku"`
	MarketplaceID       string          `json:"marketplace_id"`
	Price               decimal.Decimal `json:"price"`
	Quantity            int             `json:"quantity"`
	CategoryID          string          `json:"category_id,omitempty"`
	FulfillmentPolicyID string          `json:"fulfillment_policy_id,omitempty"`
	Description         string          `json:"description,omitempty"`
}

// Offer is a marketplace offer as the gateway reports it.
type Offer struct {
	OfferID   string          `json:"offer_id"`
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ListingID string          `json:"listing_id,omitempty"`
	Published bool            `json:"published"`
}

// PublishResult carries the live listing id a publish produced.
type PublishResult struct {
	ListingID string `json:"listing_id"`
}

// TrafficMetrics is one listing's slice of a traffic report.
type TrafficMetrics struct {
	Views       int `json:"views"`
	Impressions int `json:"impressions"`
	Clicks      int `json:"clicks"`
}

// TrafficReport maps listing id to its metrics for the requested range.
type TrafficReport struct {
	DateRange string                    `json:"date_range"`
	Listings  map[string]TrafficMetrics `json:"listings"`
}

// CampaignRequest creates a promoted-listings campaign.
type CampaignRequest struct {
	Name          string          `json:"name"`
	AdRatePercent decimal.Decimal `json:"ad_rate_percent"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	ListingIDs    []string        `json:"listing_ids"`
}

// CampaignInfo is a promoted-listings campaign as the gateway reports it.
type CampaignInfo struct {
	CampaignID    string          `json:"campaign_id"`
	Name          string          `json:"name"`
	Status        string          `json:"status"`
	AdRatePercent decimal.Decimal `json:"ad_rate_percent"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
}

// SearchItem is one result of a marketplace search.
type SearchItem struct {
	ItemID string          `json:"item_id"`
	Title  string          `json:"title"`
	Price  decimal.Decimal `json:"price"`
}

// SearchResult is a page of marketplace search results.
type SearchResult struct {
	Total int          `json:"total"`
	Items []SearchItem `json:"items"`
}

// BuyerOffer is an outbound offer to a specific watcher.
type BuyerOffer struct {
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Message  string          `json:"message,omitempty"`
}

// Watcher is a buyer watching a listing.
type Watcher struct {
	BuyerID   string    `json:"buyer_id"`
	WatchedAt time.Time `json:"watched_at"`
}

// OfferAction is the response to an inbound buyer offer.
type OfferAction string

const (
	ActionAccept  OfferAction = "accept"
	ActionCounter OfferAction = "counter"
	ActionReject  OfferAction = "reject"
)

// RespondResult reports the marketplace's acknowledgement of an inbound
// offer response.
type RespondResult struct {
	OfferID string      `json:"offer_id"`
	Action  OfferAction `json:"action"`
	Status  string      `json:"status"`
}
