package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidTransition is returned when a status change falls outside the
// listing lifecycle DAG.
var ErrInvalidTransition = errors.New("invalid status transition")

// Listing is the central entity: one item for sale, tracked from draft
// through release, decay, resurrection, and final sale or liquidation.
type Listing struct {
	ID         int64   `json:"id"`
	SKU        string  `json:"sku"`
	EbayItemID *string `json:"ebay_item_id"`

	Title             string  `json:"title"`
	TitleSanitized    *string `json:"title_sanitized"`
	Description       string  `json:"description"`
	DescriptionMobile *string `json:"description_mobile"`
	Brand             *string `json:"brand"`
	Model             *string `json:"model"`
	CategoryID        *string `json:"category_id"`
	ConditionID       string  `json:"condition_id"`

	PurchasePrice decimal.Decimal  `json:"purchase_price"`
	ListPrice     decimal.Decimal  `json:"list_price"`
	CurrentPrice  *decimal.Decimal `json:"current_price"`
	ShippingCost  decimal.Decimal  `json:"shipping_cost"`
	AdRatePercent decimal.Decimal  `json:"ad_rate_percent"`

	Status           ListingStatus `json:"status"`
	ListedAt         *time.Time    `json:"listed_at"`
	DaysActive       int           `json:"days_active"`
	TotalViews       int           `json:"total_views"`
	Watchers         int           `json:"watchers"`
	ZombieCycleCount int           `json:"zombie_cycle_count"`

	SellThroughRate *decimal.Decimal `json:"sell_through_rate"`
	STRDataSource   *string          `json:"str_data_source"`

	PhotoURLs      []string `json:"photo_urls"`
	MainPhotoIndex int      `json:"main_photo_index"`

	OfferID            *string    `json:"offer_id"`
	LastOfferSentAt    *time.Time `json:"last_offer_sent_at"`
	LastRepricedAt     *time.Time `json:"last_repriced_at"`
	EnteredPurgatoryAt *time.Time `json:"entered_purgatory_at"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

// EffectivePrice returns the price a buyer currently sees: current_price
// when a markdown has been applied, list_price otherwise.
func (l *Listing) EffectivePrice() decimal.Decimal {
	if l.CurrentPrice != nil {
		return *l.CurrentPrice
	}
	return l.ListPrice
}

// SetCurrentPrice replaces the current price.
func (l *Listing) SetCurrentPrice(p decimal.Decimal) {
	l.CurrentPrice = &p
}

// RotatePhotos swaps the first two photo URLs, making the second photo the
// main image. It is a no-op for listings with fewer than two photos, and is
// its own inverse.
func RotatePhotos(urls []string) []string {
	rotated := make([]string, len(urls))
	copy(rotated, urls)
	if len(rotated) >= 2 {
		rotated[0], rotated[1] = rotated[1], rotated[0]
	}
	return rotated
}
