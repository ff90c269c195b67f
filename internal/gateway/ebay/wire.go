package ebay

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/flipflow/flipflow/internal/gateway"
)

// amount is the marketplace money shape.
type amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

func newAmount(d decimal.Decimal) amount {
	return amount{Value: d.StringFixed(2), Currency: "USD"}
}

func (a amount) decimal() decimal.Decimal {
	d, err := decimal.NewFromString(a.Value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

type wireProduct struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Brand       string   `json:"brand,omitempty"`
	MPN         string   `json:"mpn,omitempty"`
	ImageURLs   []string `json:"imageUrls,omitempty"`
}

type wireShipAvailability struct {
	Quantity int `json:"quantity"`
}

type wireAvailability struct {
	ShipToLocationAvailability wireShipAvailability `json:"shipToLocationAvailability"`
}

// wireInventoryItem is the sell-inventory item payload. Price lives on
// the offer, not the item.
type wireInventoryItem struct {
	Product      wireProduct      `json:"product"`
	Condition    string           `json:"condition"`
	Availability wireAvailability `json:"availability"`
}

func toWireInventoryItem(item gateway.InventoryItem) wireInventoryItem {
	return wireInventoryItem{
		Product: wireProduct{
			Title:       item.Title,
			Description: item.Description,
			Brand:       item.Brand,
			MPN:         item.Model,
			ImageURLs:   item.PhotoURLs,
		},
		Condition: item.ConditionID,
		Availability: wireAvailability{
			ShipToLocationAvailability: wireShipAvailability{Quantity: item.Quantity},
		},
	}
}

func fromWireInventoryItem(sku string, w wireInventoryItem) *gateway.InventoryItem {
	return &gateway.InventoryItem{
		SKU:         sku,
		Title:       w.Product.Title,
		Description: w.Product.Description,
		Brand:       w.Product.Brand,
		Model:       w.Product.MPN,
		ConditionID: w.Condition,
		Quantity:    w.Availability.ShipToLocationAvailability.Quantity,
		PhotoURLs:   w.Product.ImageURLs,
	}
}

type wireBulkEntry struct {
	SKU          string  `json:"sku"`
	Price        *amount `json:"price,omitempty"`
	Quantity     *int    `json:"quantity,omitempty"`
	HandlingDays *int    `json:"handlingDays,omitempty"`
}

type wireBulkRequest struct {
	Requests []wireBulkEntry `json:"requests"`
}

type wireBulkResponse struct {
	Responses []struct {
		SKU        string   `json:"sku"`
		StatusCode int      `json:"statusCode"`
		Errors     apiError `json:"errors,omitempty"`
	} `json:"responses"`
}

type wirePricingSummary struct {
	Price amount `json:"price"`
}

type wireListingPolicies struct {
	FulfillmentPolicyID string `json:"fulfillmentPolicyId,omitempty"`
}

type wireOfferRequest struct {
	SKU                string              `json:"sku"`
	MarketplaceID      string              `json:"marketplaceId"`
	Format             string              `json:"format"`
	AvailableQuantity  int                 `json:"availableQuantity"`
	CategoryID         string              `json:"categoryId,omitempty"`
	ListingDescription string              `json:"listingDescription,omitempty"`
	PricingSummary     wirePricingSummary  `json:"pricingSummary"`
	ListingPolicies    wireListingPolicies `json:"listingPolicies"`
}

type wireOffer struct {
	OfferID           string             `json:"offerId"`
	SKU               string             `json:"sku"`
	Status            string             `json:"status"`
	ListingID         string             `json:"listingId,omitempty"`
	AvailableQuantity int                `json:"availableQuantity"`
	PricingSummary    wirePricingSummary `json:"pricingSummary"`
}

func fromWireOffer(w wireOffer) gateway.Offer {
	return gateway.Offer{
		OfferID:   w.OfferID,
		SKU:       w.SKU,
		Price:     w.PricingSummary.Price.decimal(),
		Quantity:  w.AvailableQuantity,
		ListingID: w.ListingID,
		Published: w.Status == "PUBLISHED",
	}
}

type wireTrafficReport struct {
	DateRange string `json:"dateRange"`
	Records   []struct {
		ListingID   string `json:"listingId"`
		Views       int    `json:"views"`
		Impressions int    `json:"impressions"`
		Clicks      int    `json:"clicks"`
	} `json:"records"`
}

type wireFundingStrategy struct {
	BidPercentage string `json:"bidPercentage"`
	FundingModel  string `json:"fundingModel"`
}

type wireCampaignRequest struct {
	CampaignName    string              `json:"campaignName"`
	MarketplaceID   string              `json:"marketplaceId"`
	FundingStrategy wireFundingStrategy `json:"fundingStrategy"`
	StartDate       time.Time           `json:"startDate"`
	EndDate         time.Time           `json:"endDate"`
	ListingIDs      []string            `json:"listingIds"`
}

type wireCampaign struct {
	CampaignID      string              `json:"campaignId"`
	CampaignName    string              `json:"campaignName"`
	CampaignStatus  string              `json:"campaignStatus"`
	FundingStrategy wireFundingStrategy `json:"fundingStrategy"`
	StartDate       time.Time           `json:"startDate"`
	EndDate         time.Time           `json:"endDate"`
}

func fromWireCampaign(w wireCampaign) *gateway.CampaignInfo {
	rate, err := decimal.NewFromString(w.FundingStrategy.BidPercentage)
	if err != nil {
		rate = decimal.Zero
	}
	return &gateway.CampaignInfo{
		CampaignID:    w.CampaignID,
		Name:          w.CampaignName,
		Status:        w.CampaignStatus,
		AdRatePercent: rate,
		StartDate:     w.StartDate,
		EndDate:       w.EndDate,
	}
}

type wireSearchResult struct {
	Total         int `json:"total"`
	ItemSummaries []struct {
		ItemID string `json:"itemId"`
		Title  string `json:"title"`
		Price  amount `json:"price"`
	} `json:"itemSummaries"`
}

type wireOfferedItem struct {
	ListingID string `json:"listingId"`
	Quantity  int    `json:"quantity"`
	Price     amount `json:"price"`
}

type wireBuyerOffer struct {
	AllowCounterOffer bool              `json:"allowCounterOffer"`
	Message           string            `json:"message,omitempty"`
	OfferedItems      []wireOfferedItem `json:"offeredItems"`
	BuyerIDs          []string          `json:"buyerIds"`
}

type wireWatchers struct {
	Buyers []struct {
		BuyerID   string    `json:"buyerId"`
		WatchedAt time.Time `json:"watchedAt"`
	} `json:"buyers"`
}

type wireOfferResponse struct {
	Action       string  `json:"action"`
	CounterPrice *amount `json:"counterPrice,omitempty"`
}

type wireRespondResult struct {
	OfferID string `json:"offerId"`
	Action  string `json:"action"`
	Status  string `json:"status"`
}

type wireHandlingTime struct {
	Value int    `json:"value"`
	Unit  string `json:"unit"`
}

type wireHandlingUpdate struct {
	HandlingTime wireHandlingTime `json:"handlingTime"`
}
