// Package gateway defines the marketplace contract: the sole seam between
// the engine and any concrete eBay client. Policies and gatekeepers depend
// on the Gateway interface, never on a transport.
package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// Gateway is the full marketplace capability set. Every operation returns a
// decoded payload or a *Error classified by Kind.
//
// Implementations: ebay.Client (sandbox/production) and mock.Gateway
// (offline mode and tests).
type Gateway interface {
	// Inventory.
	CreateInventoryItem(ctx context.Context, sku string, item InventoryItem) error
	GetInventoryItem(ctx context.Context, sku string) (*InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, sku string, item InventoryItem) error
	DeleteInventoryItem(ctx context.Context, sku string) error
	BulkUpdatePriceQuantity(ctx context.Context, updates []PriceQuantityUpdate) (*BulkResult, error)

	// Offers.
	CreateOffer(ctx context.Context, req OfferRequest) (*Offer, error)
	PublishOffer(ctx context.Context, offerID string) (*PublishResult, error)
	WithdrawOffer(ctx context.Context, offerID string) error
	GetOffer(ctx context.Context, offerID string) (*Offer, error)
	GetOffersBySKU(ctx context.Context, sku string) ([]Offer, error)

	// Analytics.
	GetTrafficReport(ctx context.Context, listingIDs []string, dateRange string) (*TrafficReport, error)

	// Marketing.
	CreateCampaign(ctx context.Context, req CampaignRequest) (*CampaignInfo, error)
	EndCampaign(ctx context.Context, campaignID string) error
	GetCampaign(ctx context.Context, campaignID string) (*CampaignInfo, error)

	// Browse.
	SearchItems(ctx context.Context, query string, limit int) (*SearchResult, error)

	// Buyer engagement.
	SendOfferToBuyer(ctx context.Context, listingID, buyerID string, offer BuyerOffer) error
	GetWatchers(ctx context.Context, listingID string) ([]Watcher, error)

	// Negotiation.
	RespondToOffer(ctx context.Context, listingID, offerID string, action OfferAction, counterAmount *decimal.Decimal) (*RespondResult, error)

	// Account.
	UpdateHandlingTime(ctx context.Context, policyID string, handlingDays int) error
}
