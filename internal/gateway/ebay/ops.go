package ebay

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/flipflow/flipflow/internal/gateway"
)

// CreateInventoryItem pushes a new inventory item keyed by SKU.
func (c *Client) CreateInventoryItem(ctx context.Context, sku string, item gateway.InventoryItem) error {
	path := "/sell/inventory/v1/inventory_item/" + url.PathEscape(sku)
	return c.call(ctx, "create_inventory_item", http.MethodPut, path, toWireInventoryItem(item), nil)
}

// GetInventoryItem fetches one inventory item by SKU.
func (c *Client) GetInventoryItem(ctx context.Context, sku string) (*gateway.InventoryItem, error) {
	var w wireInventoryItem
	path := "/sell/inventory/v1/inventory_item/" + url.PathEscape(sku)
	if err := c.call(ctx, "get_inventory_item", http.MethodGet, path, nil, &w); err != nil {
		return nil, err
	}
	return fromWireInventoryItem(sku, w), nil
}

// UpdateInventoryItem replaces the inventory item for SKU.
func (c *Client) UpdateInventoryItem(ctx context.Context, sku string, item gateway.InventoryItem) error {
	path := "/sell/inventory/v1/inventory_item/" + url.PathEscape(sku)
	return c.call(ctx, "update_inventory_item", http.MethodPut, path, toWireInventoryItem(item), nil)
}

// DeleteInventoryItem removes the inventory item for SKU.
func (c *Client) DeleteInventoryItem(ctx context.Context, sku string) error {
	path := "/sell/inventory/v1/inventory_item/" + url.PathEscape(sku)
	return c.call(ctx, "delete_inventory_item", http.MethodDelete, path, nil, nil)
}

// BulkUpdatePriceQuantity pushes price/quantity/handling updates in one
// call. Per-SKU failures land in the result, not the error.
func (c *Client) BulkUpdatePriceQuantity(ctx context.Context, updates []gateway.PriceQuantityUpdate) (*gateway.BulkResult, error) {
	req := wireBulkRequest{Requests: make([]wireBulkEntry, 0, len(updates))}
	for _, u := range updates {
		entry := wireBulkEntry{
			SKU:          u.SKU,
			Quantity:     u.Quantity,
			HandlingDays: u.HandlingDays,
		}
		if u.Price != nil {
			a := newAmount(*u.Price)
			entry.Price = &a
		}
		req.Requests = append(req.Requests, entry)
	}

	var resp wireBulkResponse
	err := c.call(ctx, "bulk_update_price_quantity", http.MethodPost,
		"/sell/inventory/v1/bulk_update_price_quantity", req, &resp)
	if err != nil {
		return nil, err
	}

	result := &gateway.BulkResult{}
	for _, r := range resp.Responses {
		if r.StatusCode >= 200 && r.StatusCode < 300 {
			result.Succeeded = append(result.Succeeded, r.SKU)
		} else {
			result.Failed = append(result.Failed, gateway.BulkFailure{
				SKU:     r.SKU,
				Message: r.Errors.message(),
			})
		}
	}
	return result, nil
}

// CreateOffer creates an unpublished fixed-price offer for a SKU.
func (c *Client) CreateOffer(ctx context.Context, req gateway.OfferRequest) (*gateway.Offer, error) {
	policyID := req.FulfillmentPolicyID
	if policyID == "" {
		policyID = c.fulfillmentPolicyID
	}
	body := wireOfferRequest{
		SKU:                req.SKU,
		MarketplaceID:      req.MarketplaceID,
		Format:             "FIXED_PRICE",
		AvailableQuantity:  req.Quantity,
		CategoryID:         req.CategoryID,
		ListingDescription: req.Description,
		PricingSummary:     wirePricingSummary{Price: newAmount(req.Price)},
		ListingPolicies:    wireListingPolicies{FulfillmentPolicyID: policyID},
	}

	var w wireOffer
	if err := c.call(ctx, "create_offer", http.MethodPost, "/sell/inventory/v1/offer", body, &w); err != nil {
		return nil, err
	}
	offer := fromWireOffer(w)
	if offer.SKU == "" {
		offer.SKU = req.SKU
	}
	if offer.Price.IsZero() {
		offer.Price = req.Price
	}
	return &offer, nil
}

// PublishOffer takes an offer live and returns the listing id.
func (c *Client) PublishOffer(ctx context.Context, offerID string) (*gateway.PublishResult, error) {
	var resp struct {
		ListingID string `json:"listingId"`
	}
	path := "/sell/inventory/v1/offer/" + url.PathEscape(offerID) + "/publish"
	if err := c.call(ctx, "publish_offer", http.MethodPost, path, nil, &resp); err != nil {
		return nil, err
	}
	return &gateway.PublishResult{ListingID: resp.ListingID}, nil
}

// WithdrawOffer ends the live listing behind an offer.
func (c *Client) WithdrawOffer(ctx context.Context, offerID string) error {
	path := "/sell/inventory/v1/offer/" + url.PathEscape(offerID) + "/withdraw"
	return c.call(ctx, "withdraw_offer", http.MethodPost, path, nil, nil)
}

// GetOffer fetches one offer by id.
func (c *Client) GetOffer(ctx context.Context, offerID string) (*gateway.Offer, error) {
	var w wireOffer
	path := "/sell/inventory/v1/offer/" + url.PathEscape(offerID)
	if err := c.call(ctx, "get_offer", http.MethodGet, path, nil, &w); err != nil {
		return nil, err
	}
	offer := fromWireOffer(w)
	return &offer, nil
}

// GetOffersBySKU lists the offers attached to a SKU.
func (c *Client) GetOffersBySKU(ctx context.Context, sku string) ([]gateway.Offer, error) {
	var resp struct {
		Offers []wireOffer `json:"offers"`
	}
	path := "/sell/inventory/v1/offer?sku=" + url.QueryEscape(sku)
	if err := c.call(ctx, "get_offers_by_sku", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	offers := make([]gateway.Offer, 0, len(resp.Offers))
	for _, w := range resp.Offers {
		offers = append(offers, fromWireOffer(w))
	}
	return offers, nil
}

// GetTrafficReport fetches per-listing view metrics for a date range
// like "LAST_30_DAYS".
func (c *Client) GetTrafficReport(ctx context.Context, listingIDs []string, dateRange string) (*gateway.TrafficReport, error) {
	filter := fmt.Sprintf("listing_ids:{%s},date_range:%s", strings.Join(listingIDs, "|"), dateRange)
	path := "/sell/analytics/v1/traffic_report?dimension=LISTING&filter=" + url.QueryEscape(filter)

	var w wireTrafficReport
	if err := c.call(ctx, "get_traffic_report", http.MethodGet, path, nil, &w); err != nil {
		return nil, err
	}

	report := &gateway.TrafficReport{
		DateRange: w.DateRange,
		Listings:  make(map[string]gateway.TrafficMetrics, len(w.Records)),
	}
	for _, r := range w.Records {
		report.Listings[r.ListingID] = gateway.TrafficMetrics{
			Views:       r.Views,
			Impressions: r.Impressions,
			Clicks:      r.Clicks,
		}
	}
	return report, nil
}

// CreateCampaign starts a cost-per-sale promoted-listings campaign.
func (c *Client) CreateCampaign(ctx context.Context, req gateway.CampaignRequest) (*gateway.CampaignInfo, error) {
	body := wireCampaignRequest{
		CampaignName:  req.Name,
		MarketplaceID: c.marketplaceID,
		FundingStrategy: wireFundingStrategy{
			BidPercentage: req.AdRatePercent.StringFixed(1),
			FundingModel:  "COST_PER_SALE",
		},
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		ListingIDs: req.ListingIDs,
	}

	var w wireCampaign
	if err := c.call(ctx, "create_campaign", http.MethodPost, "/sell/marketing/v1/ad_campaign", body, &w); err != nil {
		return nil, err
	}
	info := fromWireCampaign(w)
	if info.AdRatePercent.IsZero() {
		info.AdRatePercent = req.AdRatePercent
	}
	return info, nil
}

// EndCampaign stops a running campaign.
func (c *Client) EndCampaign(ctx context.Context, campaignID string) error {
	path := "/sell/marketing/v1/ad_campaign/" + url.PathEscape(campaignID) + "/end"
	return c.call(ctx, "end_campaign", http.MethodPost, path, nil, nil)
}

// GetCampaign fetches one campaign by id.
func (c *Client) GetCampaign(ctx context.Context, campaignID string) (*gateway.CampaignInfo, error) {
	var w wireCampaign
	path := "/sell/marketing/v1/ad_campaign/" + url.PathEscape(campaignID)
	if err := c.call(ctx, "get_campaign", http.MethodGet, path, nil, &w); err != nil {
		return nil, err
	}
	return fromWireCampaign(w), nil
}

// SearchItems runs a browse search, used for sell-through estimates.
func (c *Client) SearchItems(ctx context.Context, query string, limit int) (*gateway.SearchResult, error) {
	path := fmt.Sprintf("/buy/browse/v1/item_summary/search?q=%s&limit=%d", url.QueryEscape(query), limit)

	var w wireSearchResult
	if err := c.call(ctx, "search_items", http.MethodGet, path, nil, &w); err != nil {
		return nil, err
	}

	result := &gateway.SearchResult{Total: w.Total}
	for _, item := range w.ItemSummaries {
		result.Items = append(result.Items, gateway.SearchItem{
			ItemID: item.ItemID,
			Title:  item.Title,
			Price:  item.Price.decimal(),
		})
	}
	return result, nil
}

// SendOfferToBuyer sends a private discount offer to one watcher.
func (c *Client) SendOfferToBuyer(ctx context.Context, listingID, buyerID string, offer gateway.BuyerOffer) error {
	body := wireBuyerOffer{
		AllowCounterOffer: false,
		Message:           offer.Message,
		OfferedItems: []wireOfferedItem{{
			ListingID: listingID,
			Quantity:  1,
			Price:     amount{Value: offer.Price.StringFixed(2), Currency: offer.Currency},
		}},
		BuyerIDs: []string{buyerID},
	}
	return c.call(ctx, "send_offer_to_buyer", http.MethodPost,
		"/sell/negotiation/v1/send_offer_to_interested_buyers", body, nil)
}

// GetWatchers lists the buyers watching a listing.
func (c *Client) GetWatchers(ctx context.Context, listingID string) ([]gateway.Watcher, error) {
	var w wireWatchers
	path := "/sell/negotiation/v1/item/" + url.PathEscape(listingID) + "/interested_buyers"
	if err := c.call(ctx, "get_watchers", http.MethodGet, path, nil, &w); err != nil {
		return nil, err
	}
	watchers := make([]gateway.Watcher, 0, len(w.Buyers))
	for _, b := range w.Buyers {
		watchers = append(watchers, gateway.Watcher{BuyerID: b.BuyerID, WatchedAt: b.WatchedAt})
	}
	return watchers, nil
}

// RespondToOffer answers an inbound buyer offer with accept, counter,
// or reject. counterAmount is required for counters.
func (c *Client) RespondToOffer(ctx context.Context, listingID, offerID string, action gateway.OfferAction, counterAmount *decimal.Decimal) (*gateway.RespondResult, error) {
	body := wireOfferResponse{Action: strings.ToUpper(string(action))}
	if action == gateway.ActionCounter {
		if counterAmount == nil {
			return nil, gateway.NewError(gateway.KindAPI, "respond_to_offer", "counter requires an amount")
		}
		a := newAmount(*counterAmount)
		body.CounterPrice = &a
	}

	var w wireRespondResult
	path := "/sell/negotiation/v1/offer/" + url.PathEscape(offerID) + "/respond"
	if err := c.call(ctx, "respond_to_offer", http.MethodPost, path, body, &w); err != nil {
		return nil, err
	}
	return &gateway.RespondResult{
		OfferID: w.OfferID,
		Action:  action,
		Status:  w.Status,
	}, nil
}

// UpdateHandlingTime changes the handling window on a fulfillment
// policy, which applies store-wide.
func (c *Client) UpdateHandlingTime(ctx context.Context, policyID string, handlingDays int) error {
	body := wireHandlingUpdate{HandlingTime: wireHandlingTime{Value: handlingDays, Unit: "DAY"}}
	path := "/sell/account/v1/fulfillment_policy/" + url.PathEscape(policyID)
	return c.call(ctx, "update_handling_time", http.MethodPut, path, body, nil)
}
