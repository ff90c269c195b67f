// Package mock provides a stateful in-memory Gateway for offline mode and
// tests. Operations have observable effects so tests can verify side effects
// (item created, offer withdrawn, photo swapped) instead of call counts.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flipflow/flipflow/internal/gateway"
)

// Gateway is the in-memory implementation of gateway.Gateway.
type Gateway struct {
	mu sync.Mutex

	inventory    map[string]gateway.InventoryItem // sku -> item
	offers       map[string]*gateway.Offer        // offer id -> offer
	campaigns    map[string]*gateway.CampaignInfo // campaign id -> campaign
	watchers     map[string][]gateway.Watcher     // listing id -> watchers
	traffic      map[string]gateway.TrafficMetrics
	sentToBuyers []SentOffer

	nextListingID int
	failures      map[string]error
}

// SentOffer records one outbound buyer offer for test inspection.
type SentOffer struct {
	ListingID string
	BuyerID   string
	Offer     gateway.BuyerOffer
}

// New returns an empty mock gateway.
func New() *Gateway {
	return &Gateway{
		inventory:     make(map[string]gateway.InventoryItem),
		offers:        make(map[string]*gateway.Offer),
		campaigns:     make(map[string]*gateway.CampaignInfo),
		watchers:      make(map[string][]gateway.Watcher),
		traffic:       make(map[string]gateway.TrafficMetrics),
		nextListingID: 200000,
		failures:      make(map[string]error),
	}
}

// Fixture is one seeded listing for offline mode.
type Fixture struct {
	SKU       string
	ListingID string
	Title     string
	Price     decimal.Decimal
	Views     int
	Watchers  int
}

// NewWithFixtures seeds a mock gateway with published listings, traffic, and
// watchers derived from the fixtures.
func NewWithFixtures(fixtures []Fixture) *Gateway {
	g := New()
	for _, f := range fixtures {
		g.inventory[f.SKU] = gateway.InventoryItem{
			SKU:      f.SKU,
			Title:    f.Title,
			Price:    f.Price,
			Quantity: 1,
		}
		offerID := "OFFER-" + f.ListingID
		g.offers[offerID] = &gateway.Offer{
			OfferID:   offerID,
			SKU:       f.SKU,
			Price:     f.Price,
			Quantity:  1,
			ListingID: f.ListingID,
			Published: true,
		}
		g.traffic[f.ListingID] = gateway.TrafficMetrics{
			Views:       f.Views,
			Impressions: f.Views * 10,
			Clicks:      f.Views / 3,
		}
		for i := 0; i < f.Watchers; i++ {
			g.watchers[f.ListingID] = append(g.watchers[f.ListingID], gateway.Watcher{
				BuyerID:   fmt.Sprintf("BUYER-%d", i),
				WatchedAt: time.Now().UTC(),
			})
		}
	}
	return g
}

// InjectFailure arms op to return err on its next call. Each injection fires
// once.
func (g *Gateway) InjectFailure(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[op] = err
}

// SetTraffic overrides the traffic metrics returned for a listing.
func (g *Gateway) SetTraffic(listingID string, m gateway.TrafficMetrics) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.traffic[listingID] = m
}

// SetWatchers overrides the watcher list for a listing.
func (g *Gateway) SetWatchers(listingID string, w []gateway.Watcher) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.watchers[listingID] = w
}

// SentOffers returns every outbound buyer offer recorded so far.
func (g *Gateway) SentOffers() []SentOffer {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]SentOffer, len(g.sentToBuyers))
	copy(out, g.sentToBuyers)
	return out
}

// Inventory returns the stored item for a SKU, for test assertions.
func (g *Gateway) Inventory(sku string) (gateway.InventoryItem, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	item, ok := g.inventory[sku]
	return item, ok
}

// Campaign returns the stored campaign, for test assertions.
func (g *Gateway) Campaign(id string) (*gateway.CampaignInfo, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.campaigns[id]
	if !ok {
		return nil, false
	}
	cp := *c
	return &cp, true
}

func (g *Gateway) checkFailure(op string) error {
	if err, ok := g.failures[op]; ok {
		delete(g.failures, op)
		return err
	}
	return nil
}

func (g *Gateway) CreateInventoryItem(ctx context.Context, sku string, item gateway.InventoryItem) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkFailure("create_inventory_item"); err != nil {
		return err
	}
	item.SKU = sku
	g.inventory[sku] = item
	return nil
}

func (g *Gateway) GetInventoryItem(ctx context.Context, sku string) (*gateway.InventoryItem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkFailure("get_inventory_item"); err != nil {
		return nil, err
	}
	item, ok := g.inventory[sku]
	if !ok {
		return nil, gateway.NewError(gateway.KindNotFound, "get_inventory_item", "sku "+sku+" not found")
	}
	return &item, nil
}

func (g *Gateway) UpdateInventoryItem(ctx context.Context, sku string, item gateway.InventoryItem) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkFailure("update_inventory_item"); err != nil {
		return err
	}
	if _, ok := g.inventory[sku]; !ok {
		return gateway.NewError(gateway.KindNotFound, "update_inventory_item", "sku "+sku+" not found")
	}
	item.SKU = sku
	g.inventory[sku] = item
	return nil
}

func (g *Gateway) DeleteInventoryItem(ctx context.Context, sku string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkFailure("delete_inventory_item"); err != nil {
		return err
	}
	if _, ok := g.inventory[sku]; !ok {
		return gateway.NewError(gateway.KindNotFound, "delete_inventory_item", "sku "+sku+" not found")
	}
	delete(g.inventory, sku)
	return nil
}

func (g *Gateway) BulkUpdatePriceQuantity(ctx context.Context, updates []gateway.PriceQuantityUpdate) (*gateway.BulkResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkFailure("bulk_update_price_quantity"); err != nil {
		return nil, err
	}
	res := &gateway.BulkResult{}
	for _, u := range updates {
		item, ok := g.inventory[u.SKU]
		if !ok {
			res.Failed = append(res.Failed, gateway.BulkFailure{SKU: u.SKU, Message: "not found"})
			continue
		}
		if u.Price != nil {
			item.Price = *u.Price
		}
		if u.Quantity != nil {
			item.Quantity = *u.Quantity
		}
		g.inventory[u.SKU] = item
		res.Succeeded = append(res.Succeeded, u.SKU)
	}
	return res, nil
}

func (g *Gateway) CreateOffer(ctx context.Context, req gateway.OfferRequest) (*gateway.Offer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkFailure("create_offer"); err != nil {
		return nil, err
	}
	offer := &gateway.Offer{
		OfferID:  "OFFER-" + uuid.NewString()[:8],
		SKU:      req.SKU,
		Price:    req.Price,
		Quantity: req.Quantity,
	}
	g.offers[offer.OfferID] = offer
	return offer, nil
}

func (g *Gateway) PublishOffer(ctx context.Context, offerID string) (*gateway.PublishResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkFailure("publish_offer"); err != nil {
		return nil, err
	}
	offer, ok := g.offers[offerID]
	if !ok {
		return nil, gateway.NewError(gateway.KindNotFound, "publish_offer", "offer "+offerID+" not found")
	}
	listingID := fmt.Sprintf("MOCK-%d", g.nextListingID)
	g.nextListingID++
	offer.Published = true
	offer.ListingID = listingID
	return &gateway.PublishResult{ListingID: listingID}, nil
}

func (g *Gateway) WithdrawOffer(ctx context.Context, offerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkFailure("withdraw_offer"); err != nil {
		return err
	}
	offer, ok := g.offers[offerID]
	if !ok {
		return gateway.NewError(gateway.KindNotFound, "withdraw_offer", "offer "+offerID+" not found")
	}
	offer.Published = false
	return nil
}

func (g *Gateway) GetOffer(ctx context.Context, offerID string) (*gateway.Offer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkFailure("get_offer"); err != nil {
		return nil, err
	}
	offer, ok := g.offers[offerID]
	if !ok {
		return nil, gateway.NewError(gateway.KindNotFound, "get_offer", "offer "+offerID+" not found")
	}
	cp := *offer
	return &cp, nil
}

func (g *Gateway) GetOffersBySKU(ctx context.Context, sku string) ([]gateway.Offer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkFailure("get_offers_by_sku"); err != nil {
		return nil, err
	}
	var out []gateway.Offer
	for _, o := range g.offers {
		if o.SKU == sku {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (g *Gateway) GetTrafficReport(ctx context.Context, listingIDs []string, dateRange string) (*gateway.TrafficReport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkFailure("get_traffic_report"); err != nil {
		return nil, err
	}
	report := &gateway.TrafficReport{
		DateRange: dateRange,
		Listings:  make(map[string]gateway.TrafficMetrics, len(listingIDs)),
	}
	for _, id := range listingIDs {
		report.Listings[id] = g.traffic[id]
	}
	return report, nil
}

func (g *Gateway) CreateCampaign(ctx context.Context, req gateway.CampaignRequest) (*gateway.CampaignInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkFailure("create_campaign"); err != nil {
		return nil, err
	}
	info := &gateway.CampaignInfo{
		CampaignID:    "CAMP-" + uuid.NewString()[:8],
		Name:          req.Name,
		Status:        "RUNNING",
		AdRatePercent: req.AdRatePercent,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
	}
	g.campaigns[info.CampaignID] = info
	return info, nil
}

func (g *Gateway) EndCampaign(ctx context.Context, campaignID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkFailure("end_campaign"); err != nil {
		return err
	}
	c, ok := g.campaigns[campaignID]
	if !ok {
		return gateway.NewError(gateway.KindNotFound, "end_campaign", "campaign "+campaignID+" not found")
	}
	c.Status = "ENDED"
	return nil
}

func (g *Gateway) GetCampaign(ctx context.Context, campaignID string) (*gateway.CampaignInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkFailure("get_campaign"); err != nil {
		return nil, err
	}
	c, ok := g.campaigns[campaignID]
	if !ok {
		return nil, gateway.NewError(gateway.KindNotFound, "get_campaign", "campaign "+campaignID+" not found")
	}
	cp := *c
	return &cp, nil
}

func (g *Gateway) SearchItems(ctx context.Context, query string, limit int) (*gateway.SearchResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkFailure("search_items"); err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	res := &gateway.SearchResult{}
	for _, item := range g.inventory {
		if strings.Contains(strings.ToLower(item.Title), q) {
			res.Items = append(res.Items, gateway.SearchItem{
				ItemID: item.SKU,
				Title:  item.Title,
				Price:  item.Price,
			})
			if limit > 0 && len(res.Items) >= limit {
				break
			}
		}
	}
	res.Total = len(res.Items)
	return res, nil
}

func (g *Gateway) SendOfferToBuyer(ctx context.Context, listingID, buyerID string, offer gateway.BuyerOffer) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkFailure("send_offer_to_buyer"); err != nil {
		return err
	}
	g.sentToBuyers = append(g.sentToBuyers, SentOffer{ListingID: listingID, BuyerID: buyerID, Offer: offer})
	return nil
}

func (g *Gateway) GetWatchers(ctx context.Context, listingID string) ([]gateway.Watcher, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkFailure("get_watchers"); err != nil {
		return nil, err
	}
	w := g.watchers[listingID]
	out := make([]gateway.Watcher, len(w))
	copy(out, w)
	return out, nil
}

func (g *Gateway) RespondToOffer(ctx context.Context, listingID, offerID string, action gateway.OfferAction, counterAmount *decimal.Decimal) (*gateway.RespondResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkFailure("respond_to_offer"); err != nil {
		return nil, err
	}
	return &gateway.RespondResult{OfferID: offerID, Action: action, Status: "SUCCESS"}, nil
}

func (g *Gateway) UpdateHandlingTime(ctx context.Context, policyID string, handlingDays int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkFailure("update_handling_time"); err != nil {
		return err
	}
	return nil
}

var _ gateway.Gateway = (*Gateway)(nil)
