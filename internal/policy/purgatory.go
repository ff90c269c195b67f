package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flipflow/flipflow/internal/config"
	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/gatekeeper"
	"github.com/flipflow/flipflow/internal/gateway"
	"github.com/flipflow/flipflow/internal/pkg/logger"
	"github.com/flipflow/flipflow/internal/store"
)

// PurgatoryEntry reports a listing moved into liquidation pricing.
type PurgatoryEntry struct {
	ListingID      int64           `json:"listing_id"`
	OriginalPrice  decimal.Decimal `json:"original_price"`
	BreakEvenPrice decimal.Decimal `json:"break_even_price"`
	MarkdownPrice  decimal.Decimal `json:"markdown_price"`
	SalePercent    float64         `json:"sale_percent"`
	EstimatedLoss  decimal.Decimal `json:"estimated_loss"`
}

// DonateSuggestion flags a purgatory listing that has sat unsold too long.
type DonateSuggestion struct {
	ListingID    int64           `json:"listing_id"`
	SKU          string          `json:"sku"`
	Title        string          `json:"title"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Suggestion   string          `json:"suggestion"`
}

// Purgatory applies liquidation pricing to chronic zombies: break-even
// price with a deep sale on top. Losing money at this point is the point.
type Purgatory struct {
	gw          gateway.Gateway
	fees        config.FeeConfig
	salePercent decimal.Decimal
	profit      *gatekeeper.ProfitFloor
	now         func() time.Time
}

// NewPurgatory builds the liquidation engine.
func NewPurgatory(gw gateway.Gateway, cfg *config.Config) *Purgatory {
	return &Purgatory{
		gw:          gw,
		fees:        cfg.Fees,
		salePercent: decimal.NewFromFloat(cfg.Growth.PurgatorySalePercent),
		profit:      gatekeeper.NewProfitFloor(cfg.Fees),
		now:         time.Now,
	}
}

// BreakEvenPrice solves net(price) = 0 ignoring ad spend:
//
//	price = (cost + shipping + per_order) / (1 - base - payment)
//
// Infinite MinPrice when the denominator is not positive.
func (p *Purgatory) BreakEvenPrice(l *domain.Listing) gatekeeper.MinPrice {
	denom := decimal.NewFromInt(1).
		Sub(decimal.NewFromFloat(p.fees.BaseFeeRate)).
		Sub(decimal.NewFromFloat(p.fees.PaymentProcessingRate))
	if !denom.IsPositive() {
		return gatekeeper.MinPrice{Infinite: true}
	}
	num := l.PurchasePrice.Add(l.ShippingCost).Add(decimal.NewFromFloat(p.fees.PerOrderFee))
	return gatekeeper.MinPrice{Value: domain.Money(num.Div(denom))}
}

// MarkdownPrice is the displayed liquidation price: break-even with the
// sale percent off.
func (p *Purgatory) MarkdownPrice(l *domain.Listing) gatekeeper.MinPrice {
	be := p.BreakEvenPrice(l)
	if be.Infinite {
		return be
	}
	factor := decimal.NewFromInt(1).Sub(p.salePercent.Div(decimal.NewFromInt(100)))
	return gatekeeper.MinPrice{Value: domain.Money(be.Value.Mul(factor))}
}

// Enter moves a zombie listing into purgatory: sets the markdown price,
// pushes it to the marketplace, and reports the expected loss.
func (p *Purgatory) Enter(ctx context.Context, sess store.Session, listingID int64) (*PurgatoryEntry, error) {
	l, err := sess.Listings().Get(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("get listing %d: %w", listingID, err)
	}

	be := p.BreakEvenPrice(l)
	markdown := p.MarkdownPrice(l)
	if markdown.Infinite {
		return nil, fmt.Errorf("listing %d: fees exceed sale price, no finite break-even", listingID)
	}

	if err := l.Transition(domain.ListingPurgatory); err != nil {
		return nil, fmt.Errorf("demote listing %d: %w", listingID, err)
	}
	l.SetCurrentPrice(markdown.Value)
	enteredAt := p.now().UTC()
	l.EnteredPurgatoryAt = &enteredAt

	price := markdown.Value
	if _, err := p.gw.BulkUpdatePriceQuantity(ctx, []gateway.PriceQuantityUpdate{
		{SKU: l.SKU, Price: &price},
	}); err != nil {
		return nil, fmt.Errorf("push purgatory price for listing %d: %w", listingID, err)
	}

	if err := sess.Listings().Update(ctx, l); err != nil {
		return nil, fmt.Errorf("update listing %d: %w", listingID, err)
	}

	breakdown := p.profit.Calculate(gatekeeper.ProfitInput{
		SalePrice:     markdown.Value,
		PurchasePrice: l.PurchasePrice,
		ShippingCost:  l.ShippingCost,
		AdRatePercent: decimal.Zero,
	})
	loss := decimal.Zero
	if breakdown.NetProfit.IsNegative() {
		loss = breakdown.NetProfit.Abs()
	}

	logger.Info("entered purgatory",
		"listing_id", l.ID, "sku", l.SKU,
		"markdown", markdown.Value.StringFixed(2), "loss", loss.StringFixed(2))

	return &PurgatoryEntry{
		ListingID:      l.ID,
		OriginalPrice:  l.ListPrice,
		BreakEvenPrice: be.Value,
		MarkdownPrice:  markdown.Value,
		SalePercent:    p.salePercent.InexactFloat64(),
		EstimatedLoss:  loss,
	}, nil
}

// ScanForDonations flags purgatory listings unsold for 7 or more days.
func (p *Purgatory) ScanForDonations(ctx context.Context, sess store.Session) ([]DonateSuggestion, error) {
	listings, err := sess.Listings().ListByStatus(ctx, domain.ListingPurgatory)
	if err != nil {
		return nil, fmt.Errorf("list purgatory listings: %w", err)
	}

	now := p.now().UTC()
	var out []DonateSuggestion
	for _, l := range listings {
		var daysIn int
		if l.EnteredPurgatoryAt != nil {
			daysIn = int(now.Sub(*l.EnteredPurgatoryAt).Hours() / 24)
		} else {
			daysIn = l.DaysActive
		}
		if daysIn < 7 {
			continue
		}
		out = append(out, DonateSuggestion{
			ListingID:    l.ID,
			SKU:          l.SKU,
			Title:        l.Title,
			CurrentPrice: l.EffectivePrice(),
			Suggestion:   "DONATE_OR_TRASH",
		})
	}
	return out, nil
}
