package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flipflow/flipflow/internal/config"
	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/gateway"
	"github.com/flipflow/flipflow/internal/pkg/logger"
	"github.com/flipflow/flipflow/internal/store"
)

// SnipeDetail is one outbound offer sent to a watcher.
type SnipeDetail struct {
	ListingID       int64           `json:"listing_id"`
	SKU             string          `json:"sku"`
	BuyerID         string          `json:"buyer_id"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	OfferPrice      decimal.Decimal `json:"offer_price"`
	DiscountPercent float64         `json:"discount_percent"`
}

// SnipeReport summarizes one outbound scan.
type SnipeReport struct {
	ListingsChecked int           `json:"listings_checked"`
	OffersSent      int           `json:"offers_sent"`
	Cooldowns       int           `json:"cooldowns"`
	Errors          int           `json:"errors"`
	Details         []SnipeDetail `json:"details"`
}

// InboundDecision reports how an incoming buyer offer was answered.
type InboundDecision struct {
	ListingID     int64               `json:"listing_id"`
	Action        gateway.OfferAction `json:"action"`
	OfferAmount   decimal.Decimal     `json:"offer_amount"`
	CurrentPrice  decimal.Decimal     `json:"current_price"`
	Ratio         decimal.Decimal     `json:"ratio"`
	CounterAmount *decimal.Decimal    `json:"counter_amount,omitempty"`
}

// OfferSniper converts watchers into buyers. Outbound: watchers get a
// tiered discount scaled by the listing's age, throttled per (listing,
// buyer) by the offer history. Inbound: buyer offers are accepted,
// countered, or rejected by price ratio.
type OfferSniper struct {
	gw               gateway.Gateway
	tiers            []config.Step
	acceptThreshold  decimal.Decimal
	counterThreshold decimal.Decimal
	counterPercent   decimal.Decimal
	cooldown         time.Duration
	now              func() time.Time
}

// NewOfferSniper builds the sniper from offer configuration.
func NewOfferSniper(gw gateway.Gateway, cfg *config.Config) (*OfferSniper, error) {
	tiers, err := config.ParseSteps(cfg.Offers.Tiers)
	if err != nil {
		return nil, fmt.Errorf("parse offer tiers: %w", err)
	}
	return &OfferSniper{
		gw:               gw,
		tiers:            tiers,
		acceptThreshold:  decimal.NewFromFloat(cfg.Offers.AutoAcceptThreshold),
		counterThreshold: decimal.NewFromFloat(cfg.Offers.CounterThreshold),
		counterPercent:   decimal.NewFromFloat(cfg.Offers.CounterPercent),
		cooldown:         cfg.Offers.Cooldown(),
		now:              time.Now,
	}, nil
}

// DiscountFor returns the tier discount for a listing's age. Zero when no
// tier applies.
func (o *OfferSniper) DiscountFor(daysActive int) float64 {
	step, ok := config.StepFor(o.tiers, daysActive)
	if !ok {
		return 0
	}
	return step.Percent
}

// OfferPrice computes the discounted outbound price.
func (o *OfferSniper) OfferPrice(current decimal.Decimal, discountPercent float64) decimal.Decimal {
	pct := decimal.NewFromFloat(discountPercent)
	factor := decimal.NewFromInt(1).Sub(pct.Div(decimal.NewFromInt(100)))
	return domain.Money(current.Mul(factor))
}

// ScanAndSnipe walks active listings, fetches watchers, and sends tiered
// offers to every watcher not in cooldown. Per-listing and per-send
// failures are counted, not propagated.
func (o *OfferSniper) ScanAndSnipe(ctx context.Context, sess store.Session) (*SnipeReport, error) {
	active, err := sess.Listings().ListByStatus(ctx, domain.ListingActive)
	if err != nil {
		return nil, fmt.Errorf("list active listings: %w", err)
	}

	report := &SnipeReport{}
	for _, l := range active {
		if l.EbayItemID == nil {
			continue
		}
		report.ListingsChecked++

		watchers, err := o.gw.GetWatchers(ctx, *l.EbayItemID)
		if err != nil {
			report.Errors++
			logger.Error("get watchers failed", "listing_id", l.ID, "error", err)
			continue
		}
		if len(watchers) == 0 {
			continue
		}

		price := l.EffectivePrice()
		discount := o.DiscountFor(l.DaysActive)
		offerPrice := o.OfferPrice(price, discount)
		now := o.now().UTC()

		for _, w := range watchers {
			if w.BuyerID == "" {
				continue
			}

			sent, err := sess.Offers().SentSince(ctx, l.ID, w.BuyerID, now.Add(-o.cooldown))
			if err != nil {
				return nil, fmt.Errorf("check offer cooldown: %w", err)
			}
			if sent > 0 {
				report.Cooldowns++
				continue
			}

			offer := gateway.BuyerOffer{
				Price:    offerPrice,
				Currency: "USD",
				Message:  fmt.Sprintf("Special offer: $%s (%.0f%% off)!", offerPrice.StringFixed(2), discount),
			}
			if err := o.gw.SendOfferToBuyer(ctx, *l.EbayItemID, w.BuyerID, offer); err != nil {
				report.Errors++
				continue
			}

			rec := &domain.OfferRecord{
				ListingID:       l.ID,
				BuyerID:         w.BuyerID,
				OfferPrice:      offerPrice,
				DiscountPercent: decimal.NewFromFloat(discount),
				SentAt:          now,
				Status:          domain.OfferSent,
			}
			if err := sess.Offers().Create(ctx, rec); err != nil {
				return nil, fmt.Errorf("create offer record: %w", err)
			}

			sentAt := now
			l.LastOfferSentAt = &sentAt
			if err := sess.Listings().Update(ctx, l); err != nil {
				return nil, fmt.Errorf("update listing %d: %w", l.ID, err)
			}

			report.OffersSent++
			report.Details = append(report.Details, SnipeDetail{
				ListingID:       l.ID,
				SKU:             l.SKU,
				BuyerID:         w.BuyerID,
				OriginalPrice:   price,
				OfferPrice:      offerPrice,
				DiscountPercent: discount,
			})
		}
	}

	logger.Info("offer snipe",
		"listings", report.ListingsChecked, "sent", report.OffersSent,
		"cooldowns", report.Cooldowns, "errors", report.Errors)
	return report, nil
}

// EvaluateInbound answers a buyer's offer on a listing. The decision is
// issued to the gateway; accepts and counters append an OfferRecord.
func (o *OfferSniper) EvaluateInbound(ctx context.Context, sess store.Session, listingID int64, offerID, buyerID string, amount decimal.Decimal) (*InboundDecision, error) {
	l, err := sess.Listings().Get(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("get listing %d: %w", listingID, err)
	}
	if l.EbayItemID == nil {
		return nil, fmt.Errorf("listing %d has no marketplace item id", listingID)
	}

	price := l.EffectivePrice()
	if !price.IsPositive() {
		return nil, fmt.Errorf("listing %d has no positive price", listingID)
	}
	ratio := amount.Div(price)

	decision := &InboundDecision{
		ListingID:    l.ID,
		OfferAmount:  amount,
		CurrentPrice: price,
		Ratio:        ratio,
	}

	switch {
	case ratio.GreaterThanOrEqual(o.acceptThreshold):
		decision.Action = gateway.ActionAccept
	case ratio.GreaterThanOrEqual(o.counterThreshold):
		decision.Action = gateway.ActionCounter
		counter := domain.Money(price.Mul(o.counterPercent))
		decision.CounterAmount = &counter
	default:
		decision.Action = gateway.ActionReject
	}

	if _, err := o.gw.RespondToOffer(ctx, *l.EbayItemID, offerID, decision.Action, decision.CounterAmount); err != nil {
		return nil, fmt.Errorf("respond to offer: %w", err)
	}

	now := o.now().UTC()
	switch decision.Action {
	case gateway.ActionAccept:
		rec := &domain.OfferRecord{
			ListingID:  l.ID,
			BuyerID:    buyerID,
			OfferPrice: amount,
			SentAt:     now,
			Status:     domain.OfferAccepted,
		}
		if err := sess.Offers().Create(ctx, rec); err != nil {
			return nil, fmt.Errorf("create offer record: %w", err)
		}
	case gateway.ActionCounter:
		rec := &domain.OfferRecord{
			ListingID:  l.ID,
			BuyerID:    buyerID,
			OfferPrice: *decision.CounterAmount,
			SentAt:     now,
			Status:     domain.OfferSent,
		}
		if err := sess.Offers().Create(ctx, rec); err != nil {
			return nil, fmt.Errorf("create offer record: %w", err)
		}
	}

	logger.Info("inbound offer",
		"listing_id", l.ID, "buyer", buyerID,
		"action", string(decision.Action), "ratio", ratio.StringFixed(3))
	return decision, nil
}
