// Package policy holds the lifecycle and growth policies that the
// coordinator runs against the store and the marketplace gateway. Every
// scan returns a structured report; per-listing failures are collected,
// not propagated.
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

// RepriceDetail is one applied markdown.
type RepriceDetail struct {
	ListingID      int64               `json:"listing_id"`
	SKU            string              `json:"sku"`
	Step           int                 `json:"step"`
	PercentOff     float64             `json:"percent_off"`
	OldPrice       decimal.Decimal     `json:"old_price"`
	NewPrice       decimal.Decimal     `json:"new_price"`
	MinViablePrice gatekeeper.MinPrice `json:"min_viable_price"`
	Reason         string              `json:"reason"`
}

// RepriceReport summarizes one repricer scan.
type RepriceReport struct {
	TotalScanned  int             `json:"total_scanned"`
	Repriced      int             `json:"repriced"`
	Skipped       int             `json:"skipped"`
	GatewayErrors int             `json:"gateway_errors"`
	Details       []RepriceDetail `json:"details"`
}

// Repricer applies a time-based markdown ladder to active listings. The new
// price is always computed from the original list price, never compounded
// from the current price, and is clamped upward to the minimum viable price.
type Repricer struct {
	gw     gateway.Gateway
	steps  []config.Step
	profit *gatekeeper.ProfitFloor
	now    func() time.Time
}

// NewRepricer builds a repricer from the configured step ladder.
func NewRepricer(gw gateway.Gateway, cfg *config.Config) (*Repricer, error) {
	steps, err := config.ParseSteps(cfg.Reprice.Steps)
	if err != nil {
		return nil, fmt.Errorf("parse reprice steps: %w", err)
	}
	return &Repricer{
		gw:     gw,
		steps:  steps,
		profit: gatekeeper.NewProfitFloor(cfg.Fees),
		now:    time.Now,
	}, nil
}

// CalculateReprice computes the markdown for one listing, or nil when no
// step applies or the price would not move by at least a cent.
func (r *Repricer) CalculateReprice(l *domain.Listing) *RepriceDetail {
	step, stepNum, ok := stepWithIndex(r.steps, l.DaysActive)
	if !ok {
		return nil
	}

	pct := decimal.NewFromFloat(step.Percent)
	factor := decimal.NewFromInt(1).Sub(pct.Div(decimal.NewFromInt(100)))
	newPrice := domain.Money(l.ListPrice.Mul(factor))

	min := r.profit.MinimumViablePrice(l.PurchasePrice, l.ShippingCost, l.AdRatePercent)
	if !min.Infinite && newPrice.LessThan(min.Value) {
		newPrice = min.Value
	}

	current := l.EffectivePrice()
	if newPrice.Sub(current).Abs().LessThan(decimal.NewFromFloat(0.01)) {
		return nil
	}

	return &RepriceDetail{
		ListingID:      l.ID,
		SKU:            l.SKU,
		Step:           stepNum,
		PercentOff:     step.Percent,
		OldPrice:       current,
		NewPrice:       newPrice,
		MinViablePrice: min,
		Reason:         fmt.Sprintf("Step %d: %g%% off after %d days", stepNum, step.Percent, l.DaysActive),
	}
}

// Scan walks all active listings, stages markdowns locally, then pushes the
// price changes to the marketplace in one bulk call. A bulk failure counts
// as gateway errors but does not roll back the local mutations; the next
// scan reconciles.
func (r *Repricer) Scan(ctx context.Context, sess store.Session) (*RepriceReport, error) {
	active, err := sess.Listings().ListByStatus(ctx, domain.ListingActive)
	if err != nil {
		return nil, fmt.Errorf("list active listings: %w", err)
	}

	report := &RepriceReport{TotalScanned: len(active)}
	var updates []gateway.PriceQuantityUpdate
	runAt := r.now().UTC()

	for _, l := range active {
		detail := r.CalculateReprice(l)
		if detail == nil {
			report.Skipped++
			continue
		}

		l.SetCurrentPrice(detail.NewPrice)
		repricedAt := runAt
		l.LastRepricedAt = &repricedAt
		if err := sess.Listings().Update(ctx, l); err != nil {
			return nil, fmt.Errorf("update listing %d: %w", l.ID, err)
		}

		report.Details = append(report.Details, *detail)
		report.Repriced++

		price := detail.NewPrice
		updates = append(updates, gateway.PriceQuantityUpdate{SKU: l.SKU, Price: &price})
	}

	if len(updates) > 0 {
		if _, err := r.gw.BulkUpdatePriceQuantity(ctx, updates); err != nil {
			report.GatewayErrors = len(updates)
			logger.Error("repricer bulk push failed", "count", len(updates), "error", err)
		}
	}

	logger.Info("repricer scan",
		"scanned", report.TotalScanned, "repriced", report.Repriced,
		"skipped", report.Skipped, "gateway_errors", report.GatewayErrors)
	return report, nil
}

func stepWithIndex(steps []config.Step, daysActive int) (config.Step, int, bool) {
	var matched config.Step
	num := 0
	for i, st := range steps {
		if daysActive >= st.Days {
			matched = st
			num = i + 1
		}
	}
	return matched, num, num > 0
}
