package gatekeeper

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/flipflow/flipflow/internal/config"
	"github.com/flipflow/flipflow/internal/domain"
)

// MinPrice is a minimum viable price that may be unachievable. When fees
// meet or exceed 100% of the sale price no finite price hits the floor, and
// the value is infinite rather than a large sentinel.
type MinPrice struct {
	Value    decimal.Decimal
	Infinite bool
}

func (m MinPrice) String() string {
	if m.Infinite {
		return "+Inf"
	}
	return m.Value.StringFixed(2)
}

// MarshalJSON emits the price as a JSON number, or the string "Infinity"
// when unachievable.
func (m MinPrice) MarshalJSON() ([]byte, error) {
	if m.Infinite {
		return json.Marshal("Infinity")
	}
	return json.Marshal(m.Value)
}

// ProfitInput is one profitability question: what does this sale net?
type ProfitInput struct {
	SalePrice     decimal.Decimal `json:"sale_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	AdRatePercent decimal.Decimal `json:"ad_rate_percent"`
}

// ProfitBreakdown is the full fee decomposition for one sale price.
type ProfitBreakdown struct {
	SalePrice           decimal.Decimal `json:"sale_price"`
	PurchasePrice       decimal.Decimal `json:"purchase_price"`
	ShippingCost        decimal.Decimal `json:"shipping_cost"`
	EbayFeeRate         decimal.Decimal `json:"ebay_fee_rate"`
	EbayFeeAmount       decimal.Decimal `json:"ebay_fee_amount"`
	AdRatePercent       decimal.Decimal `json:"ad_rate_percent"`
	AdFeeAmount         decimal.Decimal `json:"ad_fee_amount"`
	PaymentFeeAmount    decimal.Decimal `json:"payment_fee_amount"`
	PerOrderFee         decimal.Decimal `json:"per_order_fee"`
	TotalFees           decimal.Decimal `json:"total_fees"`
	NetProfit           decimal.Decimal `json:"net_profit"`
	ProfitMarginPercent decimal.Decimal `json:"profit_margin_percent"`
	MeetsFloor          bool            `json:"meets_floor"`
	ProfitFloor         decimal.Decimal `json:"profit_floor"`
	MinimumViablePrice  MinPrice        `json:"minimum_viable_price"`
}

// ProfitFloor decomposes a prospective sale into fees and blocks listings
// that cannot net the configured floor.
type ProfitFloor struct {
	baseFeeRate decimal.Decimal
	paymentRate decimal.Decimal
	perOrderFee decimal.Decimal
	floor       decimal.Decimal
}

// NewProfitFloor builds the gate from fee configuration.
func NewProfitFloor(cfg config.FeeConfig) *ProfitFloor {
	return &ProfitFloor{
		baseFeeRate: decimal.NewFromFloat(cfg.BaseFeeRate),
		paymentRate: decimal.NewFromFloat(cfg.PaymentProcessingRate),
		perOrderFee: decimal.NewFromFloat(cfg.PerOrderFee),
		floor:       decimal.NewFromFloat(cfg.MinProfitFloor),
	}
}

// Floor returns the configured minimum net profit.
func (p *ProfitFloor) Floor() decimal.Decimal { return p.floor }

// Calculate decomposes one sale into its fee components.
//
//	ebay_fee = sale * base_fee_rate
//	ad_fee   = sale * ad_rate_percent / 100
//	pay_fee  = sale * payment_rate + per_order_fee
//	net      = sale - cost - shipping - fees
func (p *ProfitFloor) Calculate(in ProfitInput) ProfitBreakdown {
	hundred := decimal.NewFromInt(100)
	adRate := in.AdRatePercent.Div(hundred)

	ebayFee := in.SalePrice.Mul(p.baseFeeRate)
	adFee := in.SalePrice.Mul(adRate)
	payFee := in.SalePrice.Mul(p.paymentRate).Add(p.perOrderFee)
	totalFees := ebayFee.Add(adFee).Add(payFee)

	net := in.SalePrice.Sub(in.PurchasePrice).Sub(in.ShippingCost).Sub(totalFees)

	margin := decimal.Zero
	if in.SalePrice.IsPositive() {
		margin = net.Div(in.SalePrice).Mul(hundred)
	}

	return ProfitBreakdown{
		SalePrice:           domain.Money(in.SalePrice),
		PurchasePrice:       domain.Money(in.PurchasePrice),
		ShippingCost:        domain.Money(in.ShippingCost),
		EbayFeeRate:         p.baseFeeRate,
		EbayFeeAmount:       domain.Money(ebayFee),
		AdRatePercent:       in.AdRatePercent,
		AdFeeAmount:         domain.Money(adFee),
		PaymentFeeAmount:    domain.Money(payFee),
		PerOrderFee:         p.perOrderFee,
		TotalFees:           domain.Money(totalFees),
		NetProfit:           domain.Money(net),
		ProfitMarginPercent: margin.RoundBank(2),
		MeetsFloor:          net.GreaterThanOrEqual(p.floor),
		ProfitFloor:         p.floor,
		MinimumViablePrice:  p.MinimumViablePrice(in.PurchasePrice, in.ShippingCost, in.AdRatePercent),
	}
}

// MinimumViablePrice solves net(price) = floor for price:
//
//	price = (floor + cost + shipping + per_order) / (1 - base - ad - payment)
//
// Infinite when the denominator is not positive.
func (p *ProfitFloor) MinimumViablePrice(purchasePrice, shipping, adRatePercent decimal.Decimal) MinPrice {
	adRate := adRatePercent.Div(decimal.NewFromInt(100))
	denom := decimal.NewFromInt(1).Sub(p.baseFeeRate).Sub(adRate).Sub(p.paymentRate)
	if !denom.IsPositive() {
		return MinPrice{Infinite: true}
	}
	num := p.floor.Add(purchasePrice).Add(shipping).Add(p.perOrderFee)
	return MinPrice{Value: domain.Money(num.Div(denom))}
}
