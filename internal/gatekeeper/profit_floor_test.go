package gatekeeper

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipflow/flipflow/internal/config"
)

func defaultFees() config.FeeConfig {
	return config.FeeConfig{
		BaseFeeRate:           0.13,
		PaymentProcessingRate: 0.029,
		PerOrderFee:           0.30,
		MinProfitFloor:        5.00,
	}
}

func TestProfitBreakdownDefaults(t *testing.T) {
	p := NewProfitFloor(defaultFees())

	res := p.Calculate(ProfitInput{
		SalePrice:     decimal.NewFromInt(100),
		PurchasePrice: decimal.NewFromInt(30),
		ShippingCost:  decimal.NewFromInt(10),
		AdRatePercent: decimal.NewFromFloat(1.5),
	})

	assert.Equal(t, "13.00", res.EbayFeeAmount.StringFixed(2))
	assert.Equal(t, "1.50", res.AdFeeAmount.StringFixed(2))
	assert.Equal(t, "3.20", res.PaymentFeeAmount.StringFixed(2))
	assert.Equal(t, "42.30", res.NetProfit.StringFixed(2))
	assert.True(t, res.MeetsFloor)
}

func TestMinimumViablePriceSolvesFloorExactly(t *testing.T) {
	p := NewProfitFloor(defaultFees())

	cost := decimal.NewFromInt(30)
	shipping := decimal.NewFromInt(10)
	adRate := decimal.NewFromFloat(1.5)

	min := p.MinimumViablePrice(cost, shipping, adRate)
	require.False(t, min.Infinite)

	// net(min_viable) must hit the floor to the cent.
	res := p.Calculate(ProfitInput{
		SalePrice:     min.Value,
		PurchasePrice: cost,
		ShippingCost:  shipping,
		AdRatePercent: adRate,
	})
	diff := res.NetProfit.Sub(decimal.NewFromInt(5)).Abs()
	assert.True(t, diff.LessThanOrEqual(decimal.NewFromFloat(0.01)),
		"net at min viable = %s", res.NetProfit)
}

func TestMinimumViablePriceInfiniteWhenFeesEatEverything(t *testing.T) {
	p := NewProfitFloor(defaultFees())

	// 90% ad rate pushes total rates past 100% of sale price.
	min := p.MinimumViablePrice(decimal.NewFromInt(30), decimal.NewFromInt(10), decimal.NewFromInt(90))
	assert.True(t, min.Infinite)
	assert.Equal(t, "+Inf", min.String())

	b, err := json.Marshal(min)
	require.NoError(t, err)
	assert.Equal(t, `"Infinity"`, string(b))
}

func TestProfitFailsFloor(t *testing.T) {
	p := NewProfitFloor(defaultFees())

	res := p.Calculate(ProfitInput{
		SalePrice:     decimal.NewFromInt(20),
		PurchasePrice: decimal.NewFromInt(15),
		ShippingCost:  decimal.NewFromInt(5),
		AdRatePercent: decimal.Zero,
	})
	assert.False(t, res.MeetsFloor)
	assert.True(t, res.NetProfit.IsNegative())
}

func TestMarginZeroSalePrice(t *testing.T) {
	p := NewProfitFloor(defaultFees())

	res := p.Calculate(ProfitInput{
		SalePrice:     decimal.Zero,
		PurchasePrice: decimal.NewFromInt(10),
		ShippingCost:  decimal.Zero,
		AdRatePercent: decimal.Zero,
	})
	assert.True(t, res.ProfitMarginPercent.IsZero())
}
