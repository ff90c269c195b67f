package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/gateway"
	"github.com/flipflow/flipflow/internal/gateway/mock"
	"github.com/flipflow/flipflow/internal/store"
	"github.com/flipflow/flipflow/internal/store/memory"
)

func TestCalculateRepriceLadder(t *testing.T) {
	r, err := NewRepricer(mock.New(), testConfig(t))
	require.NoError(t, err)

	cases := []struct {
		days int
		want string
		step int
	}{
		{35, "95.00", 1},
		{65, "90.00", 2},
		{120, "85.00", 3},
	}
	for _, tc := range cases {
		l := activeListing("SKU-1", "L1", "100.00", tc.days, 50)
		detail := r.CalculateReprice(l)
		require.NotNil(t, detail, "days=%d", tc.days)
		assert.Equal(t, tc.want, detail.NewPrice.StringFixed(2))
		assert.Equal(t, tc.step, detail.Step)
	}
}

func TestCalculateRepriceBeforeFirstStep(t *testing.T) {
	r, err := NewRepricer(mock.New(), testConfig(t))
	require.NoError(t, err)

	l := activeListing("SKU-1", "L1", "100.00", 10, 50)
	assert.Nil(t, r.CalculateReprice(l))
}

func TestCalculateRepriceClampsToMinViable(t *testing.T) {
	r, err := NewRepricer(mock.New(), testConfig(t))
	require.NoError(t, err)

	l := activeListing("SKU-1", "L1", "100.00", 65, 50)
	l.PurchasePrice = d("80.00")

	detail := r.CalculateReprice(l)
	require.NotNil(t, detail)
	// (5 + 80 + 5 + 0.30) / (1 - 0.13 - 0.029) = 107.37, above the 10% step.
	assert.Equal(t, "107.37", detail.NewPrice.StringFixed(2))
	assert.False(t, detail.MinViablePrice.Infinite)
	assert.Equal(t, "107.37", detail.MinViablePrice.Value.StringFixed(2))
}

func TestCalculateRepriceNeverCompounds(t *testing.T) {
	r, err := NewRepricer(mock.New(), testConfig(t))
	require.NoError(t, err)

	l := activeListing("SKU-1", "L1", "100.00", 65, 50)
	first := r.CalculateReprice(l)
	require.NotNil(t, first)
	l.SetCurrentPrice(first.NewPrice)

	// Same day, same step: the ladder resolves to the same price, so the
	// sub-cent guard skips it.
	assert.Nil(t, r.CalculateReprice(l))
}

func TestScanStagesThenPushesOnce(t *testing.T) {
	ctx := context.Background()
	gw := mock.New()
	require.NoError(t, gw.CreateInventoryItem(ctx, "SKU-1", gateway.InventoryItem{Price: d("100.00"), Quantity: 1}))

	st := memory.New()
	st.Seed(activeListing("SKU-1", "L1", "100.00", 65, 50))

	r, err := NewRepricer(gw, testConfig(t))
	require.NoError(t, err)

	var report *RepriceReport
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		report, err = r.Scan(ctx, sess)
		return err
	}))

	assert.Equal(t, 1, report.Repriced)
	assert.Equal(t, 0, report.GatewayErrors)

	l, ok := st.Listing(1)
	require.True(t, ok)
	require.NotNil(t, l.CurrentPrice)
	assert.Equal(t, "90.00", l.CurrentPrice.StringFixed(2))
	assert.NotNil(t, l.LastRepricedAt)

	item, ok := gw.Inventory("SKU-1")
	require.True(t, ok)
	assert.Equal(t, "90.00", item.Price.StringFixed(2))
}

func TestScanBulkFailureKeepsLocalMutations(t *testing.T) {
	ctx := context.Background()
	gw := mock.New()
	gw.InjectFailure("bulk_update_price_quantity", errors.New("boom"))

	st := memory.New()
	st.Seed(activeListing("SKU-1", "L1", "100.00", 65, 50))

	r, err := NewRepricer(gw, testConfig(t))
	require.NoError(t, err)

	var report *RepriceReport
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		report, err = r.Scan(ctx, sess)
		return err
	}))

	assert.Equal(t, 1, report.Repriced)
	assert.Equal(t, 1, report.GatewayErrors)

	l, ok := st.Listing(1)
	require.True(t, ok)
	require.NotNil(t, l.CurrentPrice)
	assert.Equal(t, "90.00", l.CurrentPrice.StringFixed(2))
}

func TestScanSkipsZombies(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	z := activeListing("SKU-1", "L1", "100.00", 65, 0)
	z.Status = domain.ListingZombie
	st.Seed(z)

	r, err := NewRepricer(mock.New(), testConfig(t))
	require.NoError(t, err)

	var report *RepriceReport
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		report, err = r.Scan(ctx, sess)
		return err
	}))
	assert.Equal(t, 0, report.TotalScanned)
}
