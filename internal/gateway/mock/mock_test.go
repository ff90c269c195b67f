package mock

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipflow/flipflow/internal/gateway"
)

func TestPublishAssignsListingID(t *testing.T) {
	g := New()
	ctx := context.Background()

	err := g.CreateInventoryItem(ctx, "SKU-1", gateway.InventoryItem{Title: "Vintage Camera", Price: decimal.NewFromInt(75), Quantity: 1})
	require.NoError(t, err)

	offer, err := g.CreateOffer(ctx, gateway.OfferRequest{SKU: "SKU-1", Price: decimal.NewFromInt(75), Quantity: 1})
	require.NoError(t, err)

	pub, err := g.PublishOffer(ctx, offer.OfferID)
	require.NoError(t, err)
	assert.NotEmpty(t, pub.ListingID)

	got, err := g.GetOffer(ctx, offer.OfferID)
	require.NoError(t, err)
	assert.True(t, got.Published)
	assert.Equal(t, pub.ListingID, got.ListingID)
}

func TestBulkUpdatePartialFailure(t *testing.T) {
	g := New()
	ctx := context.Background()
	require.NoError(t, g.CreateInventoryItem(ctx, "SKU-1", gateway.InventoryItem{Price: decimal.NewFromInt(20), Quantity: 1}))

	newPrice := decimal.NewFromFloat(18.50)
	res, err := g.BulkUpdatePriceQuantity(ctx, []gateway.PriceQuantityUpdate{
		{SKU: "SKU-1", Price: &newPrice},
		{SKU: "SKU-MISSING", Price: &newPrice},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"SKU-1"}, res.Succeeded)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "SKU-MISSING", res.Failed[0].SKU)

	item, ok := g.Inventory("SKU-1")
	require.True(t, ok)
	assert.True(t, item.Price.Equal(newPrice))
}

func TestInjectFailureFiresOnce(t *testing.T) {
	g := New()
	ctx := context.Background()

	g.InjectFailure("get_watchers", gateway.NewError(gateway.KindRateLimit, "get_watchers", "quota exhausted"))

	_, err := g.GetWatchers(ctx, "MOCK-200000")
	require.Error(t, err)
	assert.True(t, gateway.IsRateLimit(err))

	_, err = g.GetWatchers(ctx, "MOCK-200000")
	assert.NoError(t, err)
}

func TestNotFoundKind(t *testing.T) {
	g := New()
	_, err := g.GetInventoryItem(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, gateway.IsNotFound(err))
}

func TestFixturesSeedTrafficAndWatchers(t *testing.T) {
	g := NewWithFixtures([]Fixture{
		{SKU: "SKU-CAM", ListingID: "MOCK-100", Title: "Film Camera", Price: decimal.NewFromInt(60), Views: 30, Watchers: 2},
	})
	ctx := context.Background()

	report, err := g.GetTrafficReport(ctx, []string{"MOCK-100"}, "LAST_30_DAYS")
	require.NoError(t, err)
	assert.Equal(t, 30, report.Listings["MOCK-100"].Views)

	watchers, err := g.GetWatchers(ctx, "MOCK-100")
	require.NoError(t, err)
	assert.Len(t, watchers, 2)
}
