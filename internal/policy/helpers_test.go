package policy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/flipflow/flipflow/internal/config"
	"github.com/flipflow/flipflow/internal/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strp(s string) *string { return &s }

var fixedNow = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

// activeListing builds a live listing with sane cost structure: cheap
// enough that the default markdown ladder never hits the profit floor.
func activeListing(sku, itemID string, listPrice string, daysActive, views int) *domain.Listing {
	l := &domain.Listing{
		SKU:           sku,
		Title:         "Test " + sku,
		Description:   "desc",
		ConditionID:   "USED_GOOD",
		PurchasePrice: d("10.00"),
		ListPrice:     d(listPrice),
		ShippingCost:  d("5.00"),
		Status:        domain.ListingActive,
		DaysActive:    daysActive,
		TotalViews:    views,
		PhotoURLs:     []string{"https://img/1.jpg", "https://img/2.jpg"},
	}
	if itemID != "" {
		l.EbayItemID = strp(itemID)
	}
	return l
}
