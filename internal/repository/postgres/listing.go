package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/store"
)

// ListingRepo implements store.ListingRepo.
type ListingRepo struct{ q querier }

const listingColumns = `
	id, sku, ebay_item_id, title, title_sanitized, description,
	description_mobile, brand, model, category_id, condition_id,
	purchase_price, list_price, current_price, shipping_cost,
	ad_rate_percent, status, listed_at, days_active, total_views,
	watchers, zombie_cycle_count, sell_through_rate, str_data_source,
	photo_urls, main_photo_index, offer_id, last_offer_sent_at,
	last_repriced_at, entered_purgatory_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row rowScanner) (*domain.Listing, error) {
	l := &domain.Listing{}
	var (
		ebayItemID, titleSan, descMobile   sql.NullString
		brand, model, categoryID           sql.NullString
		strSource, offerID                 sql.NullString
		currentPrice, str                  decimal.NullDecimal
		listedAt, lastOfferAt, repricedAt  sql.NullTime
		purgatoryAt                        sql.NullTime
	)
	err := row.Scan(
		&l.ID, &l.SKU, &ebayItemID, &l.Title, &titleSan, &l.Description,
		&descMobile, &brand, &model, &categoryID, &l.ConditionID,
		&l.PurchasePrice, &l.ListPrice, &currentPrice, &l.ShippingCost,
		&l.AdRatePercent, &l.Status, &listedAt, &l.DaysActive, &l.TotalViews,
		&l.Watchers, &l.ZombieCycleCount, &str, &strSource,
		pq.Array(&l.PhotoURLs), &l.MainPhotoIndex, &offerID, &lastOfferAt,
		&repricedAt, &purgatoryAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.EbayItemID = strPtr(ebayItemID)
	l.TitleSanitized = strPtr(titleSan)
	l.DescriptionMobile = strPtr(descMobile)
	l.Brand = strPtr(brand)
	l.Model = strPtr(model)
	l.CategoryID = strPtr(categoryID)
	l.STRDataSource = strPtr(strSource)
	l.OfferID = strPtr(offerID)
	l.CurrentPrice = decPtr(currentPrice)
	l.SellThroughRate = decPtr(str)
	l.ListedAt = timePtr(listedAt)
	l.LastOfferSentAt = timePtr(lastOfferAt)
	l.LastRepricedAt = timePtr(repricedAt)
	l.EnteredPurgatoryAt = timePtr(purgatoryAt)
	return l, nil
}

func (r *ListingRepo) Get(ctx context.Context, id int64) (*domain.Listing, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT`+listingColumns+`
		FROM listings
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return l, nil
}

func (r *ListingRepo) GetBySKU(ctx context.Context, sku string) (*domain.Listing, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT`+listingColumns+`
		FROM listings
		WHERE sku = $1 AND deleted_at IS NULL
	`, sku)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get listing by sku: %w", err)
	}
	return l, nil
}

func (r *ListingRepo) ListByStatus(ctx context.Context, status domain.ListingStatus) ([]*domain.Listing, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT`+listingColumns+`
		FROM listings
		WHERE status = $1 AND deleted_at IS NULL
		ORDER BY id
	`, status)
	if err != nil {
		return nil, fmt.Errorf("list listings by status: %w", err)
	}
	defer rows.Close()

	var out []*domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *ListingRepo) Create(ctx context.Context, l *domain.Listing) error {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO listings
			(sku, ebay_item_id, title, title_sanitized, description,
			 description_mobile, brand, model, category_id, condition_id,
			 purchase_price, list_price, current_price, shipping_cost,
			 ad_rate_percent, status, listed_at, days_active, total_views,
			 watchers, zombie_cycle_count, sell_through_rate, str_data_source,
			 photo_urls, main_photo_index, offer_id, last_offer_sent_at,
			 last_repriced_at, entered_purgatory_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,
			$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,NOW(),NOW())
		RETURNING id, created_at, updated_at
	`,
		l.SKU, nullStr(l.EbayItemID), l.Title, nullStr(l.TitleSanitized),
		l.Description, nullStr(l.DescriptionMobile), nullStr(l.Brand),
		nullStr(l.Model), nullStr(l.CategoryID), l.ConditionID,
		l.PurchasePrice, l.ListPrice, nullDec(l.CurrentPrice), l.ShippingCost,
		l.AdRatePercent, l.Status, nullTime(l.ListedAt), l.DaysActive,
		l.TotalViews, l.Watchers, l.ZombieCycleCount,
		nullDec(l.SellThroughRate), nullStr(l.STRDataSource),
		pq.Array(l.PhotoURLs), l.MainPhotoIndex, nullStr(l.OfferID),
		nullTime(l.LastOfferSentAt), nullTime(l.LastRepricedAt),
		nullTime(l.EnteredPurgatoryAt),
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create listing: %w", err)
	}
	return nil
}

func (r *ListingRepo) Update(ctx context.Context, l *domain.Listing) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE listings SET
			ebay_item_id = $2, title = $3, title_sanitized = $4,
			description = $5, description_mobile = $6, brand = $7,
			model = $8, category_id = $9, condition_id = $10,
			purchase_price = $11, list_price = $12, current_price = $13,
			shipping_cost = $14, ad_rate_percent = $15, status = $16,
			listed_at = $17, days_active = $18, total_views = $19,
			watchers = $20, zombie_cycle_count = $21, sell_through_rate = $22,
			str_data_source = $23, photo_urls = $24, main_photo_index = $25,
			offer_id = $26, last_offer_sent_at = $27, last_repriced_at = $28,
			entered_purgatory_at = $29, deleted_at = $30, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`,
		l.ID, nullStr(l.EbayItemID), l.Title, nullStr(l.TitleSanitized),
		l.Description, nullStr(l.DescriptionMobile), nullStr(l.Brand),
		nullStr(l.Model), nullStr(l.CategoryID), l.ConditionID,
		l.PurchasePrice, l.ListPrice, nullDec(l.CurrentPrice), l.ShippingCost,
		l.AdRatePercent, l.Status, nullTime(l.ListedAt), l.DaysActive,
		l.TotalViews, l.Watchers, l.ZombieCycleCount,
		nullDec(l.SellThroughRate), nullStr(l.STRDataSource),
		pq.Array(l.PhotoURLs), l.MainPhotoIndex, nullStr(l.OfferID),
		nullTime(l.LastOfferSentAt), nullTime(l.LastRepricedAt),
		nullTime(l.EnteredPurgatoryAt), nullTime(l.DeletedAt),
	)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update listing rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
