package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/flipflow/flipflow/internal/domain"
)

// OfferRepo implements store.OfferRepo. The sent_at index on
// (listing_id, buyer_id) keeps the cooldown query cheap.
type OfferRepo struct{ q querier }

func (r *OfferRepo) Create(ctx context.Context, rec *domain.OfferRecord) error {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO offer_records
			(listing_id, buyer_id, offer_price, discount_percent, sent_at,
			 status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
		RETURNING id, created_at
	`, rec.ListingID, rec.BuyerID, rec.OfferPrice, rec.DiscountPercent,
		rec.SentAt, rec.Status,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("create offer record: %w", err)
	}
	return nil
}

func (r *OfferRepo) SentSince(ctx context.Context, listingID int64, buyerID string, since time.Time) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM offer_records
		WHERE listing_id = $1 AND buyer_id = $2 AND sent_at >= $3
	`, listingID, buyerID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count offers sent: %w", err)
	}
	return n, nil
}

func (r *OfferRepo) ListByListing(ctx context.Context, listingID int64) ([]*domain.OfferRecord, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, listing_id, buyer_id, offer_price, discount_percent,
		       sent_at, status, created_at
		FROM offer_records
		WHERE listing_id = $1
		ORDER BY sent_at DESC
	`, listingID)
	if err != nil {
		return nil, fmt.Errorf("list offer records: %w", err)
	}
	defer rows.Close()

	var out []*domain.OfferRecord
	for rows.Next() {
		rec := &domain.OfferRecord{}
		if err := rows.Scan(
			&rec.ID, &rec.ListingID, &rec.BuyerID, &rec.OfferPrice,
			&rec.DiscountPercent, &rec.SentAt, &rec.Status, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan offer record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
