package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/store"
)

// ProfitRepo implements store.ProfitRepo.
type ProfitRepo struct{ q querier }

func (r *ProfitRepo) Create(ctx context.Context, rec *domain.ProfitRecord) error {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO profit_records
			(listing_id, sale_price, purchase_price, shipping_cost,
			 ebay_fee_percent, ad_fee_percent, ebay_fee_amount, ad_fee_amount,
			 net_profit, profit_margin_percent, meets_floor, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW())
		RETURNING id, created_at
	`, rec.ListingID, rec.SalePrice, rec.PurchasePrice, rec.ShippingCost,
		rec.EbayFeePercent, rec.AdFeePercent, rec.EbayFeeAmount,
		rec.AdFeeAmount, rec.NetProfit, rec.ProfitMarginPercent, rec.MeetsFloor,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("create profit record: %w", err)
	}
	return nil
}

func (r *ProfitRepo) ListByListing(ctx context.Context, listingID int64) ([]*domain.ProfitRecord, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, listing_id, sale_price, purchase_price, shipping_cost,
		       ebay_fee_percent, ad_fee_percent, ebay_fee_amount,
		       ad_fee_amount, net_profit, profit_margin_percent, meets_floor,
		       created_at
		FROM profit_records
		WHERE listing_id = $1
		ORDER BY created_at DESC
	`, listingID)
	if err != nil {
		return nil, fmt.Errorf("list profit records: %w", err)
	}
	defer rows.Close()

	var out []*domain.ProfitRecord
	for rows.Next() {
		rec := &domain.ProfitRecord{}
		if err := rows.Scan(
			&rec.ID, &rec.ListingID, &rec.SalePrice, &rec.PurchasePrice,
			&rec.ShippingCost, &rec.EbayFeePercent, &rec.AdFeePercent,
			&rec.EbayFeeAmount, &rec.AdFeeAmount, &rec.NetProfit,
			&rec.ProfitMarginPercent, &rec.MeetsFloor, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan profit record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SnapshotRepo implements store.SnapshotRepo.
type SnapshotRepo struct{ q querier }

func (r *SnapshotRepo) Create(ctx context.Context, s *domain.ListingSnapshot) error {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO listing_snapshots
			(listing_id, snapshot_date, views, impressions, watchers,
			 price_at_snapshot, status_at_snapshot, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
		ON CONFLICT (listing_id, snapshot_date) DO UPDATE SET
			views = EXCLUDED.views, impressions = EXCLUDED.impressions,
			watchers = EXCLUDED.watchers,
			price_at_snapshot = EXCLUDED.price_at_snapshot,
			status_at_snapshot = EXCLUDED.status_at_snapshot
		RETURNING id, created_at
	`, s.ListingID, s.SnapshotDate, s.Views, s.Impressions, s.Watchers,
		s.PriceAtSnapshot, s.StatusAtSnapshot,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotRepo) ListByListing(ctx context.Context, listingID int64, since time.Time) ([]*domain.ListingSnapshot, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, listing_id, snapshot_date, views, impressions, watchers,
		       price_at_snapshot, status_at_snapshot, created_at
		FROM listing_snapshots
		WHERE listing_id = $1 AND snapshot_date >= $2
		ORDER BY snapshot_date
	`, listingID, since)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []*domain.ListingSnapshot
	for rows.Next() {
		s := &domain.ListingSnapshot{}
		if err := rows.Scan(
			&s.ID, &s.ListingID, &s.SnapshotDate, &s.Views, &s.Impressions,
			&s.Watchers, &s.PriceAtSnapshot, &s.StatusAtSnapshot, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// JobLogRepo implements store.JobLogRepo.
type JobLogRepo struct{ q querier }

func (r *JobLogRepo) Create(ctx context.Context, j *domain.JobLog) error {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO job_logs
			(job_name, job_type, started_at, finished_at, status,
			 items_processed, items_affected, error_message, details, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
		RETURNING id, created_at
	`, j.JobName, j.JobType, j.StartedAt, nullTime(j.FinishedAt), j.Status,
		j.ItemsProcessed, j.ItemsAffected, nullStr(j.ErrorMessage),
		nullStr(j.Details),
	).Scan(&j.ID, &j.CreatedAt)
	if err != nil {
		return fmt.Errorf("create job log: %w", err)
	}
	return nil
}

func (r *JobLogRepo) Update(ctx context.Context, j *domain.JobLog) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE job_logs SET
			finished_at = $2, status = $3, items_processed = $4,
			items_affected = $5, error_message = $6, details = $7
		WHERE id = $1
	`, j.ID, nullTime(j.FinishedAt), j.Status, j.ItemsProcessed,
		j.ItemsAffected, nullStr(j.ErrorMessage), nullStr(j.Details))
	if err != nil {
		return fmt.Errorf("update job log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job log rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *JobLogRepo) ListRecent(ctx context.Context, limit int) ([]*domain.JobLog, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, job_name, job_type, started_at, finished_at, status,
		       items_processed, items_affected, error_message, details,
		       created_at
		FROM job_logs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list job logs: %w", err)
	}
	defer rows.Close()

	var out []*domain.JobLog
	for rows.Next() {
		j := &domain.JobLog{}
		var (
			finishedAt      sql.NullTime
			errMsg, details sql.NullString
		)
		if err := rows.Scan(
			&j.ID, &j.JobName, &j.JobType, &j.StartedAt, &finishedAt,
			&j.Status, &j.ItemsProcessed, &j.ItemsAffected, &errMsg,
			&details, &j.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job log: %w", err)
		}
		j.FinishedAt = timePtr(finishedAt)
		j.ErrorMessage = strPtr(errMsg)
		j.Details = strPtr(details)
		out = append(out, j)
	}
	return out, rows.Err()
}
