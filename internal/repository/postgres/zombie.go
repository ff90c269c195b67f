package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/flipflow/flipflow/internal/domain"
)

// ZombieRepo implements store.ZombieRepo.
type ZombieRepo struct{ q querier }

func (r *ZombieRepo) Create(ctx context.Context, rec *domain.ZombieRecord) error {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO zombie_records
			(listing_id, detected_at, days_active_at_detection,
			 views_at_detection, action_taken, resurrected_at, old_item_id,
			 new_item_id, cycle_number, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
		RETURNING id, created_at
	`, rec.ListingID, rec.DetectedAt, rec.DaysActiveAtDetection,
		rec.ViewsAtDetection, rec.ActionTaken, nullTime(rec.ResurrectedAt),
		nullStr(rec.OldItemID), nullStr(rec.NewItemID), rec.CycleNumber,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("create zombie record: %w", err)
	}
	return nil
}

func (r *ZombieRepo) ListByListing(ctx context.Context, listingID int64) ([]*domain.ZombieRecord, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, listing_id, detected_at, days_active_at_detection,
		       views_at_detection, action_taken, resurrected_at, old_item_id,
		       new_item_id, cycle_number, created_at
		FROM zombie_records
		WHERE listing_id = $1
		ORDER BY detected_at DESC
	`, listingID)
	if err != nil {
		return nil, fmt.Errorf("list zombie records: %w", err)
	}
	defer rows.Close()

	var out []*domain.ZombieRecord
	for rows.Next() {
		rec := &domain.ZombieRecord{}
		var (
			resurrectedAt        sql.NullTime
			oldItemID, newItemID sql.NullString
		)
		if err := rows.Scan(
			&rec.ID, &rec.ListingID, &rec.DetectedAt,
			&rec.DaysActiveAtDetection, &rec.ViewsAtDetection,
			&rec.ActionTaken, &resurrectedAt, &oldItemID, &newItemID,
			&rec.CycleNumber, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan zombie record: %w", err)
		}
		rec.ResurrectedAt = timePtr(resurrectedAt)
		rec.OldItemID = strPtr(oldItemID)
		rec.NewItemID = strPtr(newItemID)
		out = append(out, rec)
	}
	return out, rows.Err()
}
