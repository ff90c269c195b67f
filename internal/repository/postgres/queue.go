package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/store"
)

// QueueRepo implements store.QueueRepo.
type QueueRepo struct{ q querier }

const queueColumns = `
	id, listing_id, priority, scheduled_window, scheduled_at, released_at,
	status, error_message, batch_id, created_at, updated_at`

func scanQueueEntry(row rowScanner) (*domain.QueueEntry, error) {
	e := &domain.QueueEntry{}
	var (
		scheduledAt, releasedAt sql.NullTime
		errMsg, batchID         sql.NullString
	)
	err := row.Scan(
		&e.ID, &e.ListingID, &e.Priority, &e.ScheduledWindow, &scheduledAt,
		&releasedAt, &e.Status, &errMsg, &batchID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.ScheduledAt = timePtr(scheduledAt)
	e.ReleasedAt = timePtr(releasedAt)
	e.ErrorMessage = strPtr(errMsg)
	e.BatchID = strPtr(batchID)
	return e, nil
}

func (r *QueueRepo) Create(ctx context.Context, e *domain.QueueEntry) error {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO queue_entries
			(listing_id, priority, scheduled_window, scheduled_at,
			 released_at, status, error_message, batch_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
		RETURNING id, created_at, updated_at
	`, e.ListingID, e.Priority, e.ScheduledWindow, nullTime(e.ScheduledAt),
		nullTime(e.ReleasedAt), e.Status, nullStr(e.ErrorMessage), nullStr(e.BatchID),
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create queue entry: %w", err)
	}
	return nil
}

func (r *QueueRepo) Get(ctx context.Context, id int64) (*domain.QueueEntry, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT`+queueColumns+`
		FROM queue_entries WHERE id = $1
	`, id)
	e, err := scanQueueEntry(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get queue entry: %w", err)
	}
	return e, nil
}

// ListPending returns pending entries ordered by priority (highest first)
// then age, limited to the batch size.
func (r *QueueRepo) ListPending(ctx context.Context, limit int) ([]*domain.QueueEntry, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT`+queueColumns+`
		FROM queue_entries
		WHERE status = $1
		ORDER BY priority DESC, created_at ASC
		LIMIT $2
	`, domain.QueuePending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending queue entries: %w", err)
	}
	defer rows.Close()

	var out []*domain.QueueEntry
	for rows.Next() {
		e, err := scanQueueEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan queue entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *QueueRepo) Update(ctx context.Context, e *domain.QueueEntry) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE queue_entries SET
			priority = $2, scheduled_window = $3, scheduled_at = $4,
			released_at = $5, status = $6, error_message = $7, batch_id = $8,
			updated_at = NOW()
		WHERE id = $1
	`, e.ID, e.Priority, e.ScheduledWindow, nullTime(e.ScheduledAt),
		nullTime(e.ReleasedAt), e.Status, nullStr(e.ErrorMessage), nullStr(e.BatchID))
	if err != nil {
		return fmt.Errorf("update queue entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update queue entry rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *QueueRepo) CountByStatus(ctx context.Context, status domain.QueueStatus) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queue_entries WHERE status = $1`, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count queue entries: %w", err)
	}
	return n, nil
}

func (r *QueueRepo) CountReleasedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM queue_entries
		WHERE status = $1 AND released_at >= $2
	`, domain.QueueReleased, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count released queue entries: %w", err)
	}
	return n, nil
}
