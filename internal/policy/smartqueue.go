package policy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flipflow/flipflow/internal/config"
	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/gateway"
	"github.com/flipflow/flipflow/internal/pkg/logger"
	"github.com/flipflow/flipflow/internal/store"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ReleaseDetail is one queue entry processed during a batch release.
type ReleaseDetail struct {
	EntryID   int64   `json:"entry_id"`
	ListingID int64   `json:"listing_id"`
	SKU       string  `json:"sku"`
	Priority  int     `json:"priority"`
	Released  bool    `json:"released"`
	NewItemID *string `json:"new_item_id,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// ReleaseReport summarizes one batch release.
type ReleaseReport struct {
	BatchID   string          `json:"batch_id"`
	DryRun    bool            `json:"dry_run"`
	Selected  int             `json:"selected"`
	Released  int             `json:"released"`
	Failed    int             `json:"failed"`
	Details   []ReleaseDetail `json:"details"`
	WindowHit bool            `json:"window_active"`
}

// QueueStats is the queue's current shape by entry status.
type QueueStats struct {
	Pending       int  `json:"pending"`
	Released      int  `json:"released"`
	Failed        int  `json:"failed"`
	Cancelled     int  `json:"cancelled"`
	ReleasedToday int  `json:"released_today"`
	WindowActive  bool `json:"window_active"`
}

// SmartQueue drips new listings onto the marketplace during the weekly
// traffic surge instead of whenever they happen to be ready. The window
// predicate is informational; callers may release outside it.
type SmartQueue struct {
	gw            gateway.Gateway
	batchSize     int
	surgeDay      time.Weekday
	startHour     int
	endHour       int
	loc           *time.Location
	marketplaceID string
	now           func() time.Time
}

// NewSmartQueue builds the queue. The surge timezone must be a valid IANA
// zone name and the surge day a lowercase English weekday.
func NewSmartQueue(gw gateway.Gateway, cfg *config.Config) (*SmartQueue, error) {
	day, ok := weekdays[strings.ToLower(cfg.Queue.SurgeDay)]
	if !ok {
		return nil, fmt.Errorf("unknown surge window day %q", cfg.Queue.SurgeDay)
	}
	loc, err := time.LoadLocation(cfg.Queue.SurgeTimezone)
	if err != nil {
		return nil, fmt.Errorf("load surge timezone: %w", err)
	}
	return &SmartQueue{
		gw:            gw,
		batchSize:     cfg.Queue.BatchSize,
		surgeDay:      day,
		startHour:     cfg.Queue.SurgeStartHour,
		endHour:       cfg.Queue.SurgeEndHour,
		loc:           loc,
		marketplaceID: cfg.Ebay.MarketplaceID,
		now:           time.Now,
	}, nil
}

// IsSurgeWindowActive reports whether t, in the surge timezone, falls on
// the surge day with hour in [start, end).
func (q *SmartQueue) IsSurgeWindowActive(t time.Time) bool {
	local := t.In(q.loc)
	return local.Weekday() == q.surgeDay &&
		local.Hour() >= q.startHour &&
		local.Hour() < q.endHour
}

// Enqueue adds a listing to the queue and moves it to queued status.
func (q *SmartQueue) Enqueue(ctx context.Context, sess store.Session, listingID int64, priority int) (*domain.QueueEntry, error) {
	l, err := sess.Listings().Get(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("get listing %d: %w", listingID, err)
	}
	if err := l.Transition(domain.ListingQueued); err != nil {
		return nil, fmt.Errorf("queue listing %d: %w", listingID, err)
	}
	if err := sess.Listings().Update(ctx, l); err != nil {
		return nil, fmt.Errorf("update listing %d: %w", listingID, err)
	}

	window := fmt.Sprintf("%s %02d:00-%02d:00", q.surgeDay, q.startHour, q.endHour)
	entry := &domain.QueueEntry{
		ListingID:       listingID,
		Priority:        priority,
		ScheduledWindow: window,
		Status:          domain.QueuePending,
	}
	if err := sess.Queue().Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create queue entry: %w", err)
	}

	logger.Info("listing queued", "listing_id", listingID, "priority", priority, "window", window)
	return entry, nil
}

// Cancel marks a pending entry cancelled. The listing stays queued; a
// fresh enqueue is a no-op transition.
func (q *SmartQueue) Cancel(ctx context.Context, sess store.Session, entryID int64) error {
	entry, err := sess.Queue().Get(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get queue entry %d: %w", entryID, err)
	}
	if entry.Status != domain.QueuePending {
		return fmt.Errorf("queue entry %d is %s, not pending", entryID, entry.Status)
	}
	entry.Status = domain.QueueCancelled
	if err := sess.Queue().Update(ctx, entry); err != nil {
		return fmt.Errorf("update queue entry %d: %w", entryID, err)
	}
	return nil
}

// ReleaseBatch publishes up to batch_size pending entries, highest priority
// first, oldest first within a priority. Per-entry gateway failures mark
// that entry failed and continue. With dryRun the selection is returned
// untouched.
func (q *SmartQueue) ReleaseBatch(ctx context.Context, sess store.Session, dryRun bool) (*ReleaseReport, error) {
	pending, err := sess.Queue().ListPending(ctx, q.batchSize)
	if err != nil {
		return nil, fmt.Errorf("list pending entries: %w", err)
	}

	batchID := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	report := &ReleaseReport{
		BatchID:   batchID,
		DryRun:    dryRun,
		Selected:  len(pending),
		WindowHit: q.IsSurgeWindowActive(q.now()),
	}

	for _, entry := range pending {
		l, err := sess.Listings().Get(ctx, entry.ListingID)
		if err != nil {
			return nil, fmt.Errorf("get listing %d: %w", entry.ListingID, err)
		}

		detail := ReleaseDetail{
			EntryID:   entry.ID,
			ListingID: l.ID,
			SKU:       l.SKU,
			Priority:  entry.Priority,
		}
		if dryRun {
			report.Details = append(report.Details, detail)
			continue
		}

		itemID, offerID, err := q.publish(ctx, l)
		if err != nil {
			msg := err.Error()
			entry.Status = domain.QueueFailed
			entry.ErrorMessage = &msg
			entry.BatchID = &batchID
			if uerr := sess.Queue().Update(ctx, entry); uerr != nil {
				return nil, fmt.Errorf("update queue entry %d: %w", entry.ID, uerr)
			}
			detail.Error = msg
			report.Failed++
			report.Details = append(report.Details, detail)
			logger.Error("queue release failed", "entry_id", entry.ID, "listing_id", l.ID, "error", err)
			continue
		}

		now := q.now().UTC()
		l.EbayItemID = &itemID
		l.OfferID = &offerID
		if err := l.Transition(domain.ListingActive); err != nil {
			return nil, fmt.Errorf("activate listing %d: %w", l.ID, err)
		}
		l.ListedAt = &now
		l.DaysActive = 0
		if err := sess.Listings().Update(ctx, l); err != nil {
			return nil, fmt.Errorf("update listing %d: %w", l.ID, err)
		}

		entry.Status = domain.QueueReleased
		entry.ReleasedAt = &now
		entry.BatchID = &batchID
		if err := sess.Queue().Update(ctx, entry); err != nil {
			return nil, fmt.Errorf("update queue entry %d: %w", entry.ID, err)
		}

		detail.Released = true
		detail.NewItemID = &itemID
		report.Released++
		report.Details = append(report.Details, detail)
	}

	logger.Info("queue release",
		"batch_id", batchID, "selected", report.Selected,
		"released", report.Released, "failed", report.Failed, "dry_run", dryRun)
	return report, nil
}

// publish pushes one queued listing live: inventory item, offer, publish.
func (q *SmartQueue) publish(ctx context.Context, l *domain.Listing) (itemID, offerID string, err error) {
	item := gateway.InventoryItem{
		Title:       valueOr(l.TitleSanitized, l.Title),
		Description: valueOr(l.DescriptionMobile, l.Description),
		Brand:       valueOr(l.Brand, ""),
		Model:       valueOr(l.Model, ""),
		CategoryID:  valueOr(l.CategoryID, ""),
		ConditionID: l.ConditionID,
		Price:       l.ListPrice,
		Quantity:    1,
		PhotoURLs:   l.PhotoURLs,
	}
	if err := q.gw.CreateInventoryItem(ctx, l.SKU, item); err != nil {
		return "", "", fmt.Errorf("create inventory item: %w", err)
	}

	offer, err := q.gw.CreateOffer(ctx, gateway.OfferRequest{
		SKU:           l.SKU,
		MarketplaceID: q.marketplaceID,
		Price:         l.ListPrice,
		Quantity:      1,
		CategoryID:    valueOr(l.CategoryID, ""),
	})
	if err != nil {
		return "", "", fmt.Errorf("create offer: %w", err)
	}
	pub, err := q.gw.PublishOffer(ctx, offer.OfferID)
	if err != nil {
		return "", "", fmt.Errorf("publish offer: %w", err)
	}
	return pub.ListingID, offer.OfferID, nil
}

// Stats reports entry counts by status plus today's release count.
func (q *SmartQueue) Stats(ctx context.Context, sess store.Session) (*QueueStats, error) {
	stats := &QueueStats{WindowActive: q.IsSurgeWindowActive(q.now())}

	counts := []struct {
		status domain.QueueStatus
		dst    *int
	}{
		{domain.QueuePending, &stats.Pending},
		{domain.QueueReleased, &stats.Released},
		{domain.QueueFailed, &stats.Failed},
		{domain.QueueCancelled, &stats.Cancelled},
	}
	for _, c := range counts {
		n, err := sess.Queue().CountByStatus(ctx, c.status)
		if err != nil {
			return nil, fmt.Errorf("count %s entries: %w", c.status, err)
		}
		*c.dst = n
	}

	midnight := q.now().In(q.loc)
	midnight = time.Date(midnight.Year(), midnight.Month(), midnight.Day(), 0, 0, 0, 0, q.loc)
	n, err := sess.Queue().CountReleasedSince(ctx, midnight.UTC())
	if err != nil {
		return nil, fmt.Errorf("count releases today: %w", err)
	}
	stats.ReleasedToday = n

	return stats, nil
}
