// Package store defines the persistence seam. Policies receive a Session
// scoped to one transaction; the coordinator commits on success and rolls
// back on error, so a failed policy run leaves no partial writes.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/flipflow/flipflow/internal/domain"
)

// ErrNotFound is returned when a row does not exist. Implementations map
// their driver's sentinel (sql.ErrNoRows) onto it.
var ErrNotFound = errors.New("not found")

// Store opens transactional sessions.
type Store interface {
	// WithSession runs fn inside a transaction, committing when fn
	// returns nil and rolling back otherwise.
	WithSession(ctx context.Context, fn func(Session) error) error
	Close() error
}

// Session is one transaction's view of every repository.
type Session interface {
	Listings() ListingRepo
	Queue() QueueRepo
	Zombies() ZombieRepo
	Offers() OfferRepo
	Campaigns() CampaignRepo
	Profits() ProfitRepo
	Snapshots() SnapshotRepo
	JobLogs() JobLogRepo
}

// ListingRepo manages listing rows.
type ListingRepo interface {
	Get(ctx context.Context, id int64) (*domain.Listing, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Listing, error)
	ListByStatus(ctx context.Context, status domain.ListingStatus) ([]*domain.Listing, error)
	Create(ctx context.Context, l *domain.Listing) error
	Update(ctx context.Context, l *domain.Listing) error
}

// QueueRepo manages SmartQueue entries.
type QueueRepo interface {
	Create(ctx context.Context, e *domain.QueueEntry) error
	Get(ctx context.Context, id int64) (*domain.QueueEntry, error)
	ListPending(ctx context.Context, limit int) ([]*domain.QueueEntry, error)
	Update(ctx context.Context, e *domain.QueueEntry) error
	CountByStatus(ctx context.Context, status domain.QueueStatus) (int, error)
	CountReleasedSince(ctx context.Context, since time.Time) (int, error)
}

// ZombieRepo appends zombie audit rows.
type ZombieRepo interface {
	Create(ctx context.Context, r *domain.ZombieRecord) error
	ListByListing(ctx context.Context, listingID int64) ([]*domain.ZombieRecord, error)
}

// OfferRepo appends and queries per-buyer offer history. SentSince powers
// the outbound cooldown.
type OfferRepo interface {
	Create(ctx context.Context, r *domain.OfferRecord) error
	SentSince(ctx context.Context, listingID int64, buyerID string, since time.Time) (int, error)
	ListByListing(ctx context.Context, listingID int64) ([]*domain.OfferRecord, error)
}

// CampaignRepo manages promoted-listings campaigns.
type CampaignRepo interface {
	Create(ctx context.Context, c *domain.Campaign) error
	ActiveForListing(ctx context.Context, listingID int64) (*domain.Campaign, error)
	ListExpired(ctx context.Context, now time.Time) ([]*domain.Campaign, error)
	Update(ctx context.Context, c *domain.Campaign) error
}

// ProfitRepo appends per-sale fee breakdowns.
type ProfitRepo interface {
	Create(ctx context.Context, r *domain.ProfitRecord) error
	ListByListing(ctx context.Context, listingID int64) ([]*domain.ProfitRecord, error)
}

// SnapshotRepo appends daily traffic snapshots.
type SnapshotRepo interface {
	Create(ctx context.Context, s *domain.ListingSnapshot) error
	ListByListing(ctx context.Context, listingID int64, since time.Time) ([]*domain.ListingSnapshot, error)
}

// JobLogRepo records coordinator runs.
type JobLogRepo interface {
	Create(ctx context.Context, j *domain.JobLog) error
	Update(ctx context.Context, j *domain.JobLog) error
	ListRecent(ctx context.Context, limit int) ([]*domain.JobLog, error)
}
