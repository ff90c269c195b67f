// Package memory is an in-memory store.Store for offline mode and tests.
// Writes inside a session apply to staged copies and are promoted on commit,
// so a failed session leaves the store untouched, matching the transactional
// contract of the Postgres store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/store"
)

type state struct {
	listings  map[int64]*domain.Listing
	queue     map[int64]*domain.QueueEntry
	zombies   map[int64]*domain.ZombieRecord
	offers    map[int64]*domain.OfferRecord
	campaigns map[int64]*domain.Campaign
	profits   map[int64]*domain.ProfitRecord
	snapshots map[int64]*domain.ListingSnapshot
	jobLogs   map[int64]*domain.JobLog
	nextID    int64
}

func newState() *state {
	return &state{
		listings:  make(map[int64]*domain.Listing),
		queue:     make(map[int64]*domain.QueueEntry),
		zombies:   make(map[int64]*domain.ZombieRecord),
		offers:    make(map[int64]*domain.OfferRecord),
		campaigns: make(map[int64]*domain.Campaign),
		profits:   make(map[int64]*domain.ProfitRecord),
		snapshots: make(map[int64]*domain.ListingSnapshot),
		jobLogs:   make(map[int64]*domain.JobLog),
		nextID:    1,
	}
}

func (s *state) clone() *state {
	c := newState()
	c.nextID = s.nextID
	for id, l := range s.listings {
		cp := *l
		c.listings[id] = &cp
	}
	for id, e := range s.queue {
		cp := *e
		c.queue[id] = &cp
	}
	for id, z := range s.zombies {
		cp := *z
		c.zombies[id] = &cp
	}
	for id, o := range s.offers {
		cp := *o
		c.offers[id] = &cp
	}
	for id, cm := range s.campaigns {
		cp := *cm
		c.campaigns[id] = &cp
	}
	for id, p := range s.profits {
		cp := *p
		c.profits[id] = &cp
	}
	for id, sn := range s.snapshots {
		cp := *sn
		c.snapshots[id] = &cp
	}
	for id, j := range s.jobLogs {
		cp := *j
		c.jobLogs[id] = &cp
	}
	return c
}

// Store is the in-memory store.
type Store struct {
	mu sync.Mutex
	st *state
}

// New returns an empty in-memory store.
func New() *Store { return &Store{st: newState()} }

// WithSession runs fn against a staged copy and promotes it when fn
// returns nil.
func (s *Store) WithSession(ctx context.Context, fn func(store.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged := s.st.clone()
	if err := fn(&session{st: staged}); err != nil {
		return err
	}
	s.st = staged
	return nil
}

func (s *Store) Close() error { return nil }

// Seed inserts a listing outside any session, for tests and fixtures.
func (s *Store) Seed(l *domain.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == 0 {
		l.ID = s.st.nextID
		s.st.nextID++
	} else if l.ID >= s.st.nextID {
		s.st.nextID = l.ID + 1
	}
	cp := *l
	s.st.listings[l.ID] = &cp
}

// Listing returns a copy of a stored listing, for test assertions.
func (s *Store) Listing(id int64) (*domain.Listing, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.st.listings[id]
	if !ok {
		return nil, false
	}
	cp := *l
	return &cp, true
}

type session struct{ st *state }

func (s *session) Listings() store.ListingRepo   { return &listingRepo{st: s.st} }
func (s *session) Queue() store.QueueRepo        { return &queueRepo{st: s.st} }
func (s *session) Zombies() store.ZombieRepo     { return &zombieRepo{st: s.st} }
func (s *session) Offers() store.OfferRepo       { return &offerRepo{st: s.st} }
func (s *session) Campaigns() store.CampaignRepo { return &campaignRepo{st: s.st} }
func (s *session) Profits() store.ProfitRepo     { return &profitRepo{st: s.st} }
func (s *session) Snapshots() store.SnapshotRepo { return &snapshotRepo{st: s.st} }
func (s *session) JobLogs() store.JobLogRepo     { return &jobLogRepo{st: s.st} }

type listingRepo struct{ st *state }

func (r *listingRepo) Get(ctx context.Context, id int64) (*domain.Listing, error) {
	l, ok := r.st.listings[id]
	if !ok || l.DeletedAt != nil {
		return nil, store.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *listingRepo) GetBySKU(ctx context.Context, sku string) (*domain.Listing, error) {
	for _, l := range r.st.listings {
		if l.SKU == sku && l.DeletedAt == nil {
			cp := *l
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *listingRepo) ListByStatus(ctx context.Context, status domain.ListingStatus) ([]*domain.Listing, error) {
	var out []*domain.Listing
	for _, l := range r.st.listings {
		if l.Status == status && l.DeletedAt == nil {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *listingRepo) Create(ctx context.Context, l *domain.Listing) error {
	l.ID = r.st.nextID
	r.st.nextID++
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now
	cp := *l
	r.st.listings[l.ID] = &cp
	return nil
}

func (r *listingRepo) Update(ctx context.Context, l *domain.Listing) error {
	if _, ok := r.st.listings[l.ID]; !ok {
		return store.ErrNotFound
	}
	l.UpdatedAt = time.Now().UTC()
	cp := *l
	r.st.listings[l.ID] = &cp
	return nil
}

type queueRepo struct{ st *state }

func (r *queueRepo) Create(ctx context.Context, e *domain.QueueEntry) error {
	e.ID = r.st.nextID
	r.st.nextID++
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	cp := *e
	r.st.queue[e.ID] = &cp
	return nil
}

func (r *queueRepo) Get(ctx context.Context, id int64) (*domain.QueueEntry, error) {
	e, ok := r.st.queue[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *queueRepo) ListPending(ctx context.Context, limit int) ([]*domain.QueueEntry, error) {
	var out []*domain.QueueEntry
	for _, e := range r.st.queue {
		if e.Status == domain.QueuePending {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *queueRepo) Update(ctx context.Context, e *domain.QueueEntry) error {
	if _, ok := r.st.queue[e.ID]; !ok {
		return store.ErrNotFound
	}
	e.UpdatedAt = time.Now().UTC()
	cp := *e
	r.st.queue[e.ID] = &cp
	return nil
}

func (r *queueRepo) CountByStatus(ctx context.Context, status domain.QueueStatus) (int, error) {
	n := 0
	for _, e := range r.st.queue {
		if e.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *queueRepo) CountReleasedSince(ctx context.Context, since time.Time) (int, error) {
	n := 0
	for _, e := range r.st.queue {
		if e.Status == domain.QueueReleased && e.ReleasedAt != nil && !e.ReleasedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

type zombieRepo struct{ st *state }

func (r *zombieRepo) Create(ctx context.Context, rec *domain.ZombieRecord) error {
	rec.ID = r.st.nextID
	r.st.nextID++
	rec.CreatedAt = time.Now().UTC()
	cp := *rec
	r.st.zombies[rec.ID] = &cp
	return nil
}

func (r *zombieRepo) ListByListing(ctx context.Context, listingID int64) ([]*domain.ZombieRecord, error) {
	var out []*domain.ZombieRecord
	for _, z := range r.st.zombies {
		if z.ListingID == listingID {
			cp := *z
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.After(out[j].DetectedAt) })
	return out, nil
}

type offerRepo struct{ st *state }

func (r *offerRepo) Create(ctx context.Context, rec *domain.OfferRecord) error {
	rec.ID = r.st.nextID
	r.st.nextID++
	rec.CreatedAt = time.Now().UTC()
	cp := *rec
	r.st.offers[rec.ID] = &cp
	return nil
}

func (r *offerRepo) SentSince(ctx context.Context, listingID int64, buyerID string, since time.Time) (int, error) {
	n := 0
	for _, o := range r.st.offers {
		if o.ListingID == listingID && o.BuyerID == buyerID && !o.SentAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *offerRepo) ListByListing(ctx context.Context, listingID int64) ([]*domain.OfferRecord, error) {
	var out []*domain.OfferRecord
	for _, o := range r.st.offers {
		if o.ListingID == listingID {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	return out, nil
}

type campaignRepo struct{ st *state }

func (r *campaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	c.ID = r.st.nextID
	r.st.nextID++
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	cp := *c
	r.st.campaigns[c.ID] = &cp
	return nil
}

func (r *campaignRepo) ActiveForListing(ctx context.Context, listingID int64) (*domain.Campaign, error) {
	var latest *domain.Campaign
	for _, c := range r.st.campaigns {
		if c.ListingID == listingID && c.Status == domain.CampaignActive {
			if latest == nil || c.StartedAt.After(latest.StartedAt) {
				latest = c
			}
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *campaignRepo) ListExpired(ctx context.Context, now time.Time) ([]*domain.Campaign, error) {
	var out []*domain.Campaign
	for _, c := range r.st.campaigns {
		if c.Status == domain.CampaignActive && !c.EndsAt.After(now) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndsAt.Before(out[j].EndsAt) })
	return out, nil
}

func (r *campaignRepo) Update(ctx context.Context, c *domain.Campaign) error {
	if _, ok := r.st.campaigns[c.ID]; !ok {
		return store.ErrNotFound
	}
	c.UpdatedAt = time.Now().UTC()
	cp := *c
	r.st.campaigns[c.ID] = &cp
	return nil
}

type profitRepo struct{ st *state }

func (r *profitRepo) Create(ctx context.Context, rec *domain.ProfitRecord) error {
	rec.ID = r.st.nextID
	r.st.nextID++
	rec.CreatedAt = time.Now().UTC()
	cp := *rec
	r.st.profits[rec.ID] = &cp
	return nil
}

func (r *profitRepo) ListByListing(ctx context.Context, listingID int64) ([]*domain.ProfitRecord, error) {
	var out []*domain.ProfitRecord
	for _, p := range r.st.profits {
		if p.ListingID == listingID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type snapshotRepo struct{ st *state }

func (r *snapshotRepo) Create(ctx context.Context, s *domain.ListingSnapshot) error {
	for _, existing := range r.st.snapshots {
		if existing.ListingID == s.ListingID && existing.SnapshotDate.Equal(s.SnapshotDate) {
			s.ID = existing.ID
			cp := *s
			cp.CreatedAt = existing.CreatedAt
			r.st.snapshots[existing.ID] = &cp
			return nil
		}
	}
	s.ID = r.st.nextID
	r.st.nextID++
	s.CreatedAt = time.Now().UTC()
	cp := *s
	r.st.snapshots[s.ID] = &cp
	return nil
}

func (r *snapshotRepo) ListByListing(ctx context.Context, listingID int64, since time.Time) ([]*domain.ListingSnapshot, error) {
	var out []*domain.ListingSnapshot
	for _, s := range r.st.snapshots {
		if s.ListingID == listingID && !s.SnapshotDate.Before(since) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SnapshotDate.Before(out[j].SnapshotDate) })
	return out, nil
}

type jobLogRepo struct{ st *state }

func (r *jobLogRepo) Create(ctx context.Context, j *domain.JobLog) error {
	j.ID = r.st.nextID
	r.st.nextID++
	j.CreatedAt = time.Now().UTC()
	cp := *j
	r.st.jobLogs[j.ID] = &cp
	return nil
}

func (r *jobLogRepo) Update(ctx context.Context, j *domain.JobLog) error {
	if _, ok := r.st.jobLogs[j.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *j
	r.st.jobLogs[j.ID] = &cp
	return nil
}

func (r *jobLogRepo) ListRecent(ctx context.Context, limit int) ([]*domain.JobLog, error) {
	var out []*domain.JobLog
	for _, j := range r.st.jobLogs {
		cp := *j
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ store.Store = (*Store)(nil)
