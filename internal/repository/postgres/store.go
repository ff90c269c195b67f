// Package postgres implements the store contract against PostgreSQL using
// hand-written SQL over database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/flipflow/flipflow/internal/store"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx. Repos
// run against it so they work inside and outside transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store is the Postgres-backed store.
type Store struct{ db *sql.DB }

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing handle. Used by tests with sqlmock.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the underlying handle for migrations.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

// WithSession runs fn inside one transaction.
func (s *Store) WithSession(ctx context.Context, fn func(store.Session) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&session{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type session struct{ q querier }

func (s *session) Listings() store.ListingRepo   { return &ListingRepo{q: s.q} }
func (s *session) Queue() store.QueueRepo        { return &QueueRepo{q: s.q} }
func (s *session) Zombies() store.ZombieRepo     { return &ZombieRepo{q: s.q} }
func (s *session) Offers() store.OfferRepo       { return &OfferRepo{q: s.q} }
func (s *session) Campaigns() store.CampaignRepo { return &CampaignRepo{q: s.q} }
func (s *session) Profits() store.ProfitRepo     { return &ProfitRepo{q: s.q} }
func (s *session) Snapshots() store.SnapshotRepo { return &SnapshotRepo{q: s.q} }
func (s *session) JobLogs() store.JobLogRepo     { return &JobLogRepo{q: s.q} }

var _ store.Store = (*Store)(nil)
