package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/store"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestWithSessionCommitsOnSuccess(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM queue_entries`).
		WithArgs(string(domain.QueuePending)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectCommit()

	err := s.WithSession(context.Background(), func(sess store.Session) error {
		n, err := sess.Queue().CountByStatus(context.Background(), domain.QueuePending)
		if err != nil {
			return err
		}
		assert.Equal(t, 3, n)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithSessionRollsBackOnError(t *testing.T) {
	s, mock := newMock(t)
	boom := errors.New("policy failed")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := s.WithSession(context.Background(), func(store.Session) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingGetNotFound(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM listings`).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := s.WithSession(context.Background(), func(sess store.Session) error {
		_, err := sess.Listings().Get(context.Background(), 42)
		return err
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueCountReleasedSince(t *testing.T) {
	s, mock := newMock(t)
	since := time.Date(2026, 8, 16, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM queue_entries`).
		WithArgs(string(domain.QueueReleased), since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectCommit()

	err := s.WithSession(context.Background(), func(sess store.Session) error {
		n, err := sess.Queue().CountReleasedSince(context.Background(), since)
		require.NoError(t, err)
		assert.Equal(t, 7, n)
		return nil
	})
	require.NoError(t, err)
}

func TestCampaignUpdateNotFound(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE campaigns SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	c := &domain.Campaign{ID: 9, CampaignType: domain.CampaignKickstarter, Status: domain.CampaignEnded}
	err := s.WithSession(context.Background(), func(sess store.Session) error {
		return sess.Campaigns().Update(context.Background(), c)
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}
