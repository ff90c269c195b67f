package worker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipflow/flipflow/internal/config"
	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/engine"
	"github.com/flipflow/flipflow/internal/gateway/mock"
	"github.com/flipflow/flipflow/internal/store"
	"github.com/flipflow/flipflow/internal/store/memory"
)

func newTestScheduler(t *testing.T) (*Scheduler, *memory.Store) {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	st := memory.New()
	coord, err := engine.New(st, mock.New(), cfg)
	require.NoError(t, err)
	return NewScheduler(coord, cfg), st
}

func TestDailyAtFiresOncePerDay(t *testing.T) {
	due := dailyAt(2)
	day := time.Date(2026, 8, 24, 2, 0, 0, 0, time.UTC)

	assert.True(t, due(day, time.Time{}))
	assert.False(t, due(day.Add(30*time.Minute), day))
	assert.False(t, due(day.Add(10*time.Hour), day)) // wrong hour
	assert.True(t, due(day.AddDate(0, 0, 1), day))
}

func TestEveryRespectsInterval(t *testing.T) {
	due := every(time.Hour)
	start := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	assert.True(t, due(start, time.Time{}))
	assert.False(t, due(start.Add(59*time.Minute), start))
	assert.True(t, due(start.Add(time.Hour), start))
}

func TestMonthlyAtFiresOncePerMonth(t *testing.T) {
	due := monthlyAt(1, 8)
	first := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	assert.True(t, due(first, time.Time{}))
	assert.False(t, due(first.Add(20*time.Minute), first))
	assert.False(t, due(time.Date(2026, 8, 2, 8, 0, 0, 0, time.UTC), first))
	assert.True(t, due(time.Date(2026, 9, 1, 8, 5, 0, 0, time.UTC), first))
}

func TestQueueReleaseOnlyDuringSurgeWindow(t *testing.T) {
	s, _ := newTestScheduler(t)
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2026-01-11 is a Sunday; the default window is Sunday 20:00-22:00 ET.
	inWindow := time.Date(2026, 1, 11, 20, 30, 0, 0, ny)
	outOfWindow := time.Date(2026, 1, 11, 12, 0, 0, 0, ny)

	assert.True(t, s.queueReleaseDue(inWindow, time.Time{}))
	assert.False(t, s.queueReleaseDue(outOfWindow, time.Time{}))
	assert.False(t, s.queueReleaseDue(inWindow.Add(5*time.Minute), inWindow))
	assert.True(t, s.queueReleaseDue(inWindow.Add(15*time.Minute), inWindow))
}

func recentJobs(t *testing.T, st *memory.Store) []*domain.JobLog {
	t.Helper()
	ctx := context.Background()
	var jobs []*domain.JobLog
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		var err error
		jobs, err = sess.JobLogs().ListRecent(ctx, 50)
		return err
	}))
	return jobs
}

func TestRunDueExecutesRepricer(t *testing.T) {
	ctx := context.Background()
	s, st := newTestScheduler(t)

	s.runDue(ctx, time.Date(2026, 8, 24, 2, 0, 30, 0, time.UTC))

	jobs := recentJobs(t, st)
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.JobName)
	}
	assert.Contains(t, names, "repricer")

	// A second tick in the same hour does not rerun the job.
	s.runDue(ctx, time.Date(2026, 8, 24, 2, 1, 30, 0, time.UTC))
	assert.Len(t, recentJobs(t, st), len(jobs))
}

func TestRunDueSkipsWhenLockHeld(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	s, st := newTestScheduler(t)
	s.SetRedisClient(rc)

	// Another worker holds the repricer lock.
	held := s.lockFor("repricer")
	ok, err := held.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	s.runDue(ctx, time.Date(2026, 8, 24, 2, 0, 30, 0, time.UTC))

	jobs := recentJobs(t, st)
	for _, j := range jobs {
		assert.NotEqual(t, "repricer", j.JobName)
	}
}

func TestStartAndStop(t *testing.T) {
	s, _ := newTestScheduler(t)
	s.tick = 10 * time.Millisecond

	require.NoError(t, s.Start())
	assert.Error(t, s.Start()) // double start rejected
	time.Sleep(30 * time.Millisecond)
	s.Stop()
}
