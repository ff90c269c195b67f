// Package worker runs the engine's scheduled jobs: nightly policy
// passes, the surge-window queue release, the monthly store pulse, and
// the daily snapshot collector. Every job takes a distributed lock
// before running so multiple worker replicas stay idempotent.
package worker

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flipflow/flipflow/internal/config"
	"github.com/flipflow/flipflow/internal/engine"
	"github.com/flipflow/flipflow/internal/pkg/distlock"
	"github.com/flipflow/flipflow/internal/pkg/logger"
)

// DefaultTickInterval is how often the scheduler evaluates due jobs.
const DefaultTickInterval = time.Minute

// jobLockTTL bounds how long a crashed worker can hold a job lock.
const jobLockTTL = 30 * time.Minute

// job is one scheduled unit of work. due decides, given the current
// tick time and the last time this worker ran the job, whether to run.
type job struct {
	name string
	due  func(now, last time.Time) bool
	run  func(ctx context.Context) error
}

// Scheduler drives the engine's periodic jobs.
type Scheduler struct {
	coord *engine.Coordinator
	cfg   *config.Config

	// Lock backends; either may be nil. With neither, locking is a
	// process-local no-op (single-instance deployments).
	redisClient *redis.Client
	db          *sql.DB

	workerID string
	tick     time.Duration
	jobs     []job

	mu      sync.Mutex
	lastRun map[string]time.Time
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	now func() time.Time
}

// NewScheduler builds a scheduler over the coordinator.
func NewScheduler(coord *engine.Coordinator, cfg *config.Config) *Scheduler {
	hostname, _ := os.Hostname()
	s := &Scheduler{
		coord:    coord,
		cfg:      cfg,
		workerID: fmt.Sprintf("worker-%s-%d", hostname, time.Now().UnixNano()%10000),
		tick:     DefaultTickInterval,
		lastRun:  make(map[string]time.Time),
		now:      time.Now,
	}
	s.jobs = s.buildJobs()
	return s
}

// SetRedisClient enables Redis-backed job locks.
func (s *Scheduler) SetRedisClient(client *redis.Client) {
	s.redisClient = client
}

// SetDB enables the Postgres advisory-lock fallback.
func (s *Scheduler) SetDB(db *sql.DB) {
	s.db = db
}

// dailyAt fires once per day at the given UTC hour.
func dailyAt(hour int) func(now, last time.Time) bool {
	return func(now, last time.Time) bool {
		if now.UTC().Hour() != hour {
			return false
		}
		return last.IsZero() || now.UTC().Format("2006-01-02") != last.UTC().Format("2006-01-02")
	}
}

// every fires when at least d has passed since the last run.
func every(d time.Duration) func(now, last time.Time) bool {
	return func(now, last time.Time) bool {
		return last.IsZero() || now.Sub(last) >= d
	}
}

// monthlyAt fires once per month on the given day at the given UTC hour.
func monthlyAt(day, hour int) func(now, last time.Time) bool {
	return func(now, last time.Time) bool {
		u := now.UTC()
		if u.Day() != day || u.Hour() != hour {
			return false
		}
		return last.IsZero() || u.Format("2006-01") != last.UTC().Format("2006-01")
	}
}

func (s *Scheduler) buildJobs() []job {
	pulseDay := s.cfg.Growth.StorePulseDayOfMonth
	revertDay := pulseDay + 1
	if revertDay > 28 {
		revertDay = 1
	}

	return []job{
		{name: "repricer", due: dailyAt(2), run: func(ctx context.Context) error {
			_, err := s.coord.RunRepricer(ctx)
			return err
		}},
		{name: "zombie_scan", due: dailyAt(3), run: func(ctx context.Context) error {
			_, err := s.coord.RunZombieScan(ctx)
			return err
		}},
		{name: "auto_relist", due: dailyAt(4), run: func(ctx context.Context) error {
			_, err := s.coord.RunAutoRelist(ctx)
			return err
		}},
		{name: "campaign_cleanup", due: dailyAt(5), run: func(ctx context.Context) error {
			_, err := s.coord.RunCampaignCleanup(ctx)
			return err
		}},
		{name: "photo_shuffle", due: dailyAt(6), run: func(ctx context.Context) error {
			_, err := s.coord.RunPhotoShuffle(ctx)
			return err
		}},
		{name: "offer_snipe", due: every(time.Duration(s.cfg.Offers.PollIntervalHours) * time.Hour),
			run: func(ctx context.Context) error {
				_, err := s.coord.RunOfferSnipe(ctx)
				return err
			}},
		{name: "queue_release", due: s.queueReleaseDue, run: func(ctx context.Context) error {
			_, err := s.coord.ReleaseQueueBatch(ctx, false)
			return err
		}},
		{name: "store_pulse", due: monthlyAt(pulseDay, 8), run: func(ctx context.Context) error {
			_, err := s.coord.RunStorePulse(ctx)
			return err
		}},
		{name: "store_pulse_revert", due: monthlyAt(revertDay, 8), run: func(ctx context.Context) error {
			_, err := s.coord.RunStorePulseRevert(ctx)
			return err
		}},
		{name: "snapshot_collector", due: dailyAt(23), run: func(ctx context.Context) error {
			_, err := s.coord.RunSnapshotCollector(ctx)
			return err
		}},
	}
}

// queueReleaseDue releases a batch every 15 minutes, but only while the
// surge window is open.
func (s *Scheduler) queueReleaseDue(now, last time.Time) bool {
	if !s.coord.Queue().IsSurgeWindowActive(now) {
		return false
	}
	return last.IsZero() || now.Sub(last) >= 15*time.Minute
}

// Start begins the tick loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	logger.Info("scheduler starting", "worker_id", s.workerID, "jobs", len(s.jobs))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runDue(ctx, s.now())
			}
		}
	}()
	return nil
}

// Stop cancels the loop and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	logger.Info("scheduler stopped", "worker_id", s.workerID)
}

// runDue executes every due job under its lock.
func (s *Scheduler) runDue(ctx context.Context, now time.Time) {
	for _, j := range s.jobs {
		s.mu.Lock()
		last := s.lastRun[j.name]
		s.mu.Unlock()

		if !j.due(now, last) {
			continue
		}

		// Mark before running so a failing job waits for its next
		// slot instead of retrying every tick.
		s.mu.Lock()
		s.lastRun[j.name] = now
		s.mu.Unlock()

		lock := s.lockFor(j.name)
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			logger.Error("acquire job lock", "job", j.name, "error", err)
			continue
		}
		if !acquired {
			logger.Info("job locked by another worker", "job", j.name)
			continue
		}

		start := s.now()
		runErr := j.run(ctx)
		if relErr := lock.Release(ctx); relErr != nil {
			logger.Warn("release job lock", "job", j.name, "error", relErr)
		}

		if runErr != nil {
			logger.Error("job failed", "job", j.name, "error", runErr,
				"duration", s.now().Sub(start).String())
			continue
		}
		logger.Info("job finished", "job", j.name,
			"duration", s.now().Sub(start).String())
	}
}

// localLock is the no-lock fallback for single-instance deployments.
type localLock struct{}

func (localLock) Acquire(ctx context.Context) (bool, error) { return true, nil }
func (localLock) Release(ctx context.Context) error         { return nil }

func (s *Scheduler) lockFor(name string) distlock.Lock {
	key := "job:" + name
	switch {
	case s.redisClient != nil:
		return distlock.NewRedisLock(s.redisClient, key, jobLockTTL)
	case s.db != nil:
		return distlock.NewPGAdvisoryLock(s.db, key)
	default:
		return localLock{}
	}
}
