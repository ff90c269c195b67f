// Package engine wires policies to the store and the gateway. The
// coordinator is the only caller of policy code: each run gets one
// transactional session, and every execute is bracketed by a job log row
// written outside that session so a rolled-back run still leaves a trace.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flipflow/flipflow/internal/config"
	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/gateway"
	"github.com/flipflow/flipflow/internal/pkg/logger"
	"github.com/flipflow/flipflow/internal/policy"
	"github.com/flipflow/flipflow/internal/store"
)

// Coordinator owns one instance of every policy, all bound to the same
// gateway and config.
type Coordinator struct {
	store store.Store
	gw    gateway.Gateway
	cfg   *config.Config

	repricer    *policy.Repricer
	zombies     *policy.ZombieKiller
	resurrector *policy.Resurrector
	relister    *policy.AutoRelister
	purgatory   *policy.Purgatory
	kickstarter *policy.Kickstarter
	sniper      *policy.OfferSniper
	shuffler    *policy.PhotoShuffler
	pulse       *policy.StorePulse
	queue       *policy.SmartQueue

	now func() time.Time
}

// New builds a coordinator. Fails when any policy's config is malformed.
func New(st store.Store, gw gateway.Gateway, cfg *config.Config) (*Coordinator, error) {
	repricer, err := policy.NewRepricer(gw, cfg)
	if err != nil {
		return nil, fmt.Errorf("build repricer: %w", err)
	}
	sniper, err := policy.NewOfferSniper(gw, cfg)
	if err != nil {
		return nil, fmt.Errorf("build offer sniper: %w", err)
	}
	queue, err := policy.NewSmartQueue(gw, cfg)
	if err != nil {
		return nil, fmt.Errorf("build smart queue: %w", err)
	}

	return &Coordinator{
		store:       st,
		gw:          gw,
		cfg:         cfg,
		repricer:    repricer,
		zombies:     policy.NewZombieKiller(gw, cfg),
		resurrector: policy.NewResurrector(gw, cfg),
		relister:    policy.NewAutoRelister(gw, cfg),
		purgatory:   policy.NewPurgatory(gw, cfg),
		kickstarter: policy.NewKickstarter(gw, cfg),
		sniper:      sniper,
		shuffler:    policy.NewPhotoShuffler(gw, cfg),
		pulse:       policy.NewStorePulse(gw),
		queue:       queue,
		now:         time.Now,
	}, nil
}

// Queue exposes the smart queue for the API's window/status endpoints.
func (c *Coordinator) Queue() *policy.SmartQueue { return c.queue }

// runLogged runs fn inside one session, bracketed by a job log row. The
// job row is committed in its own sessions so a failed run still records
// its failure.
func (c *Coordinator) runLogged(ctx context.Context, jobName, jobType string, fn func(store.Session) (processed, affected int, details any, err error)) error {
	job := &domain.JobLog{
		JobName:   jobName,
		JobType:   jobType,
		StartedAt: c.now().UTC(),
		Status:    domain.JobRunning,
	}
	if err := c.store.WithSession(ctx, func(sess store.Session) error {
		return sess.JobLogs().Create(ctx, job)
	}); err != nil {
		return fmt.Errorf("create job log: %w", err)
	}

	var processed, affected int
	var details any
	runErr := c.store.WithSession(ctx, func(sess store.Session) error {
		var err error
		processed, affected, details, err = fn(sess)
		return err
	})

	finished := c.now().UTC()
	job.FinishedAt = &finished
	job.ItemsProcessed = processed
	job.ItemsAffected = affected
	if runErr != nil {
		job.Status = domain.JobFailed
		msg := runErr.Error()
		job.ErrorMessage = &msg
	} else {
		job.Status = domain.JobSuccess
		if details != nil {
			if b, err := json.Marshal(details); err == nil {
				s := string(b)
				job.Details = &s
			}
		}
	}
	if err := c.store.WithSession(ctx, func(sess store.Session) error {
		return sess.JobLogs().Update(ctx, job)
	}); err != nil {
		logger.Error("finish job log", "job", jobName, "error", err)
	}

	return runErr
}

// RunRepricer executes one repricer scan.
func (c *Coordinator) RunRepricer(ctx context.Context) (*policy.RepriceReport, error) {
	var report *policy.RepriceReport
	err := c.runLogged(ctx, "repricer", "scheduled", func(sess store.Session) (int, int, any, error) {
		var err error
		report, err = c.repricer.Scan(ctx, sess)
		if err != nil {
			return 0, 0, nil, err
		}
		return report.TotalScanned, report.Repriced, report, nil
	})
	return report, err
}

// PreviewReprice computes the markdowns a scan would apply, without
// touching the store or the gateway.
func (c *Coordinator) PreviewReprice(ctx context.Context) (*policy.RepriceReport, error) {
	report := &policy.RepriceReport{}
	err := c.store.WithSession(ctx, func(sess store.Session) error {
		active, err := sess.Listings().ListByStatus(ctx, domain.ListingActive)
		if err != nil {
			return err
		}
		report.TotalScanned = len(active)
		for _, l := range active {
			if detail := c.repricer.CalculateReprice(l); detail != nil {
				report.Details = append(report.Details, *detail)
				report.Repriced++
			} else {
				report.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// RunZombieScan executes a detection pass. View counts sync; no listing
// changes status.
func (c *Coordinator) RunZombieScan(ctx context.Context) (*policy.ZombieScanResult, error) {
	var result *policy.ZombieScanResult
	err := c.runLogged(ctx, "zombie_scan", "scheduled", func(sess store.Session) (int, int, any, error) {
		var err error
		result, err = c.zombies.Scan(ctx, sess)
		if err != nil {
			return 0, 0, nil, err
		}
		return result.TotalScanned, result.ZombiesFound, result, nil
	})
	return result, err
}

// FlagZombie marks one listing as a zombie (or demotes it to purgatory).
func (c *Coordinator) FlagZombie(ctx context.Context, listingID int64) (*domain.ZombieRecord, error) {
	var rec *domain.ZombieRecord
	err := c.store.WithSession(ctx, func(sess store.Session) error {
		var err error
		rec, err = c.zombies.FlagZombie(ctx, sess, listingID)
		return err
	})
	return rec, err
}

// ResurrectListing runs the full resurrection pipeline for one listing.
func (c *Coordinator) ResurrectListing(ctx context.Context, listingID int64) (*policy.ResurrectionResult, error) {
	var res *policy.ResurrectionResult
	err := c.runLogged(ctx, "resurrector", "manual", func(sess store.Session) (int, int, any, error) {
		var err error
		res, err = c.resurrector.Resurrect(ctx, sess, listingID)
		if err != nil {
			return 0, 0, nil, err
		}
		affected := 0
		if res.Success {
			affected = 1
		}
		return 1, affected, res, nil
	})
	return res, err
}

// RunAutoRelist executes one preventive-relist pass.
func (c *Coordinator) RunAutoRelist(ctx context.Context) (*policy.RelistReport, error) {
	var report *policy.RelistReport
	err := c.runLogged(ctx, "auto_relist", "scheduled", func(sess store.Session) (int, int, any, error) {
		var err error
		report, err = c.relister.Run(ctx, sess)
		if err != nil {
			return 0, 0, nil, err
		}
		return report.TotalScanned, report.Relisted, report, nil
	})
	return report, err
}

// PreviewAutoRelist lists the candidates a run would touch.
func (c *Coordinator) PreviewAutoRelist(ctx context.Context) ([]policy.RelistCandidate, error) {
	var out []policy.RelistCandidate
	err := c.store.WithSession(ctx, func(sess store.Session) error {
		var err error
		out, err = c.relister.ScanCandidates(ctx, sess)
		return err
	})
	return out, err
}

// EnterPurgatory moves one exhausted zombie into liquidation pricing.
func (c *Coordinator) EnterPurgatory(ctx context.Context, listingID int64) (*policy.PurgatoryEntry, error) {
	var entry *policy.PurgatoryEntry
	err := c.store.WithSession(ctx, func(sess store.Session) error {
		var err error
		entry, err = c.purgatory.Enter(ctx, sess, listingID)
		return err
	})
	return entry, err
}

// ScanDonations lists purgatory listings ready for a human decision.
func (c *Coordinator) ScanDonations(ctx context.Context) ([]policy.DonateSuggestion, error) {
	var out []policy.DonateSuggestion
	err := c.store.WithSession(ctx, func(sess store.Session) error {
		var err error
		out, err = c.purgatory.ScanForDonations(ctx, sess)
		return err
	})
	return out, err
}

// PromoteListing creates a kickstarter campaign for one listing.
func (c *Coordinator) PromoteListing(ctx context.Context, listingID int64) (*policy.PromotionResult, error) {
	var res *policy.PromotionResult
	err := c.store.WithSession(ctx, func(sess store.Session) error {
		var err error
		res, err = c.kickstarter.Promote(ctx, sess, listingID)
		return err
	})
	return res, err
}

// RunCampaignCleanup ends expired kickstarter campaigns.
func (c *Coordinator) RunCampaignCleanup(ctx context.Context) (*policy.CleanupReport, error) {
	var report *policy.CleanupReport
	err := c.runLogged(ctx, "campaign_cleanup", "scheduled", func(sess store.Session) (int, int, any, error) {
		var err error
		report, err = c.kickstarter.CleanupExpired(ctx, sess)
		if err != nil {
			return 0, 0, nil, err
		}
		return report.ExpiredFound, report.Ended, report, nil
	})
	return report, err
}

// RunOfferSnipe sends tiered offers to watchers.
func (c *Coordinator) RunOfferSnipe(ctx context.Context) (*policy.SnipeReport, error) {
	var report *policy.SnipeReport
	err := c.runLogged(ctx, "offer_snipe", "scheduled", func(sess store.Session) (int, int, any, error) {
		var err error
		report, err = c.sniper.ScanAndSnipe(ctx, sess)
		if err != nil {
			return 0, 0, nil, err
		}
		return report.ListingsChecked, report.OffersSent, report, nil
	})
	return report, err
}

// AnswerOffer responds to an inbound buyer offer.
func (c *Coordinator) AnswerOffer(ctx context.Context, listingID int64, offerID, buyerID string, amount decimal.Decimal) (*policy.InboundDecision, error) {
	var decision *policy.InboundDecision
	err := c.store.WithSession(ctx, func(sess store.Session) error {
		var err error
		decision, err = c.sniper.EvaluateInbound(ctx, sess, listingID, offerID, buyerID, amount)
		return err
	})
	return decision, err
}

// RunPhotoShuffle rotates photos on unviewed listings.
func (c *Coordinator) RunPhotoShuffle(ctx context.Context) (*policy.ShuffleReport, error) {
	var report *policy.ShuffleReport
	err := c.runLogged(ctx, "photo_shuffle", "scheduled", func(sess store.Session) (int, int, any, error) {
		var err error
		report, err = c.shuffler.Run(ctx, sess)
		if err != nil {
			return 0, 0, nil, err
		}
		return report.TotalScanned, report.Shuffled, report, nil
	})
	return report, err
}

// RunStorePulse sets handling time store-wide to the pulse value.
func (c *Coordinator) RunStorePulse(ctx context.Context) (*policy.PulseReport, error) {
	var report *policy.PulseReport
	err := c.runLogged(ctx, "store_pulse", "scheduled", func(sess store.Session) (int, int, any, error) {
		var err error
		report, err = c.pulse.Pulse(ctx, sess, policy.PulseHandlingDays)
		if err != nil {
			return 0, 0, nil, err
		}
		return report.TotalEligible, report.Succeeded, report, nil
	})
	return report, err
}

// RunStorePulseRevert puts handling time back to the resting value.
func (c *Coordinator) RunStorePulseRevert(ctx context.Context) (*policy.PulseReport, error) {
	var report *policy.PulseReport
	err := c.runLogged(ctx, "store_pulse_revert", "scheduled", func(sess store.Session) (int, int, any, error) {
		var err error
		report, err = c.pulse.Revert(ctx, sess)
		if err != nil {
			return 0, 0, nil, err
		}
		return report.TotalEligible, report.Succeeded, report, nil
	})
	return report, err
}

// EnqueueListing adds a listing to the release queue.
func (c *Coordinator) EnqueueListing(ctx context.Context, listingID int64, priority int) (*domain.QueueEntry, error) {
	var entry *domain.QueueEntry
	err := c.store.WithSession(ctx, func(sess store.Session) error {
		var err error
		entry, err = c.queue.Enqueue(ctx, sess, listingID, priority)
		return err
	})
	return entry, err
}

// ReleaseQueueBatch publishes the next batch of queued listings. dryRun
// returns the selection without mutation and without a job log row.
func (c *Coordinator) ReleaseQueueBatch(ctx context.Context, dryRun bool) (*policy.ReleaseReport, error) {
	if dryRun {
		var report *policy.ReleaseReport
		err := c.store.WithSession(ctx, func(sess store.Session) error {
			var err error
			report, err = c.queue.ReleaseBatch(ctx, sess, true)
			return err
		})
		return report, err
	}

	var report *policy.ReleaseReport
	err := c.runLogged(ctx, "queue_release", "scheduled", func(sess store.Session) (int, int, any, error) {
		var err error
		report, err = c.queue.ReleaseBatch(ctx, sess, false)
		if err != nil {
			return 0, 0, nil, err
		}
		return report.Selected, report.Released, report, nil
	})
	return report, err
}

// CancelQueueEntry cancels a pending queue entry.
func (c *Coordinator) CancelQueueEntry(ctx context.Context, entryID int64) error {
	return c.store.WithSession(ctx, func(sess store.Session) error {
		return c.queue.Cancel(ctx, sess, entryID)
	})
}

// QueueStats reports the queue's current shape.
func (c *Coordinator) QueueStats(ctx context.Context) (*policy.QueueStats, error) {
	var stats *policy.QueueStats
	err := c.store.WithSession(ctx, func(sess store.Session) error {
		var err error
		stats, err = c.queue.Stats(ctx, sess)
		return err
	})
	return stats, err
}

// RecentJobs lists the latest job log rows.
func (c *Coordinator) RecentJobs(ctx context.Context, limit int) ([]*domain.JobLog, error) {
	var out []*domain.JobLog
	err := c.store.WithSession(ctx, func(sess store.Session) error {
		var err error
		out, err = sess.JobLogs().ListRecent(ctx, limit)
		return err
	})
	return out, err
}
