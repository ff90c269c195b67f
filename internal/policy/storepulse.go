package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/flipflow/flipflow/internal/domain"
	"github.com/flipflow/flipflow/internal/gateway"
	"github.com/flipflow/flipflow/internal/pkg/logger"
	"github.com/flipflow/flipflow/internal/store"
)

// Handling-time targets for the pulse and its revert.
const (
	PulseHandlingDays  = 2
	RevertHandlingDays = 1
)

// PulseReport summarizes one store-wide handling-time update.
type PulseReport struct {
	HandlingDays  int `json:"handling_days"`
	TotalEligible int `json:"total_eligible"`
	Succeeded     int `json:"succeeded"`
	Errors        int `json:"errors"`
}

// StorePulse nudges the marketplace's search index by touching every live
// listing once a month: handling time goes to the pulse value, then a
// revert 24 hours later puts it back. The edit itself is the point.
type StorePulse struct {
	gw  gateway.Gateway
	now func() time.Time
}

// NewStorePulse builds the pulse runner.
func NewStorePulse(gw gateway.Gateway) *StorePulse {
	return &StorePulse{gw: gw, now: time.Now}
}

// Pulse sets handling time on every active listing with a marketplace item
// id. Per-item bulk failures are counted, not propagated.
func (s *StorePulse) Pulse(ctx context.Context, sess store.Session, handlingDays int) (*PulseReport, error) {
	active, err := sess.Listings().ListByStatus(ctx, domain.ListingActive)
	if err != nil {
		return nil, fmt.Errorf("list active listings: %w", err)
	}

	var updates []gateway.PriceQuantityUpdate
	for _, l := range active {
		if l.EbayItemID == nil {
			continue
		}
		days := handlingDays
		updates = append(updates, gateway.PriceQuantityUpdate{
			SKU:          l.SKU,
			HandlingDays: &days,
		})
	}

	report := &PulseReport{HandlingDays: handlingDays, TotalEligible: len(updates)}
	if len(updates) == 0 {
		return report, nil
	}

	res, err := s.gw.BulkUpdatePriceQuantity(ctx, updates)
	if err != nil {
		report.Errors = len(updates)
		logger.Error("store pulse bulk update failed", "error", err)
		return report, nil
	}
	report.Succeeded = len(res.Succeeded)
	report.Errors = len(res.Failed)

	logger.Info("store pulse",
		"handling_days", handlingDays, "eligible", report.TotalEligible,
		"succeeded", report.Succeeded, "errors", report.Errors)
	return report, nil
}

// Revert puts handling time back to the resting value.
func (s *StorePulse) Revert(ctx context.Context, sess store.Session) (*PulseReport, error) {
	return s.Pulse(ctx, sess, RevertHandlingDays)
}
