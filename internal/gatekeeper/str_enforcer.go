package gatekeeper

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/flipflow/flipflow/internal/domain"
)

// ErrLowSTR is returned when a sell-through rate falls below the threshold
// and no override was requested.
var ErrLowSTR = errors.New("sell-through rate below threshold")

// ErrSTROutOfRange is returned for STR values outside [0, 1].
var ErrSTROutOfRange = errors.New("sell-through rate must be between 0 and 1")

// DefaultSTRThreshold is the minimum sell-through rate a listing must show
// before it goes live.
var DefaultSTRThreshold = decimal.NewFromFloat(0.4)

// STRResult reports an STR validation.
type STRResult struct {
	Approved        bool             `json:"approved"`
	STRValue        decimal.Decimal  `json:"str_value"`
	Threshold       decimal.Decimal  `json:"threshold"`
	Source          domain.STRSource `json:"source"`
	PassesThreshold bool             `json:"passes_threshold"`
	Warning         string           `json:"warning,omitempty"`
}

// STREnforcer blocks listings whose category sell-through rate says they
// will not move. Marketplace insights APIs are partner-gated, so the rate
// arrives manually (seller research) or as a rough search-based estimate.
type STREnforcer struct {
	threshold decimal.Decimal
}

// NewSTREnforcer returns an enforcer with the default threshold.
func NewSTREnforcer() *STREnforcer {
	return &STREnforcer{threshold: DefaultSTRThreshold}
}

// ValidateManual checks a manually-entered STR in [0, 1]. With allowOverride
// a failing rate is approved with a warning instead of blocked; this is the
// high-margin exception path.
func (e *STREnforcer) ValidateManual(strValue decimal.Decimal, allowOverride bool) (STRResult, error) {
	if strValue.IsNegative() || strValue.GreaterThan(decimal.NewFromInt(1)) {
		return STRResult{}, fmt.Errorf("%w: got %s", ErrSTROutOfRange, strValue)
	}

	passes := strValue.GreaterThanOrEqual(e.threshold)
	if !passes && !allowOverride {
		return STRResult{}, fmt.Errorf("%w: %s < %s", ErrLowSTR, strValue, e.threshold)
	}

	res := STRResult{
		Approved:        passes || allowOverride,
		STRValue:        strValue,
		Threshold:       e.threshold,
		Source:          domain.STRManual,
		PassesThreshold: passes,
	}
	if !passes && allowOverride {
		res.Warning = fmt.Sprintf(
			"STR %s is below %s threshold; approved via high margin exception",
			strValue, e.threshold)
	}
	return res, nil
}

// ValidateEstimated checks an STR derived from a sold/active search proxy.
// Estimated rates are never blocking: a failing rate is approved with a
// warning, since the proxy is too rough to kill a listing on its own.
func (e *STREnforcer) ValidateEstimated(strValue decimal.Decimal) (STRResult, error) {
	if strValue.IsNegative() || strValue.GreaterThan(decimal.NewFromInt(1)) {
		return STRResult{}, fmt.Errorf("%w: got %s", ErrSTROutOfRange, strValue)
	}
	passes := strValue.GreaterThanOrEqual(e.threshold)
	res := STRResult{
		Approved:        true,
		STRValue:        strValue,
		Threshold:       e.threshold,
		Source:          domain.STREstimated,
		PassesThreshold: passes,
	}
	if !passes {
		res.Warning = fmt.Sprintf(
			"estimated STR %s is below %s threshold; verify with category research",
			strValue, e.threshold)
	}
	return res, nil
}

// CalculateSTR computes sold / (sold + active). Zero when both counts are
// zero.
func CalculateSTR(soldCount, activeCount int) decimal.Decimal {
	total := soldCount + activeCount
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(soldCount)).Div(decimal.NewFromInt(int64(total)))
}
