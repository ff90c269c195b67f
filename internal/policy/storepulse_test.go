package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipflow/flipflow/internal/gateway"
	"github.com/flipflow/flipflow/internal/gateway/mock"
	"github.com/flipflow/flipflow/internal/store"
	"github.com/flipflow/flipflow/internal/store/memory"
)

func TestPulseUpdatesEligibleListings(t *testing.T) {
	ctx := context.Background()
	gw := mock.New()
	require.NoError(t, gw.CreateInventoryItem(ctx, "SKU-1", gateway.InventoryItem{Quantity: 1}))
	require.NoError(t, gw.CreateInventoryItem(ctx, "SKU-2", gateway.InventoryItem{Quantity: 1}))

	st := memory.New()
	st.Seed(activeListing("SKU-1", "L1", "50.00", 10, 5))
	st.Seed(activeListing("SKU-2", "L2", "50.00", 10, 5))
	st.Seed(activeListing("SKU-3", "", "50.00", 10, 5)) // never published

	s := NewStorePulse(gw)

	var report *PulseReport
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		var err error
		report, err = s.Pulse(ctx, sess, PulseHandlingDays)
		return err
	}))

	assert.Equal(t, 2, report.TotalEligible)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 0, report.Errors)
	assert.Equal(t, 2, report.HandlingDays)
}

func TestPulseCountsPartialFailures(t *testing.T) {
	ctx := context.Background()
	gw := mock.New()
	require.NoError(t, gw.CreateInventoryItem(ctx, "SKU-1", gateway.InventoryItem{Quantity: 1}))

	st := memory.New()
	st.Seed(activeListing("SKU-1", "L1", "50.00", 10, 5))
	st.Seed(activeListing("SKU-2", "L2", "50.00", 10, 5)) // missing on the marketplace

	s := NewStorePulse(gw)

	var report *PulseReport
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		var err error
		report, err = s.Pulse(ctx, sess, PulseHandlingDays)
		return err
	}))

	assert.Equal(t, 2, report.TotalEligible)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Errors)
}

func TestPulseAbsorbsBulkFailure(t *testing.T) {
	ctx := context.Background()
	gw := mock.New()
	gw.InjectFailure("bulk_update_price_quantity", errors.New("boom"))

	st := memory.New()
	st.Seed(activeListing("SKU-1", "L1", "50.00", 10, 5))

	s := NewStorePulse(gw)

	var report *PulseReport
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		var err error
		report, err = s.Pulse(ctx, sess, PulseHandlingDays)
		return err
	}))

	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 0, report.Succeeded)
}

func TestRevertTargetsRestingValue(t *testing.T) {
	ctx := context.Background()
	gw := mock.New()
	require.NoError(t, gw.CreateInventoryItem(ctx, "SKU-1", gateway.InventoryItem{Quantity: 1}))

	st := memory.New()
	st.Seed(activeListing("SKU-1", "L1", "50.00", 10, 5))

	s := NewStorePulse(gw)

	var report *PulseReport
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		var err error
		report, err = s.Revert(ctx, sess)
		return err
	}))

	assert.Equal(t, RevertHandlingDays, report.HandlingDays)
	assert.Equal(t, 1, report.Succeeded)
}

func TestPulseWithNoEligibleListings(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	s := NewStorePulse(mock.New())

	var report *PulseReport
	require.NoError(t, st.WithSession(ctx, func(sess store.Session) error {
		var err error
		report, err = s.Pulse(ctx, sess, PulseHandlingDays)
		return err
	}))
	assert.Equal(t, 0, report.TotalEligible)
	assert.Equal(t, 0, report.Errors)
}
