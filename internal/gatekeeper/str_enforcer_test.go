package gatekeeper

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipflow/flipflow/internal/domain"
)

func TestValidateManualPasses(t *testing.T) {
	e := NewSTREnforcer()
	res, err := e.ValidateManual(decimal.NewFromFloat(0.65), false)
	require.NoError(t, err)
	assert.True(t, res.Approved)
	assert.True(t, res.PassesThreshold)
	assert.Equal(t, domain.STRManual, res.Source)
	assert.Empty(t, res.Warning)
}

func TestValidateManualBlocksLowSTR(t *testing.T) {
	e := NewSTREnforcer()
	_, err := e.ValidateManual(decimal.NewFromFloat(0.25), false)
	assert.ErrorIs(t, err, ErrLowSTR)
}

func TestValidateManualOverride(t *testing.T) {
	e := NewSTREnforcer()
	res, err := e.ValidateManual(decimal.NewFromFloat(0.25), true)
	require.NoError(t, err)
	assert.True(t, res.Approved)
	assert.False(t, res.PassesThreshold)
	assert.NotEmpty(t, res.Warning)
}

func TestValidateManualRejectsOutOfRange(t *testing.T) {
	e := NewSTREnforcer()
	_, err := e.ValidateManual(decimal.NewFromFloat(1.2), false)
	assert.ErrorIs(t, err, ErrSTROutOfRange)
	_, err = e.ValidateManual(decimal.NewFromFloat(-0.1), false)
	assert.ErrorIs(t, err, ErrSTROutOfRange)
}

func TestValidateManualBoundary(t *testing.T) {
	e := NewSTREnforcer()
	res, err := e.ValidateManual(decimal.NewFromFloat(0.4), false)
	require.NoError(t, err)
	assert.True(t, res.PassesThreshold)
}

func TestValidateEstimatedNeverBlocks(t *testing.T) {
	e := NewSTREnforcer()
	res, err := e.ValidateEstimated(decimal.NewFromFloat(0.1))
	require.NoError(t, err)
	assert.True(t, res.Approved)
	assert.False(t, res.PassesThreshold)
	assert.Equal(t, domain.STREstimated, res.Source)
	assert.NotEmpty(t, res.Warning)
}

func TestCalculateSTR(t *testing.T) {
	assert.Equal(t, "0.6", CalculateSTR(60, 40).String())
	assert.True(t, CalculateSTR(0, 0).IsZero())
	assert.Equal(t, "1", CalculateSTR(10, 0).String())
}
