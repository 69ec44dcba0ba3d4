package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "retention-engine/internal/common/errors"
)

func TestTenureRisk(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		lifetime float64
		expected int
	}{
		{"brand new", 0, 90},
		{"exactly one month stays in first band", 1, 90},
		{"just past one month", 1.1, 70},
		{"exactly three months stays in second band", 3, 70},
		{"four months", 4, 40},
		{"exactly six months", 6, 40},
		{"exactly twelve months", 12, 20},
		{"veteran", 24, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := cfg.TenureRisk(tt.lifetime)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, score)
		})
	}
}

func TestActivityRisk(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		visits   float64
		expected int
	}{
		{"fully inactive", 0, 100},
		{"barely active", 0.3, 85},
		{"half a visit is already the next band", 0.5, 70},
		{"just under one", 0.99, 70},
		{"one visit per week", 1, 50},
		{"nearly two", 1.9, 30},
		{"two visits", 2, 15},
		{"regular", 2.4, 15},
		{"super active", 3, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := cfg.ActivityRisk(tt.visits)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, score)
		})
	}
}

func TestSpendingRisk(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		charges  float64
		expected int
	}{
		{"no extras", 0, 80},
		{"just under fifty", 49.99, 80},
		{"fifty is next band", 50, 60},
		{"mid range", 120, 40},
		{"two hundred", 200, 15},
		{"big spender", 300, 5},
		{"very big spender", 450, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := cfg.SpendingRisk(tt.charges)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, score)
		})
	}
}

func TestContractRisk(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		period   int
		expected int
	}{
		{"monthly", 1, 70},
		{"two months", 2, 50},
		{"quarterly", 3, 50},
		{"half year", 6, 30},
		{"annual", 12, 5},
		{"unusual four month plan tolerated", 4, 10},
		{"unusual two year plan tolerated", 24, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := cfg.ContractRisk(tt.period)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, score)
		})
	}
}

func TestRenewalRisk(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		toEnd    float64
		expected int
	}{
		{"expiring within a month", 0.5, 80},
		{"exactly one month", 1, 80},
		{"two months", 2, 60},
		{"three months", 3, 40},
		{"half a year", 6, 20},
		{"far out", 11, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := cfg.RenewalRisk(tt.toEnd)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, score)
		})
	}
}

func TestSocialAndAcquisitionRisk(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 40, cfg.SocialRisk(false))
	assert.Equal(t, 10, cfg.SocialRisk(true))

	assert.Equal(t, 30, cfg.AcquisitionRisk(false, false))
	assert.Equal(t, 15, cfg.AcquisitionRisk(true, false))
	assert.Equal(t, 10, cfg.AcquisitionRisk(false, true))
	assert.Equal(t, 5, cfg.AcquisitionRisk(true, true))
}

func TestSubScoresRejectNegativeInput(t *testing.T) {
	cfg := DefaultConfig()

	_, err := cfg.TenureRisk(-1)
	assert.True(t, stderrors.IsInvalidInput(err))

	_, err = cfg.ActivityRisk(-0.1)
	assert.True(t, stderrors.IsInvalidInput(err))

	_, err = cfg.SpendingRisk(-20)
	assert.True(t, stderrors.IsInvalidInput(err))

	_, err = cfg.ContractRisk(0)
	assert.True(t, stderrors.IsInvalidInput(err))

	_, err = cfg.RenewalRisk(-2)
	assert.True(t, stderrors.IsInvalidInput(err))
}

func TestSubScoresStayInRange(t *testing.T) {
	cfg := DefaultConfig()

	for lifetime := 0.0; lifetime <= 40; lifetime += 0.5 {
		score, err := cfg.TenureRisk(lifetime)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
	}
	for visits := 0.0; visits <= 6; visits += 0.1 {
		score, err := cfg.ActivityRisk(visits)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
	}
	for charges := 0.0; charges <= 600; charges += 10 {
		score, err := cfg.SpendingRisk(charges)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
	}
}
