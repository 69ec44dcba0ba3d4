package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "retention-engine/internal/common/errors"
	"retention-engine/internal/common/logger"
	"retention-engine/internal/models"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := NewEngine(DefaultConfig(), logger.NewNoOpLogger())
	require.NoError(t, err)
	return eng
}

func baselineRecord() *models.CustomerRecord {
	return &models.CustomerRecord{
		CustomerID:                1001,
		Age:                       30,
		LifetimeMonths:            8,
		ContractPeriodMonths:      6,
		MonthsToContractEnd:       4,
		AvgClassFrequencyCurrent:  2.2,
		AvgAdditionalChargesTotal: 160,
		GroupVisits:               true,
		Partner:                   true,
	}
}

func TestNewEngineRejectsBadWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights.Spending = 0.15 // sum becomes 0.95

	_, err := NewEngine(cfg, logger.NewNoOpLogger())
	require.Error(t, err)
	assert.True(t, stderrors.IsConfiguration(err))
}

func TestNewEngineRejectsUnorderedBands(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpendingBands[2].UpperBound = 40 // no longer increasing

	_, err := NewEngine(cfg, logger.NewNoOpLogger())
	require.Error(t, err)
	assert.True(t, stderrors.IsConfiguration(err))
}

func TestNewEngineAcceptsWeightsWithinTolerance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights.Acquisition += 0.0005

	_, err := NewEngine(cfg, logger.NewNoOpLogger())
	assert.NoError(t, err)
}

// The worked example from the scoring rules: a brand-new, inactive,
// low-spend, month-to-month customer about to lapse.
func TestScoreWorstCaseScenario(t *testing.T) {
	eng := newTestEngine(t)

	rec := &models.CustomerRecord{
		CustomerID:                42,
		Age:                       25,
		LifetimeMonths:            0,
		ContractPeriodMonths:      1,
		MonthsToContractEnd:       0.5,
		AvgClassFrequencyCurrent:  0,
		AvgAdditionalChargesTotal: 20,
		GroupVisits:               false,
		Partner:                   false,
		PromoFriends:              false,
	}

	scored, err := eng.Score(rec)
	require.NoError(t, err)

	assert.Equal(t, 90, scored.SubScores.Tenure)
	assert.Equal(t, 100, scored.SubScores.Activity)
	assert.Equal(t, 80, scored.SubScores.Spending)
	assert.Equal(t, 70, scored.SubScores.Contract)
	assert.Equal(t, 80, scored.SubScores.Renewal)
	assert.Equal(t, 40, scored.SubScores.Social)
	assert.Equal(t, 30, scored.SubScores.Acquisition)

	// 0.25*90 + 0.30*100 + 0.20*80 + 0.10*70 + 0.10*80 + 0.03*40 + 0.02*30
	assert.InDelta(t, 85.3, scored.CompositeRiskScore, 1e-9)
	assert.Equal(t, models.RiskCritical, scored.RiskCategory)
	assert.Equal(t, models.PriorityCriticalRisk, scored.InterventionPriority)
}

func TestValueScoreAndVIPPriority(t *testing.T) {
	eng := newTestEngine(t)

	rec := &models.CustomerRecord{
		CustomerID:                7,
		Age:                       40,
		LifetimeMonths:            2,
		ContractPeriodMonths:      12,
		MonthsToContractEnd:       2,
		AvgClassFrequencyCurrent:  0.8,
		AvgAdditionalChargesTotal: 250,
		Partner:                   true,
	}

	// 0.6*250 + 0.2*(12*10) + 0.2*50 = 150 + 24 + 10
	assert.Equal(t, 184, eng.ValueScore(rec))

	assert.Equal(t, models.PriorityVIPAtRisk, eng.Priority(184, 55))
	assert.Equal(t, models.PriorityHighValueAtRisk, eng.Priority(120, 55))
	assert.Equal(t, models.PriorityCriticalRisk, eng.Priority(50, 72))
	assert.Equal(t, models.PriorityHighRisk, eng.Priority(50, 55))
	assert.Equal(t, models.PriorityStandard, eng.Priority(184, 40))
}

func TestScoreIsIdempotent(t *testing.T) {
	eng := newTestEngine(t)
	rec := baselineRecord()

	first, err := eng.Score(rec)
	require.NoError(t, err)
	second, err := eng.Score(rec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCompositeAlwaysInRange(t *testing.T) {
	eng := newTestEngine(t)

	extremes := []models.SubScores{
		{},
		{Tenure: 100, Activity: 100, Spending: 100, Contract: 100, Renewal: 100, Social: 100, Acquisition: 100},
		{Tenure: 90, Activity: 5, Spending: 80, Contract: 5, Renewal: 80, Social: 10, Acquisition: 30},
	}
	for _, s := range extremes {
		c := eng.Composite(s)
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 100.0)
	}
}

// Worsening a single dimension must never lower the risk category.
func TestCategoryMonotonicInActivity(t *testing.T) {
	eng := newTestEngine(t)

	rec := baselineRecord()
	prevRank := -1
	for _, visits := range []float64{3, 2.4, 2, 1.9, 1.2, 0.9, 0.4, 0} {
		rec.AvgClassFrequencyCurrent = visits
		scored, err := eng.Score(rec)
		require.NoError(t, err)
		rank := scored.RiskCategory.Rank()
		assert.GreaterOrEqual(t, rank, prevRank,
			"category dropped when activity worsened to %.1f", visits)
		prevRank = rank
	}
}

func TestClassifyThresholdBoundaries(t *testing.T) {
	eng := newTestEngine(t)

	tests := []struct {
		composite float64
		expected  models.RiskCategory
	}{
		{85.3, models.RiskCritical},
		{70, models.RiskCritical},
		{69.9, models.RiskHigh},
		{50, models.RiskHigh},
		{49.9, models.RiskMedium},
		{30, models.RiskMedium},
		{29.9, models.RiskLow},
		{0, models.RiskLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, eng.Classify(tt.composite), "composite %.1f", tt.composite)
	}
}

func TestScoreRejectsInvalidRecords(t *testing.T) {
	eng := newTestEngine(t)

	tests := []struct {
		name   string
		mutate func(*models.CustomerRecord)
	}{
		{"non-positive customer id", func(r *models.CustomerRecord) { r.CustomerID = 0 }},
		{"negative lifetime", func(r *models.CustomerRecord) { r.LifetimeMonths = -1 }},
		{"negative charges", func(r *models.CustomerRecord) { r.AvgAdditionalChargesTotal = -5 }},
		{"zero contract period", func(r *models.CustomerRecord) { r.ContractPeriodMonths = 0 }},
		{"zero months to end", func(r *models.CustomerRecord) { r.MonthsToContractEnd = 0 }},
		{"months to end beyond contract", func(r *models.CustomerRecord) {
			r.ContractPeriodMonths = 6
			r.MonthsToContractEnd = 7
		}},
		{"negative class frequency", func(r *models.CustomerRecord) { r.AvgClassFrequencyCurrent = -0.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := baselineRecord()
			tt.mutate(rec)
			_, err := eng.Score(rec)
			require.Error(t, err)
			assert.True(t, stderrors.IsInvalidInput(err))
		})
	}
}

func TestChurnGroundTruthNeverAffectsScore(t *testing.T) {
	eng := newTestEngine(t)

	rec := baselineRecord()
	plain, err := eng.Score(rec)
	require.NoError(t, err)

	churned := true
	rec.Churn = &churned
	withTruth, err := eng.Score(rec)
	require.NoError(t, err)

	assert.Equal(t, plain.CompositeRiskScore, withTruth.CompositeRiskScore)
	assert.Equal(t, plain.RiskCategory, withTruth.RiskCategory)
	assert.Equal(t, plain.InterventionPriority, withTruth.InterventionPriority)
}

func TestSegmentLabels(t *testing.T) {
	assert.Equal(t, "Basic", ValueTier(99))
	assert.Equal(t, "Standard", ValueTier(100))
	assert.Equal(t, "Premium", ValueTier(250))
	assert.Equal(t, "VIP", ValueTier(300))

	assert.Equal(t, "Low", ActivityLevel(0.5))
	assert.Equal(t, "Moderate", ActivityLevel(1.5))
	assert.Equal(t, "High", ActivityLevel(2.5))
	assert.Equal(t, "Super Active", ActivityLevel(4))

	assert.Equal(t, "New", TenureCategory(1))
	assert.Equal(t, "Developing", TenureCategory(4))
	assert.Equal(t, "Established", TenureCategory(8))
	assert.Equal(t, "Veteran", TenureCategory(20))
}
