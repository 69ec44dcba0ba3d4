package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retention-engine/internal/models"
)

func historicalBatch(category models.RiskCategory, total, churned int) []models.ScoredCustomer {
	batch := make([]models.ScoredCustomer, 0, total)
	for i := 0; i < total; i++ {
		didChurn := i < churned
		batch = append(batch, models.ScoredCustomer{
			CustomerRecord: models.CustomerRecord{
				CustomerID: int64(i + 1),
				Churn:      &didChurn,
			},
			RiskCategory: category,
		})
	}
	return batch
}

func categoryEntry(t *testing.T, report *CalibrationReport, cat models.RiskCategory) CategoryCalibration {
	t.Helper()
	for _, entry := range report.Categories {
		if entry.Category == cat {
			return entry
		}
	}
	t.Fatalf("category %s missing from report", cat)
	return CategoryCalibration{}
}

func TestCalibrateFlagsAccurateCriticalBand(t *testing.T) {
	eng := newTestEngine(t)

	// 65% observed churn in CRITICAL is inside the >=0.6 expectation.
	report := eng.Calibrate(historicalBatch(models.RiskCritical, 100, 65))

	entry := categoryEntry(t, report, models.RiskCritical)
	assert.InDelta(t, 0.65, entry.ObservedChurnRate, 1e-9)
	assert.Equal(t, StatusAccurate, entry.Status)
	assert.Equal(t, 0, report.NeedsAttention)
}

func TestCalibrateFlagsDriftedCriticalBand(t *testing.T) {
	eng := newTestEngine(t)

	// 40% observed churn in CRITICAL means the band over-predicts.
	report := eng.Calibrate(historicalBatch(models.RiskCritical, 100, 40))

	entry := categoryEntry(t, report, models.RiskCritical)
	assert.InDelta(t, 0.40, entry.ObservedChurnRate, 1e-9)
	assert.Equal(t, StatusNeedsCalibration, entry.Status)
	assert.Equal(t, 1, report.NeedsAttention)
}

func TestCalibrateBandEdges(t *testing.T) {
	eng := newTestEngine(t)

	tests := []struct {
		name     string
		category models.RiskCategory
		total    int
		churned  int
		expected CalibrationStatus
	}{
		{"high at lower edge", models.RiskHigh, 10, 3, StatusAccurate},
		{"high at upper edge", models.RiskHigh, 10, 6, StatusAccurate},
		{"high above band", models.RiskHigh, 10, 7, StatusNeedsCalibration},
		{"medium inside band", models.RiskMedium, 10, 2, StatusAccurate},
		{"medium below band", models.RiskMedium, 100, 5, StatusNeedsCalibration},
		{"low inside band", models.RiskLow, 10, 1, StatusAccurate},
		{"low above band", models.RiskLow, 10, 3, StatusNeedsCalibration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := eng.Calibrate(historicalBatch(tt.category, tt.total, tt.churned))
			entry := categoryEntry(t, report, tt.category)
			assert.Equal(t, tt.expected, entry.Status)
		})
	}
}

func TestCalibrateSkipsRecordsWithoutGroundTruth(t *testing.T) {
	eng := newTestEngine(t)

	batch := historicalBatch(models.RiskHigh, 10, 4)
	batch = append(batch, models.ScoredCustomer{
		CustomerRecord: models.CustomerRecord{CustomerID: 999},
		RiskCategory:   models.RiskHigh,
	})

	report := eng.Calibrate(batch)
	require.Equal(t, 1, report.RecordsWithout)

	entry := categoryEntry(t, report, models.RiskHigh)
	assert.Equal(t, 10, entry.Customers)
	assert.InDelta(t, 0.4, entry.ObservedChurnRate, 1e-9)
}

func TestCalibrateEmptyCategoriesReportNoData(t *testing.T) {
	eng := newTestEngine(t)

	report := eng.Calibrate(historicalBatch(models.RiskCritical, 5, 4))

	assert.Equal(t, StatusNoData, categoryEntry(t, report, models.RiskLow).Status)
	assert.Equal(t, StatusNoData, categoryEntry(t, report, models.RiskMedium).Status)
	assert.Len(t, report.Categories, 4)
}
