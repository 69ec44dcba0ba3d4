package scoring

import (
	"time"

	"retention-engine/internal/models"
)

// CalibrationStatus flags whether a risk category's observed churn rate fell
// inside its expected band.
type CalibrationStatus string

const (
	StatusAccurate         CalibrationStatus = "Accurate_Prediction"
	StatusNeedsCalibration CalibrationStatus = "Needs_Calibration"
	StatusNoData           CalibrationStatus = "No_Data"
)

// CategoryCalibration is the observed-vs-expected churn comparison for one
// risk category.
type CategoryCalibration struct {
	Category          models.RiskCategory `json:"category"`
	Customers         int                 `json:"customers"`
	Churned           int                 `json:"churned"`
	ObservedChurnRate float64             `json:"observedChurnRate"`
	ExpectedMin       float64             `json:"expectedMin"`
	ExpectedMax       float64             `json:"expectedMax"`
	Status            CalibrationStatus   `json:"status"`
}

// CalibrationReport is the read-only diagnostic over a scored historical
// batch. It never feeds back into the scoring configuration; recalibration is
// a separate, human-triggered ruleset change.
type CalibrationReport struct {
	GeneratedAt    time.Time             `json:"generatedAt"`
	RecordsTotal   int                   `json:"recordsTotal"`
	RecordsWithout int                   `json:"recordsWithoutGroundTruth"`
	Categories     []CategoryCalibration `json:"categories"`
	NeedsAttention int                   `json:"needsAttention"`
}

// Calibrate groups already-scored historical records by risk category and
// compares each category's observed churn rate with its expected band.
// Records without ground truth are counted and skipped; they cannot inform
// the comparison.
func (e *Engine) Calibrate(scored []models.ScoredCustomer) *CalibrationReport {
	type tally struct {
		customers int
		churned   int
	}
	tallies := map[models.RiskCategory]*tally{
		models.RiskCritical: {},
		models.RiskHigh:     {},
		models.RiskMedium:   {},
		models.RiskLow:      {},
	}

	withoutTruth := 0
	for i := range scored {
		rec := &scored[i]
		if rec.Churn == nil {
			withoutTruth++
			continue
		}
		t, ok := tallies[rec.RiskCategory]
		if !ok {
			continue
		}
		t.customers++
		if *rec.Churn {
			t.churned++
		}
	}

	bands := map[models.RiskCategory]RateBand{
		models.RiskCritical: e.cfg.Calibration.Critical,
		models.RiskHigh:     e.cfg.Calibration.High,
		models.RiskMedium:   e.cfg.Calibration.Medium,
		models.RiskLow:      e.cfg.Calibration.Low,
	}

	report := &CalibrationReport{
		GeneratedAt:    time.Now().UTC(),
		RecordsTotal:   len(scored),
		RecordsWithout: withoutTruth,
	}

	// Fixed order, riskiest first, so the report reads top-down.
	for _, cat := range []models.RiskCategory{models.RiskCritical, models.RiskHigh, models.RiskMedium, models.RiskLow} {
		t := tallies[cat]
		band := bands[cat]
		entry := CategoryCalibration{
			Category:    cat,
			Customers:   t.customers,
			Churned:     t.churned,
			ExpectedMin: band.Min,
			ExpectedMax: band.Max,
		}
		if t.customers == 0 {
			entry.Status = StatusNoData
		} else {
			entry.ObservedChurnRate = float64(t.churned) / float64(t.customers)
			if entry.ObservedChurnRate >= band.Min && entry.ObservedChurnRate <= band.Max {
				entry.Status = StatusAccurate
			} else {
				entry.Status = StatusNeedsCalibration
				report.NeedsAttention++
			}
		}
		report.Categories = append(report.Categories, entry)
	}

	if report.NeedsAttention > 0 {
		e.log.Warn("calibration drift detected", map[string]interface{}{
			"categoriesOutOfBand": report.NeedsAttention,
		})
	}

	return report
}
