// Package scoring implements the customer churn-risk scoring engine: seven
// weighted sub-scores combined into a composite 0-100 risk score, a coarse
// risk category, an independent customer value score, and an intervention
// priority label. Scoring is a pure function of one customer record; no
// cross-customer state, no randomness, no I/O.
package scoring

import (
	"math"

	"retention-engine/internal/common/logger"
	"retention-engine/internal/models"
)

// Engine scores customer records under one fixed configuration. The
// configuration is validated once at construction and never mutated
// mid-batch, so every record in a batch is scored under the same rules.
type Engine struct {
	cfg *Config
	log logger.Logger
}

// NewEngine validates cfg and returns a ready engine. An invalid
// configuration is fatal: the engine must not run with it.
func NewEngine(cfg *Config, log logger.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		cfg: cfg,
		log: log.WithFields(map[string]interface{}{"component": "scoring-engine"}),
	}, nil
}

// Config returns the engine's configuration (read-only by convention).
func (e *Engine) Config() *Config {
	return e.cfg
}

// Score derives the full ScoredCustomer from one record. A record is either
// fully scored or rejected with INVALID_INPUT; there is no partial result.
func (e *Engine) Score(rec *models.CustomerRecord) (*models.ScoredCustomer, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	tenure, err := e.cfg.TenureRisk(rec.LifetimeMonths)
	if err != nil {
		return nil, err
	}
	activity, err := e.cfg.ActivityRisk(rec.AvgClassFrequencyCurrent)
	if err != nil {
		return nil, err
	}
	spending, err := e.cfg.SpendingRisk(rec.AvgAdditionalChargesTotal)
	if err != nil {
		return nil, err
	}
	contract, err := e.cfg.ContractRisk(rec.ContractPeriodMonths)
	if err != nil {
		return nil, err
	}
	renewal, err := e.cfg.RenewalRisk(rec.MonthsToContractEnd)
	if err != nil {
		return nil, err
	}

	sub := models.SubScores{
		Tenure:      tenure,
		Activity:    activity,
		Spending:    spending,
		Contract:    contract,
		Renewal:     renewal,
		Social:      e.cfg.SocialRisk(rec.GroupVisits),
		Acquisition: e.cfg.AcquisitionRisk(rec.Partner, rec.PromoFriends),
	}

	composite := e.Composite(sub)
	value := e.ValueScore(rec)

	return &models.ScoredCustomer{
		CustomerRecord:       *rec,
		SubScores:            sub,
		CompositeRiskScore:   composite,
		RiskCategory:         e.Classify(composite),
		CustomerValueScore:   value,
		InterventionPriority: e.Priority(value, composite),
		ValueTier:            ValueTier(rec.AvgAdditionalChargesTotal),
		ActivityLevel:        ActivityLevel(rec.AvgClassFrequencyCurrent),
		TenureCategory:       TenureCategory(rec.LifetimeMonths),
	}, nil
}

// Composite combines the sub-scores via the configured weights, rounded to
// one decimal place half-away-from-zero (math.Round semantics). With weights
// summing to 1.0 and sub-scores in [0,100] the result is always in [0,100].
func (e *Engine) Composite(s models.SubScores) float64 {
	w := e.cfg.Weights
	raw := w.Tenure*float64(s.Tenure) +
		w.Activity*float64(s.Activity) +
		w.Spending*float64(s.Spending) +
		w.Contract*float64(s.Contract) +
		w.Renewal*float64(s.Renewal) +
		w.Social*float64(s.Social) +
		w.Acquisition*float64(s.Acquisition)
	return math.Round(raw*10) / 10
}

// Classify maps a composite score to its risk category. Step function,
// inclusive thresholds, monotonic in the score.
func (e *Engine) Classify(composite float64) models.RiskCategory {
	t := e.cfg.Categories
	switch {
	case composite >= t.Critical:
		return models.RiskCritical
	case composite >= t.High:
		return models.RiskHigh
	case composite >= t.Medium:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// ValueScore is the economic-importance proxy, independent of risk: ancillary
// spend plus contract commitment plus acquisition quality, rounded to the
// nearest integer.
func (e *Engine) ValueScore(rec *models.CustomerRecord) int {
	v := e.cfg.Value
	acquisition := 0.0
	if rec.Partner || rec.PromoFriends {
		acquisition = v.AcquisitionBonus
	}
	raw := v.SpendWeight*rec.AvgAdditionalChargesTotal +
		v.ContractWeight*(float64(rec.ContractPeriodMonths)*v.ContractMultiplier) +
		v.AcquisitionWeight*acquisition
	return int(math.Round(raw))
}

// Priority resolves the intervention label from value and composite risk.
// Ordered rule evaluation, first match wins: valuable customers at risk rank
// above customers who are merely at risk.
func (e *Engine) Priority(value int, composite float64) models.InterventionPriority {
	p := e.cfg.Priority
	v := float64(value)
	switch {
	case v >= p.VIPValueMin && composite >= p.AtRiskCompositeMin:
		return models.PriorityVIPAtRisk
	case v >= p.HighValueMin && composite >= p.AtRiskCompositeMin:
		return models.PriorityHighValueAtRisk
	case composite >= p.CriticalMin:
		return models.PriorityCriticalRisk
	case composite >= p.HighMin:
		return models.PriorityHighRisk
	default:
		return models.PriorityStandard
	}
}
