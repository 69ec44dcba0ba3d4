package scoring

import (
	"fmt"
	"math"

	stderrors "retention-engine/internal/common/errors"
)

// WeightTolerance is how far the seven weights may drift from 1.0 before the
// engine refuses to start.
const WeightTolerance = 0.001

// Weights are the composite aggregation weights, one per sub-score. They must
// sum to 1.0 within WeightTolerance.
type Weights struct {
	Tenure      float64 `mapstructure:"tenure" json:"tenure"`
	Activity    float64 `mapstructure:"activity" json:"activity"`
	Spending    float64 `mapstructure:"spending" json:"spending"`
	Contract    float64 `mapstructure:"contract" json:"contract"`
	Renewal     float64 `mapstructure:"renewal" json:"renewal"`
	Social      float64 `mapstructure:"social" json:"social"`
	Acquisition float64 `mapstructure:"acquisition" json:"acquisition"`
}

// Sum returns the total of all seven weights.
func (w Weights) Sum() float64 {
	return w.Tenure + w.Activity + w.Spending + w.Contract + w.Renewal + w.Social + w.Acquisition
}

// Band is one threshold step of an evaluator: inputs up to UpperBound map to
// Score. Whether the bound is inclusive or exclusive is fixed per evaluator
// (tenure/renewal inclusive, activity/spending exclusive).
type Band struct {
	UpperBound float64 `mapstructure:"upper_bound" json:"upperBound"`
	Score      int     `mapstructure:"score" json:"score"`
}

// ContractScores maps the fixed plan lengths to contract risk. Plan lengths
// outside the known set take Other.
type ContractScores struct {
	Monthly     int `mapstructure:"monthly" json:"monthly"`           // exactly 1 month
	UpToQuarter int `mapstructure:"up_to_quarter" json:"upToQuarter"` // 2-3 months
	SixMonth    int `mapstructure:"six_month" json:"sixMonth"`
	Annual      int `mapstructure:"annual" json:"annual"`
	Other       int `mapstructure:"other" json:"other"`
}

// SocialScores maps group-class participation to social risk.
type SocialScores struct {
	Solo  int `mapstructure:"solo" json:"solo"`
	Group int `mapstructure:"group" json:"group"`
}

// AcquisitionScores maps the acquisition channel combination to risk.
type AcquisitionScores struct {
	None         int `mapstructure:"none" json:"none"`
	PartnerOnly  int `mapstructure:"partner_only" json:"partnerOnly"`
	ReferralOnly int `mapstructure:"referral_only" json:"referralOnly"`
	Both         int `mapstructure:"both" json:"both"`
}

// CategoryThresholds are the composite-score cutoffs for the risk buckets,
// each inclusive (>=).
type CategoryThresholds struct {
	Critical float64 `mapstructure:"critical" json:"critical"`
	High     float64 `mapstructure:"high" json:"high"`
	Medium   float64 `mapstructure:"medium" json:"medium"`
}

// ValueConfig parameterizes the customer value score:
// spendWeight*charges + contractWeight*(period*contractMultiplier) +
// acquisitionWeight*(acquisitionBonus when partner or referral).
type ValueConfig struct {
	SpendWeight        float64 `mapstructure:"spend_weight" json:"spendWeight"`
	ContractWeight     float64 `mapstructure:"contract_weight" json:"contractWeight"`
	AcquisitionWeight  float64 `mapstructure:"acquisition_weight" json:"acquisitionWeight"`
	ContractMultiplier float64 `mapstructure:"contract_multiplier" json:"contractMultiplier"`
	AcquisitionBonus   float64 `mapstructure:"acquisition_bonus" json:"acquisitionBonus"`
}

// PriorityRules are the ordered intervention-priority cutoffs. Rules are
// checked top to bottom; first match wins.
type PriorityRules struct {
	VIPValueMin        float64 `mapstructure:"vip_value_min" json:"vipValueMin"`
	HighValueMin       float64 `mapstructure:"high_value_min" json:"highValueMin"`
	AtRiskCompositeMin float64 `mapstructure:"at_risk_composite_min" json:"atRiskCompositeMin"`
	CriticalMin        float64 `mapstructure:"critical_min" json:"criticalMin"`
	HighMin            float64 `mapstructure:"high_min" json:"highMin"`
}

// RateBand is the expected observed-churn interval for one risk category.
type RateBand struct {
	Min float64 `mapstructure:"min" json:"min"`
	Max float64 `mapstructure:"max" json:"max"`
}

// CalibrationBands are the per-category expectations the calibration reporter
// checks observed churn rates against.
type CalibrationBands struct {
	Critical RateBand `mapstructure:"critical" json:"critical"`
	High     RateBand `mapstructure:"high" json:"high"`
	Medium   RateBand `mapstructure:"medium" json:"medium"`
	Low      RateBand `mapstructure:"low" json:"low"`
}

// Config is the complete scoring configuration: weights, threshold bands,
// classification cutoffs, value scoring, priority rules, and calibration
// expectations. It is loaded once at startup and read-only for the lifetime
// of a batch.
type Config struct {
	Weights Weights `mapstructure:"weights" json:"weights"`

	TenureBands   []Band `mapstructure:"tenure_bands" json:"tenureBands"` // inclusive upper bounds
	TenureDefault int    `mapstructure:"tenure_default" json:"tenureDefault"`

	ActivityZeroScore int    `mapstructure:"activity_zero_score" json:"activityZeroScore"` // exactly zero visits
	ActivityBands     []Band `mapstructure:"activity_bands" json:"activityBands"`          // exclusive upper bounds
	ActivityDefault   int    `mapstructure:"activity_default" json:"activityDefault"`

	SpendingBands   []Band `mapstructure:"spending_bands" json:"spendingBands"` // exclusive upper bounds
	SpendingDefault int    `mapstructure:"spending_default" json:"spendingDefault"`

	Contract ContractScores `mapstructure:"contract" json:"contract"`

	RenewalBands   []Band `mapstructure:"renewal_bands" json:"renewalBands"` // inclusive upper bounds
	RenewalDefault int    `mapstructure:"renewal_default" json:"renewalDefault"`

	Social      SocialScores      `mapstructure:"social" json:"social"`
	Acquisition AcquisitionScores `mapstructure:"acquisition" json:"acquisition"`

	Categories  CategoryThresholds `mapstructure:"categories" json:"categories"`
	Value       ValueConfig        `mapstructure:"value" json:"value"`
	Priority    PriorityRules      `mapstructure:"priority" json:"priority"`
	Calibration CalibrationBands   `mapstructure:"calibration" json:"calibration"`
}

// DefaultConfig returns the documented default scoring rules.
func DefaultConfig() *Config {
	return &Config{
		Weights: Weights{
			Tenure:      0.25,
			Activity:    0.30,
			Spending:    0.20,
			Contract:    0.10,
			Renewal:     0.10,
			Social:      0.03,
			Acquisition: 0.02,
		},
		TenureBands: []Band{
			{UpperBound: 1, Score: 90},
			{UpperBound: 3, Score: 70},
			{UpperBound: 6, Score: 40},
			{UpperBound: 12, Score: 20},
		},
		TenureDefault:     10,
		ActivityZeroScore: 100,
		ActivityBands: []Band{
			{UpperBound: 0.5, Score: 85},
			{UpperBound: 1, Score: 70},
			{UpperBound: 1.5, Score: 50},
			{UpperBound: 2, Score: 30},
			{UpperBound: 2.5, Score: 15},
		},
		ActivityDefault: 5,
		SpendingBands: []Band{
			{UpperBound: 50, Score: 80},
			{UpperBound: 100, Score: 60},
			{UpperBound: 150, Score: 40},
			{UpperBound: 200, Score: 25},
			{UpperBound: 300, Score: 15},
		},
		SpendingDefault: 5,
		Contract: ContractScores{
			Monthly:     70,
			UpToQuarter: 50,
			SixMonth:    30,
			Annual:      5,
			Other:       10,
		},
		RenewalBands: []Band{
			{UpperBound: 1, Score: 80},
			{UpperBound: 2, Score: 60},
			{UpperBound: 3, Score: 40},
			{UpperBound: 6, Score: 20},
		},
		RenewalDefault: 10,
		Social: SocialScores{
			Solo:  40,
			Group: 10,
		},
		Acquisition: AcquisitionScores{
			None:         30,
			PartnerOnly:  15,
			ReferralOnly: 10,
			Both:         5,
		},
		Categories: CategoryThresholds{
			Critical: 70,
			High:     50,
			Medium:   30,
		},
		Value: ValueConfig{
			SpendWeight:        0.6,
			ContractWeight:     0.2,
			AcquisitionWeight:  0.2,
			ContractMultiplier: 10,
			AcquisitionBonus:   50,
		},
		Priority: PriorityRules{
			VIPValueMin:        150,
			HighValueMin:       100,
			AtRiskCompositeMin: 50,
			CriticalMin:        70,
			HighMin:            50,
		},
		Calibration: CalibrationBands{
			Critical: RateBand{Min: 0.6, Max: 1.0},
			High:     RateBand{Min: 0.3, Max: 0.6},
			Medium:   RateBand{Min: 0.1, Max: 0.4},
			Low:      RateBand{Min: 0.0, Max: 0.2},
		},
	}
}

// Validate checks the configuration invariants. Any violation is a
// CONFIGURATION_INVALID error and must prevent the engine from starting.
func (c *Config) Validate() error {
	if diff := math.Abs(c.Weights.Sum() - 1.0); diff > WeightTolerance {
		return stderrors.NewConfigurationError(
			fmt.Sprintf("weights sum to %.4f, expected 1.0 within %.3f", c.Weights.Sum(), WeightTolerance))
	}
	for name, w := range map[string]float64{
		"tenure":      c.Weights.Tenure,
		"activity":    c.Weights.Activity,
		"spending":    c.Weights.Spending,
		"contract":    c.Weights.Contract,
		"renewal":     c.Weights.Renewal,
		"social":      c.Weights.Social,
		"acquisition": c.Weights.Acquisition,
	} {
		if w < 0 {
			return stderrors.NewConfigurationError(fmt.Sprintf("weight %s is negative", name))
		}
	}

	for name, bands := range map[string][]Band{
		"tenure_bands":   c.TenureBands,
		"activity_bands": c.ActivityBands,
		"spending_bands": c.SpendingBands,
		"renewal_bands":  c.RenewalBands,
	} {
		if len(bands) == 0 {
			return stderrors.NewConfigurationError(fmt.Sprintf("%s must not be empty", name))
		}
		prev := math.Inf(-1)
		for i, b := range bands {
			if b.UpperBound <= prev {
				return stderrors.NewConfigurationError(
					fmt.Sprintf("%s cut points must be strictly increasing (index %d)", name, i))
			}
			if b.Score < 0 || b.Score > 100 {
				return stderrors.NewConfigurationError(
					fmt.Sprintf("%s score at index %d is outside [0,100]", name, i))
			}
			prev = b.UpperBound
		}
	}

	for name, score := range map[string]int{
		"tenure_default":            c.TenureDefault,
		"activity_zero_score":       c.ActivityZeroScore,
		"activity_default":          c.ActivityDefault,
		"spending_default":          c.SpendingDefault,
		"contract.monthly":          c.Contract.Monthly,
		"contract.up_to_quarter":    c.Contract.UpToQuarter,
		"contract.six_month":        c.Contract.SixMonth,
		"contract.annual":           c.Contract.Annual,
		"contract.other":            c.Contract.Other,
		"renewal_default":           c.RenewalDefault,
		"social.solo":               c.Social.Solo,
		"social.group":              c.Social.Group,
		"acquisition.none":          c.Acquisition.None,
		"acquisition.partner_only":  c.Acquisition.PartnerOnly,
		"acquisition.referral_only": c.Acquisition.ReferralOnly,
		"acquisition.both":          c.Acquisition.Both,
	} {
		if score < 0 || score > 100 {
			return stderrors.NewConfigurationError(fmt.Sprintf("%s is outside [0,100]", name))
		}
	}

	if !(c.Categories.Critical > c.Categories.High && c.Categories.High > c.Categories.Medium && c.Categories.Medium > 0) {
		return stderrors.NewConfigurationError("category thresholds must satisfy critical > high > medium > 0")
	}
	if c.Priority.VIPValueMin <= c.Priority.HighValueMin {
		return stderrors.NewConfigurationError("priority vip_value_min must exceed high_value_min")
	}
	if c.Priority.CriticalMin <= c.Priority.HighMin {
		return stderrors.NewConfigurationError("priority critical_min must exceed high_min")
	}

	for name, band := range map[string]RateBand{
		"calibration.critical": c.Calibration.Critical,
		"calibration.high":     c.Calibration.High,
		"calibration.medium":   c.Calibration.Medium,
		"calibration.low":      c.Calibration.Low,
	} {
		if band.Min < 0 || band.Max > 1 || band.Min > band.Max {
			return stderrors.NewConfigurationError(fmt.Sprintf("%s must be a sub-interval of [0,1]", name))
		}
	}

	return nil
}
