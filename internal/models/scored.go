package models

// RiskCategory is the coarse churn-risk bucket derived from the composite
// score. Higher composite never maps to a lower bucket.
type RiskCategory string

const (
	RiskCritical RiskCategory = "CRITICAL"
	RiskHigh     RiskCategory = "HIGH"
	RiskMedium   RiskCategory = "MEDIUM"
	RiskLow      RiskCategory = "LOW"
)

// Rank orders categories for monotonicity checks; higher means riskier.
func (c RiskCategory) Rank() int {
	switch c {
	case RiskCritical:
		return 3
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// InterventionPriority is the actionable label combining customer value and
// churn risk, used to allocate retention effort.
type InterventionPriority string

const (
	PriorityVIPAtRisk       InterventionPriority = "PRIORITY_1_VIP_AT_RISK"
	PriorityHighValueAtRisk InterventionPriority = "PRIORITY_2_HIGH_VALUE_AT_RISK"
	PriorityCriticalRisk    InterventionPriority = "PRIORITY_3_CRITICAL_RISK"
	PriorityHighRisk        InterventionPriority = "PRIORITY_4_HIGH_RISK"
	PriorityStandard        InterventionPriority = "STANDARD_MONITORING"
)

// SubScores are the seven per-dimension risk scores, each 0-100 with higher
// meaning riskier.
type SubScores struct {
	Tenure      int `json:"tenureRisk"`
	Activity    int `json:"activityRisk"`
	Spending    int `json:"spendingRisk"`
	Contract    int `json:"contractRisk"`
	Renewal     int `json:"renewalRisk"`
	Social      int `json:"socialRisk"`
	Acquisition int `json:"acquisitionRisk"`
}

// ScoredCustomer is the enriched output record: the input plus the derived
// scoring fields and segmentation labels.
type ScoredCustomer struct {
	CustomerRecord

	SubScores            SubScores            `json:"subScores"`
	CompositeRiskScore   float64              `json:"compositeRiskScore"`
	RiskCategory         RiskCategory         `json:"riskCategory"`
	CustomerValueScore   int                  `json:"customerValueScore"`
	InterventionPriority InterventionPriority `json:"interventionPriority"`

	ValueTier      string `json:"valueTier"`
	ActivityLevel  string `json:"activityLevel"`
	TenureCategory string `json:"tenureCategory"`
}

// BatchSummary aggregates one scoring run for reporting.
type BatchSummary struct {
	RunID           string                       `json:"runId"`
	Total           int                          `json:"total"`
	Scored          int                          `json:"scored"`
	Rejected        int                          `json:"rejected"`
	ByCategory      map[RiskCategory]int         `json:"byCategory"`
	ByPriority      map[InterventionPriority]int `json:"byPriority"`
	RevenueAtRisk   float64                      `json:"revenueAtRisk"`
	DurationSeconds float64                      `json:"durationSeconds"`
}
