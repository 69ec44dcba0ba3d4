package models

import (
	stderrors "retention-engine/internal/common/errors"
)

// CustomerRecord is one customer's snapshot as read from the upstream
// dataset. It is immutable for scoring purposes; the engine derives a
// ScoredCustomer from it and never writes back.
type CustomerRecord struct {
	CustomerID                int64   `json:"customerId"`
	Age                       int     `json:"age"`
	LifetimeMonths            float64 `json:"lifetimeMonths"`
	ContractPeriodMonths      int     `json:"contractPeriodMonths"`
	MonthsToContractEnd       float64 `json:"monthsToContractEnd"`
	AvgClassFrequencyCurrent  float64 `json:"avgClassFrequencyCurrentMonth"`
	AvgAdditionalChargesTotal float64 `json:"avgAdditionalChargesTotal"`
	GroupVisits               bool    `json:"groupVisits"`
	NearLocation              bool    `json:"nearLocation"`
	Partner                   bool    `json:"partner"`
	PromoFriends              bool    `json:"promoFriends"`

	// Churn is ground truth on historical rows only. It is never read by the
	// scoring path; the calibration reporter consumes it afterward.
	Churn *bool `json:"churn,omitempty"`
}

// Validate checks the documented field domains. Violations come back as
// INVALID_INPUT so the batch driver can apply its skip/abort policy.
func (c *CustomerRecord) Validate() error {
	if c.CustomerID <= 0 {
		return stderrors.NewInvalidInputError("customer_id", "must be a positive identifier", c.CustomerID)
	}
	if c.LifetimeMonths < 0 {
		return stderrors.NewInvalidInputError("lifetime_months", "must be non-negative", c.LifetimeMonths)
	}
	if c.ContractPeriodMonths <= 0 {
		return stderrors.NewInvalidInputError("contract_period_months", "must be a positive plan length", c.ContractPeriodMonths)
	}
	if c.MonthsToContractEnd <= 0 {
		return stderrors.NewInvalidInputError("months_to_contract_end", "must be positive", c.MonthsToContractEnd)
	}
	if c.MonthsToContractEnd > float64(c.ContractPeriodMonths) {
		// Rejected rather than silently corrected.
		return stderrors.NewInvalidInputError("months_to_contract_end", "exceeds contract_period_months", c.MonthsToContractEnd)
	}
	if c.AvgClassFrequencyCurrent < 0 {
		return stderrors.NewInvalidInputError("avg_class_frequency_current_month", "must be non-negative", c.AvgClassFrequencyCurrent)
	}
	if c.AvgAdditionalChargesTotal < 0 {
		return stderrors.NewInvalidInputError("avg_additional_charges_total", "must be non-negative", c.AvgAdditionalChargesTotal)
	}
	return nil
}
