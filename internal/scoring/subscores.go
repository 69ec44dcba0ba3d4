package scoring

import (
	stderrors "retention-engine/internal/common/errors"
)

// The seven sub-score evaluators. Each is a total function over its documented
// domain: every non-negative input falls into exactly one band, with the
// configured default as the final step. Negative inputs are INVALID_INPUT.

// TenureRisk scores months since first visit. Band upper bounds are
// inclusive: lifetime of exactly 1 month is still the newest, riskiest band.
func (c *Config) TenureRisk(lifetimeMonths float64) (int, error) {
	if lifetimeMonths < 0 {
		return 0, stderrors.NewInvalidInputError("lifetime_months", "must be non-negative", lifetimeMonths)
	}
	for _, b := range c.TenureBands {
		if lifetimeMonths <= b.UpperBound {
			return b.Score, nil
		}
	}
	return c.TenureDefault, nil
}

// ActivityRisk scores the weekly class visit rate. A rate of exactly zero is
// full inactivity and takes its own score; the remaining bands use exclusive
// upper bounds.
func (c *Config) ActivityRisk(weeklyVisits float64) (int, error) {
	if weeklyVisits < 0 {
		return 0, stderrors.NewInvalidInputError("avg_class_frequency_current_month", "must be non-negative", weeklyVisits)
	}
	if weeklyVisits == 0 {
		return c.ActivityZeroScore, nil
	}
	for _, b := range c.ActivityBands {
		if weeklyVisits < b.UpperBound {
			return b.Score, nil
		}
	}
	return c.ActivityDefault, nil
}

// SpendingRisk scores monthly ancillary spend, exclusive upper bounds.
func (c *Config) SpendingRisk(monthlyCharges float64) (int, error) {
	if monthlyCharges < 0 {
		return 0, stderrors.NewInvalidInputError("avg_additional_charges_total", "must be non-negative", monthlyCharges)
	}
	for _, b := range c.SpendingBands {
		if monthlyCharges < b.UpperBound {
			return b.Score, nil
		}
	}
	return c.SpendingDefault, nil
}

// ContractRisk scores the plan length. The common plan lengths get exact
// scores; anything else the engine tolerates at the Other score.
func (c *Config) ContractRisk(periodMonths int) (int, error) {
	if periodMonths <= 0 {
		return 0, stderrors.NewInvalidInputError("contract_period_months", "must be positive", periodMonths)
	}
	switch {
	case periodMonths == 1:
		return c.Contract.Monthly, nil
	case periodMonths <= 3:
		return c.Contract.UpToQuarter, nil
	case periodMonths == 6:
		return c.Contract.SixMonth, nil
	case periodMonths == 12:
		return c.Contract.Annual, nil
	default:
		return c.Contract.Other, nil
	}
}

// RenewalRisk scores months until contract end, inclusive upper bounds.
func (c *Config) RenewalRisk(monthsToEnd float64) (int, error) {
	if monthsToEnd < 0 {
		return 0, stderrors.NewInvalidInputError("months_to_contract_end", "must be non-negative", monthsToEnd)
	}
	for _, b := range c.RenewalBands {
		if monthsToEnd <= b.UpperBound {
			return b.Score, nil
		}
	}
	return c.RenewalDefault, nil
}

// SocialRisk scores group-class participation.
func (c *Config) SocialRisk(groupVisits bool) int {
	if groupVisits {
		return c.Social.Group
	}
	return c.Social.Solo
}

// AcquisitionRisk scores the acquisition channel combination. Referral beats
// partner; having both is the stickiest.
func (c *Config) AcquisitionRisk(partner, promoFriends bool) int {
	switch {
	case partner && promoFriends:
		return c.Acquisition.Both
	case promoFriends:
		return c.Acquisition.ReferralOnly
	case partner:
		return c.Acquisition.PartnerOnly
	default:
		return c.Acquisition.None
	}
}
