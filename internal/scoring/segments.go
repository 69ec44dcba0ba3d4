package scoring

// Presentation segments carried on the scored record for downstream
// reporting. These mirror the tiers the business dashboards already bucket
// customers into; they feed labels, not scores.

// ValueTier buckets monthly ancillary spend.
func ValueTier(monthlyCharges float64) string {
	switch {
	case monthlyCharges < 100:
		return "Basic"
	case monthlyCharges < 200:
		return "Standard"
	case monthlyCharges < 300:
		return "Premium"
	default:
		return "VIP"
	}
}

// ActivityLevel buckets the weekly class visit rate.
func ActivityLevel(weeklyVisits float64) string {
	switch {
	case weeklyVisits < 1:
		return "Low"
	case weeklyVisits < 2:
		return "Moderate"
	case weeklyVisits < 3:
		return "High"
	default:
		return "Super Active"
	}
}

// TenureCategory buckets months since first visit.
func TenureCategory(lifetimeMonths float64) string {
	switch {
	case lifetimeMonths < 3:
		return "New"
	case lifetimeMonths < 6:
		return "Developing"
	case lifetimeMonths < 12:
		return "Established"
	default:
		return "Veteran"
	}
}
