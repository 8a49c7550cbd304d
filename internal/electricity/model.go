package electricity

import "time"

// Profile is the electricity economics for one location: what households pay,
// how much they use, and the retail rate in dollars per kWh. At most one
// profile is produced per request; Source names the provider that supplied it.
type Profile struct {
	AverageMonthlyBill     float64 `json:"average_monthly_bill"`
	AverageMonthlyUsageKWh float64 `json:"average_monthly_usage_kwh"`
	UtilityRatePerKWh      float64 `json:"utility_rate_per_kwh"`
	Source                 string  `json:"data_source"`
}

// RateCents returns the utility rate in cents per kWh, the unit the sizing
// math works in.
func (p *Profile) RateCents() float64 {
	return p.UtilityRatePerKWh * 100
}

// Snapshot is a cached chain result for a state+county pair.
type Snapshot struct {
	Profile   Profile
	FetchedAt time.Time
}
