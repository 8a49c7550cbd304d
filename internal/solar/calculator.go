package solar

import "math"

// Sizing and cost constants for a typical residential install.
const (
	PanelWattage     = 400   // watts per panel
	SystemEfficiency = 0.85  // includes inverter and wiring losses
	PanelDegradation = 0.005 // output lost per year
	CostPerWatt      = 2.75  // installed $/W

	RoofSqFtPerKW   = 250.0 // panel area plus spacing per kW
	MinSystemSizeKW = 2.0

	federalCreditRate = 0.30
	rateInflation     = 0.03 // assumed annual utility-rate increase
)

// CostBreakdown itemizes the install cost and incentives.
type CostBreakdown struct {
	GrossCost     float64 `json:"gross_cost"`
	FederalCredit float64 `json:"federal_credit"`
	StateCredit   float64 `json:"state_credit"`
	NetCost       float64 `json:"net_cost"`
}

// SystemSize returns the system size in kW needed to cover a household's
// usage, rounded to the nearest 0.5 kW. The rate is in cents per kWh.
func SystemSize(monthlyBill, rateCents, sunHours float64) float64 {
	monthlyKWh := monthlyBill / (rateCents / 100)
	annualKWh := monthlyKWh * 12
	sizeKW := annualKWh / (365 * sunHours * SystemEfficiency)
	return math.Round(sizeKW*2) / 2
}

// SystemCost prices a system and applies the federal credit plus any
// state incentive. States absent from the incentive table get $0.
func SystemCost(sizeKW float64, state string) CostBreakdown {
	gross := sizeKW * 1000 * CostPerWatt
	federal := gross * federalCreditRate
	stateCredit := stateIncentive(state, gross)
	return CostBreakdown{
		GrossCost:     round2(gross),
		FederalCredit: round2(federal),
		StateCredit:   round2(stateCredit),
		NetCost:       round2(gross - federal - stateCredit),
	}
}

// stateIncentive is a fixed table of capped state credits.
func stateIncentive(state string, gross float64) float64 {
	switch state {
	case "CA":
		return math.Min(1000, gross*0.05)
	case "NY":
		return math.Min(5000, gross*0.10)
	case "IL":
		return math.Min(3000, gross*0.07)
	case "TX", "FL":
		return 0
	default:
		return 0
	}
}

// MonthlyPayment amortizes a loan. A zero APR degenerates to straight
// division, avoiding the 0^n term in the amortization formula.
func MonthlyPayment(principal, aprPercent float64, termYears int) float64 {
	if aprPercent == 0 {
		return principal / (float64(termYears) * 12)
	}
	monthlyRate := aprPercent / 100 / 12
	n := float64(termYears * 12)
	factor := math.Pow(1+monthlyRate, n)
	payment := principal * (monthlyRate * factor) / (factor - 1)
	return round2(payment)
}

// PaybackYears estimates years until bill savings offset the system cost.
// When the loan payment does not exceed the current bill the system is
// cash-flow positive immediately and payback is 0. The positive branch
// deliberately divides the full system cost by the bill savings alone.
func PaybackYears(systemCost, monthlyBill, monthlyPayment float64) float64 {
	annualSavings := monthlyBill * 12
	netAnnualCost := monthlyPayment*12 - annualSavings
	if netAnnualCost <= 0 {
		return 0
	}
	return math.Round(systemCost/annualSavings*10) / 10
}

// LifetimeSavings sums degradation-adjusted production over the horizon and
// prices it at the inflation-averaged rate. Rate is in cents per kWh.
func LifetimeSavings(sizeKW, rateCents, sunHours float64, years int) float64 {
	totalKWh := 0.0
	for year := 0; year < years; year++ {
		efficiency := SystemEfficiency * (1 - PanelDegradation*float64(year))
		totalKWh += sizeKW * 365 * sunHours * efficiency
	}
	// Closed-form average of a geometrically inflating rate.
	y := float64(years)
	avgRate := rateCents * ((math.Pow(1+rateInflation, y) - 1) / (rateInflation * y))
	return round2(totalKWh * avgRate / 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
