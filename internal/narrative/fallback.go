package narrative

import (
	"fmt"
	"math"

	"github.com/sunlend/solarqual/internal/solar"
)

// Fallback assumptions when no electricity data is in hand.
const (
	fallbackRatePerKWh = 0.15
	fallbackSunHours   = 5.0
)

// Fallback is the deterministic stand-in for a failed or disabled generator.
// It sizes from the bill at a 15 cents/kWh assumption, caps at roof capacity,
// floors at the minimum viable system, and decides on credit band alone.
// Identical in shape to a generated Result.
func Fallback(req Request) *Result {
	estimatedUsage := req.MonthlyBill / fallbackRatePerKWh
	usageBasedSize := estimatedUsage * 12 / (365 * fallbackSunHours * solar.SystemEfficiency)
	maxRoofCapacity := req.RoofSqFt / solar.RoofSqFtPerKW

	systemSize := math.Min(usageBasedSize, maxRoofCapacity)
	systemSize = math.Max(solar.MinSystemSizeKW, systemSize)

	grossCost := systemSize * 1000 * solar.CostPerWatt
	netCost := grossCost * 0.7 // federal credit only

	terms := solar.TermsFor(req.CreditBand)

	return &Result{
		Status:          string(solar.BandStatus(req.CreditBand)),
		SystemSizeKW:    round2(systemSize),
		TotalCost:       round2(grossCost),
		NetCost:         round2(netCost),
		LifetimeSavings: round2(req.MonthlyBill*12*25 - netCost),
		Explanation: fmt.Sprintf("Based on your $%v monthly bill and %s credit, this %.1fkW system is recommended.",
			req.MonthlyBill, req.CreditBand, systemSize),
		LoanTerms: ResultTerms{
			APR:                terms.APRPercent,
			TermYears:          terms.TermYears,
			DownPaymentPercent: terms.DownPaymentPercent,
		},
		Calculations: Calculations{
			MonthlyKWhUsage:        math.Round(estimatedUsage),
			SystemAnnualProduction: math.Round(systemSize * 365 * fallbackSunHours * solar.SystemEfficiency),
		},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
