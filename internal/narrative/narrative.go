package narrative

import (
	"context"

	"github.com/sunlend/solarqual/internal/electricity"
	"github.com/sunlend/solarqual/internal/location"
	"github.com/sunlend/solarqual/internal/solar"
)

// Request carries everything the narrated qualification path needs. Location
// and Electricity are optional context; the generator copes without them.
type Request struct {
	ZipCode     string
	MonthlyBill float64
	CreditBand  solar.CreditBand
	RoofSqFt    float64

	Location    *location.Location
	Electricity *electricity.Profile
}

// Result is the structured narrated qualification. Its status follows the
// simplified credit-band-only rules, not the ratio/payback table.
type Result struct {
	Status          string       `json:"status"`
	SystemSizeKW    float64      `json:"system_size_kw"`
	TotalCost       float64      `json:"total_cost"`
	NetCost         float64      `json:"net_cost_after_incentives"`
	LifetimeSavings float64      `json:"lifetime_savings"`
	Explanation     string       `json:"explanation"`
	LoanTerms       ResultTerms  `json:"loan_terms"`
	Calculations    Calculations `json:"calculations"`
}

type ResultTerms struct {
	APR                float64 `json:"apr"`
	TermYears          int     `json:"term_years"`
	DownPaymentPercent float64 `json:"down_payment_percent"`
}

type Calculations struct {
	MonthlyKWhUsage        float64 `json:"monthly_kwh_usage"`
	SystemAnnualProduction float64 `json:"system_annual_production"`
}

// Generator produces a narrated qualification. Implementations are
// best-effort; callers must fall back to Fallback on any error.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}
