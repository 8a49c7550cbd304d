package solar

// CreditBand is one of four discrete credit tiers.
type CreditBand string

const (
	BandExcellent CreditBand = "Excellent"
	BandGood      CreditBand = "Good"
	BandFair      CreditBand = "Fair"
	BandPoor      CreditBand = "Poor"
)

// ValidBand reports whether s names a known credit band.
func ValidBand(s string) bool {
	switch CreditBand(s) {
	case BandExcellent, BandGood, BandFair, BandPoor:
		return true
	}
	return false
}

// LoanTerms are the fixed lending terms for a credit band.
type LoanTerms struct {
	APRPercent         float64 `json:"apr"`
	TermYears          int     `json:"term"`
	DownPaymentPercent float64 `json:"downPayment"`
}

var loanTerms = map[CreditBand]LoanTerms{
	BandExcellent: {APRPercent: 3.99, TermYears: 25, DownPaymentPercent: 0},
	BandGood:      {APRPercent: 5.99, TermYears: 20, DownPaymentPercent: 0},
	BandFair:      {APRPercent: 8.99, TermYears: 15, DownPaymentPercent: 10},
	BandPoor:      {APRPercent: 12.99, TermYears: 10, DownPaymentPercent: 20},
}

// TermsFor returns the loan terms for a band; unknown bands get Fair terms.
func TermsFor(band CreditBand) LoanTerms {
	if t, ok := loanTerms[band]; ok {
		return t
	}
	return loanTerms[BandFair]
}
