package solar

import "math"

// Status is the tri-state qualification verdict.
type Status string

const (
	StatusApproved     Status = "approved"
	StatusBorderline   Status = "borderline"
	StatusNotQualified Status = "not_qualified"
)

// Decide renders the verdict from the ratio/payback rule table. A zero bill
// makes the ratio +Inf, which can never clear any threshold.
//
// There is a second, independent decision path (BandStatus) used by the
// narrative flow. The two are intentionally not equivalent; callers pick one
// and stick with it.
func Decide(band CreditBand, monthlyBill, monthlyPayment, paybackYears float64) Status {
	ratio := math.Inf(1)
	if monthlyBill > 0 {
		ratio = monthlyPayment / monthlyBill
	}

	switch band {
	case BandExcellent:
		if ratio <= 1.2 && paybackYears <= 10 {
			return StatusApproved
		}
		if ratio <= 1.5 && paybackYears <= 15 {
			return StatusBorderline
		}
	case BandGood:
		if ratio <= 1.0 && paybackYears <= 8 {
			return StatusApproved
		}
		if ratio <= 1.3 && paybackYears <= 12 {
			return StatusBorderline
		}
	case BandFair:
		if ratio <= 0.9 && paybackYears <= 7 {
			return StatusApproved
		}
		if ratio <= 1.1 && paybackYears <= 10 {
			return StatusBorderline
		}
	default: // Poor, and anything unrecognized
		if ratio <= 0.8 && paybackYears <= 5 {
			return StatusBorderline
		}
	}
	return StatusNotQualified
}

// BandStatus is the simplified credit-band-only decision used when the
// verdict is narrated: Excellent and Good approve, Fair is borderline,
// everything else does not qualify.
func BandStatus(band CreditBand) Status {
	switch band {
	case BandExcellent, BandGood:
		return StatusApproved
	case BandFair:
		return StatusBorderline
	default:
		return StatusNotQualified
	}
}
