package narrative

import (
	"fmt"

	"github.com/sunlend/solarqual/internal/solar"
)

// VerdictSummary is the slice of a verdict the template explainer needs.
type VerdictSummary struct {
	Status         solar.Status
	MonthlyPayment float64
	CurrentBill    float64
	PaybackYears   float64
	SystemSizeKW   float64
	CreditBand     solar.CreditBand
}

// Explain renders a canned, human-sounding explanation for a table-path
// verdict. Template selection keys off savings, bill size, and credit band.
func Explain(v VerdictSummary) string {
	monthlySavings := v.CurrentBill - v.MonthlyPayment

	switch v.Status {
	case solar.StatusApproved:
		if monthlySavings > 50 {
			return fmt.Sprintf("Fantastic! You're pre-approved and your solar savings are impressive. You'll actually save $%.0f per month from day one, while building equity in your home. This is a no-brainer!",
				monthlySavings)
		}
		if monthlySavings > 0 {
			return fmt.Sprintf("Great news! You're pre-approved for solar financing. With an estimated monthly payment of $%.0f, you'll save $%.0f per month compared to your current electric bill. Your solar system will pay for itself in just %.1f years!",
				v.MonthlyPayment, monthlySavings, v.PaybackYears)
		}
		return fmt.Sprintf("Good news! You're pre-approved for solar financing. Your monthly payment of $%.0f is close to your current bill, but you'll be protected from rising electricity costs and own your power.",
			v.MonthlyPayment)

	case solar.StatusBorderline:
		if v.CreditBand == solar.BandFair || v.CreditBand == solar.BandPoor {
			return fmt.Sprintf("You're close! Your energy savings look great, but boosting your credit score just a bit could unlock better rates and lower your payment from $%.0f to under $%.0f.",
				v.MonthlyPayment, v.CurrentBill*0.9)
		}
		return fmt.Sprintf("You're on the edge of approval! With a monthly payment of $%.0f, solar could work for you. Consider a smaller system or improving your credit score by a few points to get better terms.",
			v.MonthlyPayment)

	default:
		if v.CurrentBill < 75 {
			return fmt.Sprintf("Your electric bill of $%.0f might be too low to justify a solar system right now. Solar typically makes sense for bills over $100/month. Consider energy efficiency improvements first.",
				v.CurrentBill)
		}
		if v.CreditBand == solar.BandPoor {
			return fmt.Sprintf("Solar will be a great option once you improve your credit score. Focus on paying down debts and making on-time payments. Even moving from '%s' to 'Fair' credit could make solar affordable for you.",
				v.CreditBand)
		}
		return fmt.Sprintf("Not quite ready for solar financing today, but don't give up! Your estimated payment of $%.0f is too high compared to your $%.0f electric bill. Here's what could help...",
			v.MonthlyPayment, v.CurrentBill)
	}
}
