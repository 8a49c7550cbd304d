package qualify

import (
	"errors"
	"fmt"

	"github.com/sunlend/solarqual/internal/location"
	"github.com/sunlend/solarqual/internal/solar"
)

// Input is one qualification request.
type Input struct {
	ZipCode     string  `json:"zipCode"`
	MonthlyBill float64 `json:"electricBill"`
	CreditBand  string  `json:"creditBand"`
	RoofSqFt    float64 `json:"roofSize"`
}

// ErrInvalidInput marks validation failures. Validation always happens
// before any I/O.
var ErrInvalidInput = errors.New("invalid input")

// ErrNoData is returned when the whole provider chain is exhausted.
var ErrNoData = errors.New("no data available")

// Validate checks every field and returns a wrapped ErrInvalidInput naming
// the first problem.
func (in Input) Validate() error {
	if !location.ValidZip(in.ZipCode) {
		return fmt.Errorf("%w: invalid ZIP code format", ErrInvalidInput)
	}
	if in.MonthlyBill < 50 || in.MonthlyBill > 500 {
		return fmt.Errorf("%w: electric bill must be between $50 and $500", ErrInvalidInput)
	}
	if in.RoofSqFt <= 0 || in.RoofSqFt > 50000 {
		return fmt.Errorf("%w: invalid roof size", ErrInvalidInput)
	}
	if !solar.ValidBand(in.CreditBand) {
		return fmt.Errorf("%w: invalid credit band", ErrInvalidInput)
	}
	return nil
}
