package electricity

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sunlend/solarqual/internal/location"
)

func init() {
	RegisterSource("saveonenergy", func(d ProviderDescriptor, deps Deps) Source {
		return &saveOnEnergySource{baseURL: d.BaseURL, client: deps.Client}
	})
}

// saveOnEnergySource is the last-resort state-level scrape: rate pattern only,
// fixed default usage.
type saveOnEnergySource struct {
	baseURL string
	client  *http.Client
}

func (s *saveOnEnergySource) Key() string { return "saveonenergy" }

func (s *saveOnEnergySource) Fetch(ctx context.Context, loc *location.Location) (*Profile, error) {
	url := fmt.Sprintf("%s/electricity-rates/%s/", s.baseURL, loc.StateSlug())

	text, err := fetchPageText(ctx, s.client, url)
	if err != nil {
		return nil, err
	}

	rate, _, ok := extractRateCents(text)
	if !ok {
		return nil, nil
	}

	return &Profile{
		UtilityRatePerKWh:      rate,
		AverageMonthlyUsageKWh: defaultMonthlyUsageKWh,
		AverageMonthlyBill:     roundTo(rate*float64(defaultMonthlyUsageKWh), 2),
		Source:                 "saveonenergy.com",
	}, nil
}
