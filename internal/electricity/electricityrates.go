package electricity

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sunlend/solarqual/internal/location"
)

func init() {
	RegisterSource("electricityrates", func(d ProviderDescriptor, deps Deps) Source {
		return &electricityRatesSource{baseURL: d.BaseURL, client: deps.Client}
	})
}

// defaultMonthlyUsageKWh stands in when a state-level page only publishes a
// rate. 900 kWh is the long-run national residential average.
const defaultMonthlyUsageKWh = 900

// electricityRatesSource scrapes the state-level rate page. Usage is matched
// with a loosened pattern and defaults when absent; the bill is derived.
type electricityRatesSource struct {
	baseURL string
	client  *http.Client
}

func (s *electricityRatesSource) Key() string { return "electricityrates" }

func (s *electricityRatesSource) Fetch(ctx context.Context, loc *location.Location) (*Profile, error) {
	url := fmt.Sprintf("%s/electricity-rates/%s/", s.baseURL, loc.StateSlug())

	text, err := fetchPageText(ctx, s.client, url)
	if err != nil {
		return nil, err
	}

	rate, _, ok := extractRateCents(text)
	if !ok {
		return nil, nil
	}

	usage := float64(defaultMonthlyUsageKWh)
	if v, ok := extractStateUsage(text); ok {
		usage = v
	}

	return &Profile{
		UtilityRatePerKWh:      rate,
		AverageMonthlyUsageKWh: usage,
		AverageMonthlyBill:     roundTo(rate*usage, 2),
		Source:                 "electricityrates.com",
	}, nil
}

// fetchPageText GETs a page with the browser UA and reduces it to text.
// Non-200 statuses are a "no data" result, not an error.
func fetchPageText(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil
	}
	return HTMLToText(resp.Body)
}
