package electricity

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sunlend/solarqual/internal/location"
)

func init() {
	RegisterSource("findenergy", func(d ProviderDescriptor, deps Deps) Source {
		return &findEnergySource{baseURL: d.BaseURL, client: deps.Client}
	})
}

// findEnergySource scrapes the county-level page and runs the full three
// pattern extraction. It is the only source that can produce a locally
// observed bill figure.
type findEnergySource struct {
	baseURL string
	client  *http.Client
}

func (s *findEnergySource) Key() string { return "findenergy" }

// The page layout keys off a user-agent sniff; a browser UA gets the plain
// rendering the patterns expect.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

func (s *findEnergySource) Fetch(ctx context.Context, loc *location.Location) (*Profile, error) {
	url := fmt.Sprintf("%s/%s/%s-electricity/", s.baseURL, loc.StateSlug(), loc.County)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	text, err := HTMLToText(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	ext := ExtractFromText(text)
	if ext.Empty() {
		return nil, nil
	}

	p := &Profile{Source: "findenergy.com"}
	if ext.Bill != nil {
		p.AverageMonthlyBill = *ext.Bill
	}
	if ext.UsageKWh != nil {
		p.AverageMonthlyUsageKWh = *ext.UsageKWh
	}
	if ext.RatePerKWh != nil {
		p.UtilityRatePerKWh = *ext.RatePerKWh
	}
	return p, nil
}
