package electricity

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sunlend/solarqual/internal/location"
)

func init() {
	RegisterSource("eia", func(d ProviderDescriptor, deps Deps) Source {
		return &eiaSource{url: d.BaseURL, apiKey: deps.EIAAPIKey, client: deps.Client}
	})
}

// eiaSource queries the EIA retail-sales dataset for the most recent monthly
// residential aggregate of a state and derives the per-customer figures.
// Unlike the scrapers it is numerically exact.
type eiaSource struct {
	url    string
	apiKey string
	client *http.Client
}

func (s *eiaSource) Key() string { return "eia" }

type eiaResponse struct {
	Response struct {
		Data []struct {
			Period    string      `json:"period"`
			Sales     json.Number `json:"sales"`
			Revenue   json.Number `json:"revenue"`
			Customers json.Number `json:"customers"`
		} `json:"data"`
	} `json:"response"`
}

func (s *eiaSource) Fetch(ctx context.Context, loc *location.Location) (*Profile, error) {
	params := url.Values{}
	params.Set("api_key", s.apiKey)
	params.Set("frequency", "monthly")
	params.Set("data[0]", "sales")
	params.Set("data[1]", "revenue")
	params.Set("data[2]", "customers")
	params.Set("facets[stateid][]", loc.StateCode)
	params.Set("facets[sectorid][]", "RES")
	params.Set("sort[0][column]", "period")
	params.Set("sort[0][direction]", "desc")
	params.Set("offset", "0")
	params.Set("length", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch EIA data for %s: %w", loc.StateCode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("EIA returned status %d", resp.StatusCode)
	}

	var er eiaResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("decode EIA response: %w", err)
	}
	if len(er.Response.Data) == 0 {
		return nil, nil
	}

	row := er.Response.Data[0]
	sales, err := asFloat(row.Sales)
	if err != nil {
		return nil, fmt.Errorf("parse sales: %w", err)
	}
	revenue, err := asFloat(row.Revenue)
	if err != nil {
		return nil, fmt.Errorf("parse revenue: %w", err)
	}
	customers, err := asFloat(row.Customers)
	if err != nil {
		return nil, fmt.Errorf("parse customers: %w", err)
	}
	if sales <= 0 || customers <= 0 {
		return nil, nil
	}

	totalKWh := sales * 1e6    // million kWh
	totalRevenue := revenue * 1e6 // million $

	return &Profile{
		AverageMonthlyUsageKWh: math.Round(totalKWh / customers),
		UtilityRatePerKWh:      roundTo(totalRevenue/totalKWh, 4),
		AverageMonthlyBill:     roundTo(totalRevenue/customers, 2),
		Source:                 fmt.Sprintf("EIA (period: %s)", row.Period),
	}, nil
}

func asFloat(n json.Number) (float64, error) {
	return strconv.ParseFloat(n.String(), 64)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
