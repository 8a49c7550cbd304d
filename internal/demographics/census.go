package demographics

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Profile holds population, income, and race composition for a ZCTA.
// RacePercentages is only populated when the total population is positive.
type Profile struct {
	TotalPopulation       int                `json:"total_population"`
	MedianHouseholdIncome int                `json:"median_household_income"`
	RaceBreakdown         map[string]int     `json:"race_breakdown"`
	RacePercentages       map[string]float64 `json:"race_percentages,omitempty"`
}

// DiversityScore is Simpson's diversity index over the race percentages:
// 1 minus the sum of squared proportions, rounded to three places.
func (p *Profile) DiversityScore() float64 {
	if len(p.RacePercentages) == 0 {
		return 0
	}
	total := 0.0
	for _, pct := range p.RacePercentages {
		prop := pct / 100
		total += prop * prop
	}
	return math.Round((1-total)*1000) / 1000
}

// Census ACS table B02001 race estimates plus B19013 median income.
var censusVariables = []string{
	"NAME",
	"B02001_001E", // total population
	"B02001_002E", // white alone
	"B02001_003E", // black alone
	"B02001_004E", // american indian / alaska native alone
	"B02001_005E", // asian alone
	"B02001_006E", // native hawaiian / pacific islander alone
	"B02001_007E", // some other race alone
	"B02001_008E", // two or more races
	"B19013_001E", // median household income
}

// raceVariable maps response variables to breakdown keys.
var raceVariable = map[string]string{
	"white":            "B02001_002E",
	"black":            "B02001_003E",
	"asian":            "B02001_005E",
	"native_american":  "B02001_004E",
	"pacific_islander": "B02001_006E",
	"other":            "B02001_007E",
	"mixed":            "B02001_008E",
}

// Provider queries the Census ACS API for ZIP code tabulation areas.
// It fails soft: any transport or parse error is logged and yields nil.
type Provider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewProvider(baseURL, apiKey string, client *http.Client) *Provider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Provider{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Fetch returns demographics for a ZIP, or nil when anything goes wrong.
func (p *Provider) Fetch(ctx context.Context, zip string) *Profile {
	profile, err := p.fetch(ctx, zip)
	if err != nil {
		log.Printf("demographics: census fetch for %s failed: %v", zip, err)
		return nil
	}
	return profile
}

func (p *Provider) fetch(ctx context.Context, zip string) (*Profile, error) {
	vars := ""
	for i, v := range censusVariables {
		if i > 0 {
			vars += ","
		}
		vars += v
	}
	reqURL := fmt.Sprintf("%s?get=%s&for=zip%%20code%%20tabulation%%20area:%s&key=%s",
		p.baseURL, vars, zip, url.QueryEscape(p.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch census data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("census returned status %d", resp.StatusCode)
	}

	// The ACS API returns a 2-row array: header names, then values.
	var rows [][]string
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode census response: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("census response has %d rows, want 2", len(rows))
	}

	byName := make(map[string]string, len(rows[0]))
	for i, h := range rows[0] {
		if i < len(rows[1]) {
			byName[h] = rows[1][i]
		}
	}

	totalPop, err := atoiField(byName, "B02001_001E")
	if err != nil {
		return nil, err
	}
	income, err := atoiField(byName, "B19013_001E")
	if err != nil {
		return nil, err
	}

	profile := &Profile{
		TotalPopulation:       totalPop,
		MedianHouseholdIncome: income,
		RaceBreakdown:         make(map[string]int, len(raceVariable)),
	}
	for name, variable := range raceVariable {
		count, err := atoiField(byName, variable)
		if err != nil {
			return nil, err
		}
		profile.RaceBreakdown[name] = count
	}

	if totalPop > 0 {
		profile.RacePercentages = make(map[string]float64, len(profile.RaceBreakdown))
		for name, count := range profile.RaceBreakdown {
			pct := float64(count) / float64(totalPop) * 100
			profile.RacePercentages[name] = math.Round(pct*10) / 10
		}
	}

	log.Printf("demographics: fetched census data for %s (population %d)", zip, totalPop)
	return profile, nil
}

func atoiField(m map[string]string, key string) (int, error) {
	raw, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("census response missing %s", key)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", key, raw, err)
	}
	return v, nil
}
