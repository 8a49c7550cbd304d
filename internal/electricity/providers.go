package electricity

import (
	"encoding/json"
	"os"
)

// ProviderDescriptor describes one data source: its chain position comes from
// list order, its URL shape from BaseURL.
type ProviderDescriptor struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	BaseURL string `json:"baseUrl"`
	Notes   string `json:"notes,omitempty"`
}

const providersEnv = "SOLARQUAL_SOURCES_JSON"

// defaultProviders is the fixed fallback order: the county-level scrape first
// (fresher, hyper-local), the statistical API as the numerically trustworthy
// fallback, then the lower-confidence state-level scrapes.
func defaultProviders() []ProviderDescriptor {
	return []ProviderDescriptor{
		{
			Key:     "findenergy",
			Name:    "FindEnergy",
			BaseURL: "https://findenergy.com",
			Notes:   "county-level scrape, full bill/usage/rate extraction",
		},
		{
			Key:     "eia",
			Name:    "EIA",
			BaseURL: "https://api.eia.gov/v2/electricity/retail-sales/data/",
			Notes:   "official monthly residential aggregates",
		},
		{
			Key:     "electricityrates",
			Name:    "ElectricityRates",
			BaseURL: "https://www.electricityrates.com",
			Notes:   "state-level rate scrape",
		},
		{
			Key:     "saveonenergy",
			Name:    "SaveOnEnergy",
			BaseURL: "https://www.saveonenergy.com",
			Notes:   "state-level rate scrape, fixed default usage",
		},
	}
}

// Providers returns the ordered descriptor list, honoring the JSON override
// env var when it parses.
func Providers() []ProviderDescriptor {
	raw := os.Getenv(providersEnv)
	if raw == "" {
		return defaultProviders()
	}
	var out []ProviderDescriptor
	if err := json.Unmarshal([]byte(raw), &out); err != nil || len(out) == 0 {
		return defaultProviders()
	}
	return out
}

// GetProvider returns the descriptor for a provider key.
func GetProvider(key string) (ProviderDescriptor, bool) {
	for _, p := range Providers() {
		if p.Key == key {
			return p, true
		}
	}
	return ProviderDescriptor{}, false
}
