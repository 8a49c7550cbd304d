package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the service configuration, sourced from environment variables.
type Config struct {
	// GeoLookupURL is the ZIP geocoding endpoint; %s is replaced by the ZIP.
	GeoLookupURL string
	// CountyLookupURL is the reverse lat/lon -> county endpoint.
	CountyLookupURL string

	// EIAAPIKey and EIAURL configure the statistical-API electricity source.
	EIAAPIKey string
	EIAURL    string

	// CensusAPIKey and CensusURL configure the ACS demographics source.
	CensusAPIKey string
	CensusURL    string

	// VantageXLSXPath points at the credit-score workbook.
	VantageXLSXPath string

	// AnthropicAPIKey and AnthropicModel configure the narrative generator.
	// Narration is disabled when the key is empty.
	AnthropicAPIKey string
	AnthropicModel  string

	// LogsDir is where JSONL audit files are written.
	LogsDir string

	// ScrapeTimeout bounds each scrape provider call.
	ScrapeTimeout time.Duration
	// StatTimeout bounds the statistical-API call.
	StatTimeout time.Duration

	// SnapshotTTL controls how long a cached electricity snapshot is fresh.
	SnapshotTTL time.Duration
}

// FromEnv builds a Config from environment variables, with sane defaults.
func FromEnv() Config {
	return Config{
		GeoLookupURL:    envOr("SOLARQUAL_GEO_URL", "https://api.zippopotam.us/us/%s"),
		CountyLookupURL: envOr("SOLARQUAL_COUNTY_URL", "https://geo.fcc.gov/api/census/area"),
		EIAAPIKey:       os.Getenv("SOLARQUAL_EIA_API_KEY"),
		EIAURL:          envOr("SOLARQUAL_EIA_URL", "https://api.eia.gov/v2/electricity/retail-sales/data/"),
		CensusAPIKey:    os.Getenv("SOLARQUAL_CENSUS_API_KEY"),
		CensusURL:       envOr("SOLARQUAL_CENSUS_URL", "https://api.census.gov/data/2021/acs/acs5"),
		VantageXLSXPath: envOr("SOLARQUAL_VANTAGE_XLSX", "/data/vantage_scores.xlsx"),
		AnthropicAPIKey: os.Getenv("SOLARQUAL_ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("SOLARQUAL_ANTHROPIC_MODEL", "claude-haiku-4-5-20251001"),
		LogsDir:         envOr("SOLARQUAL_LOGS_DIR", "logs"),
		ScrapeTimeout:   envDuration("SOLARQUAL_SCRAPE_TIMEOUT_SECONDS", 10*time.Second),
		StatTimeout:     envDuration("SOLARQUAL_STAT_TIMEOUT_SECONDS", 15*time.Second),
		SnapshotTTL:     envDuration("SOLARQUAL_SNAPSHOT_TTL_SECONDS", 24*time.Hour),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return def
	}
	return time.Duration(secs) * time.Second
}
