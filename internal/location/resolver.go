package location

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Resolver turns ZIP codes into Locations using two chained lookups: a ZIP
// geocoding API, then a reverse lat/lon -> county API.
type Resolver struct {
	geoURL    string // printf-style, %s replaced by the ZIP
	countyURL string
	client    *http.Client
}

// NewResolver builds a Resolver. A nil client gets a default with a 10s timeout.
func NewResolver(geoURL, countyURL string, client *http.Client) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Resolver{geoURL: geoURL, countyURL: countyURL, client: client}
}

type geoResponse struct {
	Places []struct {
		PlaceName string `json:"place name"`
		StateAbbr string `json:"state abbreviation"`
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"places"`
}

type countyResponse struct {
	County struct {
		Name string `json:"name"`
	} `json:"County"`
}

// Resolve looks up a ZIP code. Malformed ZIPs are rejected before any network
// call. ErrNotFound covers both an unknown ZIP and coordinates without a
// county; transport failures are wrapped and returned as-is.
func (r *Resolver) Resolve(ctx context.Context, zip string) (*Location, error) {
	if !ValidZip(zip) {
		return nil, ErrInvalidZip
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(r.geoURL, zip), nil)
	if err != nil {
		return nil, fmt.Errorf("build geo request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo lookup for %s: %w", zip, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo lookup for %s returned status %d", zip, resp.StatusCode)
	}

	var geo geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&geo); err != nil {
		return nil, fmt.Errorf("decode geo response: %w", err)
	}
	if len(geo.Places) == 0 {
		return nil, ErrNotFound
	}

	place := geo.Places[0]
	lat, err := strconv.ParseFloat(place.Latitude, 64)
	if err != nil {
		return nil, fmt.Errorf("parse latitude %q: %w", place.Latitude, err)
	}
	lng, err := strconv.ParseFloat(place.Longitude, 64)
	if err != nil {
		return nil, fmt.Errorf("parse longitude %q: %w", place.Longitude, err)
	}

	county, err := r.lookupCounty(ctx, lat, lng)
	if err != nil {
		return nil, err
	}

	loc := &Location{
		ZipCode:   zip,
		County:    CountySlug(county),
		StateCode: place.StateAbbr,
		City:      place.PlaceName,
		Latitude:  lat,
		Longitude: lng,
	}
	log.Printf("location: %s, %s -> %s county", loc.City, loc.StateCode, loc.County)
	return loc, nil
}

func (r *Resolver) lookupCounty(ctx context.Context, lat, lng float64) (string, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.countyURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build county request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("county lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("county lookup returned status %d", resp.StatusCode)
	}

	var cr countyResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decode county response: %w", err)
	}
	if cr.County.Name == "" {
		return "", ErrNotFound
	}
	return cr.County.Name, nil
}
