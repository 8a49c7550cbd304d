package location

import (
	"errors"
	"strings"
)

// Location identifies where a ZIP code sits, resolved once per request.
type Location struct {
	ZipCode   string  `json:"zip_code"`
	County    string  `json:"county"`
	StateCode string  `json:"state_code"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// StateSlug returns the lowercase state code used in scrape URLs.
func (l Location) StateSlug() string {
	return strings.ToLower(l.StateCode)
}

// ErrNotFound is returned when the geocoding provider does not know the ZIP,
// or no county maps to its coordinates.
var ErrNotFound = errors.New("location: not found")

// ErrInvalidZip is returned for ZIP codes that are not exactly five digits.
// Validation happens before any network call.
var ErrInvalidZip = errors.New("location: invalid zip code")

// ValidZip reports whether zip is exactly five ASCII digits.
func ValidZip(zip string) bool {
	if len(zip) != 5 {
		return false
	}
	for i := 0; i < len(zip); i++ {
		if zip[i] < '0' || zip[i] > '9' {
			return false
		}
	}
	return true
}

// CountySlug normalizes a county name for scrape URL construction: the word
// "County" is stripped, the rest lowercased and hyphen-joined. The findenergy
// source depends on this exact form.
func CountySlug(name string) string {
	name = strings.ReplaceAll(name, " County", "")
	name = strings.ToLower(name)
	return strings.ReplaceAll(name, " ", "-")
}
