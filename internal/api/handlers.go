package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/sunlend/solarqual/internal/electricity"
	"github.com/sunlend/solarqual/internal/location"
	"github.com/sunlend/solarqual/internal/narrative"
	"github.com/sunlend/solarqual/internal/qualify"
)

const censusSourceName = "U.S. Census Bureau ACS 5-year estimates (2021)"

type electricityResponse struct {
	ZipCode                string  `json:"zip_code"`
	City                   string  `json:"city"`
	State                  string  `json:"state"`
	DataSource             string  `json:"data_source"`
	AverageMonthlyBill     float64 `json:"average_monthly_bill"`
	AverageMonthlyUsageKWh float64 `json:"average_monthly_usage_kwh"`
	UtilityRatePerKWh      float64 `json:"utility_rate_per_kwh"`
}

func (s *Server) handleElectricityData(w http.ResponseWriter, r *http.Request) {
	const endpoint = "electricity-data"
	defer observe(endpoint)()

	zip := strings.TrimSpace(r.URL.Query().Get("zip"))
	if !location.ValidZip(zip) {
		s.sink.Error(endpoint, zip, "Invalid ZIP code", nil)
		writeError(w, endpoint, http.StatusBadRequest, "Invalid ZIP code")
		return
	}

	profile, loc, err := s.qualify.GetElectricityProfile(r.Context(), zip)
	if err != nil {
		if qualify.IsNotFound(err) {
			s.sink.Error(endpoint, zip, "No data available", nil)
			writeError(w, endpoint, http.StatusNotFound, "No data available")
			return
		}
		log.Printf("api: electricity data for %s: %v", zip, err)
		s.sink.Error(endpoint, zip, err.Error(), nil)
		writeError(w, endpoint, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := electricityResponse{
		ZipCode:                zip,
		City:                   loc.City,
		State:                  loc.StateCode,
		DataSource:             profile.Source,
		AverageMonthlyBill:     profile.AverageMonthlyBill,
		AverageMonthlyUsageKWh: profile.AverageMonthlyUsageKWh,
		UtilityRatePerKWh:      profile.UtilityRatePerKWh,
	}

	extra := requestExtra(r)
	extra["location_details"] = loc
	extra["data_source_used"] = profile.Source
	s.sink.APIRequest(endpoint, zip, resp, extra)
	s.sink.DataSource(zip, profile.Source, profile, resp)

	writeJSON(w, http.StatusOK, resp)
}

type demographicResponse struct {
	ZipCode    string `json:"zip_code"`
	City       string `json:"city"`
	State      string `json:"state"`
	DataSource string `json:"data_source"`
	*demographicsProfile
}

// demographicsProfile avoids re-declaring the census fields inline.
type demographicsProfile struct {
	TotalPopulation       int                `json:"total_population"`
	MedianHouseholdIncome int                `json:"median_household_income"`
	RaceBreakdown         map[string]int     `json:"race_breakdown"`
	RacePercentages       map[string]float64 `json:"race_percentages,omitempty"`
}

func (s *Server) handleDemographicData(w http.ResponseWriter, r *http.Request) {
	const endpoint = "demographic-data"
	defer observe(endpoint)()

	zip := strings.TrimSpace(r.URL.Query().Get("zip"))
	if !location.ValidZip(zip) {
		s.sink.Error(endpoint, zip, "Invalid ZIP code", nil)
		writeError(w, endpoint, http.StatusBadRequest, "Invalid ZIP code")
		return
	}

	profile := s.demographics.Fetch(r.Context(), zip)
	if profile == nil {
		s.sink.Error(endpoint, zip, "No demographic data available", nil)
		writeError(w, endpoint, http.StatusNotFound, "No demographic data available")
		return
	}

	// City/state enrich the response but their absence is not an error.
	city, state := "Unknown", "Unknown"
	if loc, err := s.qualify.ResolveLocation(r.Context(), zip); err == nil {
		city, state = loc.City, loc.StateCode
	}

	resp := demographicResponse{
		ZipCode:    zip,
		City:       city,
		State:      state,
		DataSource: censusSourceName,
		demographicsProfile: &demographicsProfile{
			TotalPopulation:       profile.TotalPopulation,
			MedianHouseholdIncome: profile.MedianHouseholdIncome,
			RaceBreakdown:         profile.RaceBreakdown,
			RacePercentages:       profile.RacePercentages,
		},
	}

	extra := requestExtra(r)
	extra["census_api_used"] = true
	extra["total_population"] = profile.TotalPopulation
	extra["median_income"] = profile.MedianHouseholdIncome
	extra["race_diversity_score"] = profile.DiversityScore()
	s.sink.APIRequest(endpoint, zip, resp, extra)
	s.sink.DataSource(zip, "U.S. Census Bureau", profile, resp)

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVantageScore(w http.ResponseWriter, r *http.Request) {
	const endpoint = "vantage-score"
	defer observe(endpoint)()

	zip := strings.TrimSpace(r.URL.Query().Get("zip"))
	if !location.ValidZip(zip) {
		s.sink.Error(endpoint, zip, "Invalid ZIP code", nil)
		writeError(w, endpoint, http.StatusBadRequest, "Invalid ZIP code")
		return
	}

	rec := s.vantage.Lookup(zip)
	if rec == nil {
		msg := "No Vantage Score data available for this ZIP code"
		s.sink.Error(endpoint, zip, msg, nil)
		writeError(w, endpoint, http.StatusNotFound, msg)
		return
	}

	extra := requestExtra(r)
	extra["local_excel_used"] = true
	extra["data_source"] = rec.Source
	s.sink.APIRequest(endpoint, zip, rec, extra)

	writeJSON(w, http.StatusOK, rec)
}

type locationInfo struct {
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

type qualificationResponse struct {
	*narrative.Result
	Location locationInfo `json:"location"`
}

func (s *Server) handleCheckQualification(w http.ResponseWriter, r *http.Request) {
	const endpoint = "check-qualification"
	defer observe(endpoint)()

	if r.Method != http.MethodPost {
		writeError(w, endpoint, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	in, errMsg := decodeQualificationInput(r)
	if errMsg != "" {
		s.sink.Error(endpoint, in.ZipCode, errMsg, nil)
		writeError(w, endpoint, http.StatusBadRequest, errMsg)
		return
	}

	result, loc, err := s.qualify.Narrate(r.Context(), in)
	if err != nil {
		if errors.Is(err, qualify.ErrInvalidInput) {
			s.sink.Error(endpoint, in.ZipCode, err.Error(), nil)
			writeError(w, endpoint, http.StatusBadRequest, inputErrorMessage(err))
			return
		}
		log.Printf("api: qualification for %s: %v", in.ZipCode, err)
		s.sink.Error(endpoint, in.ZipCode, err.Error(), map[string]any{"input_data": in})
		writeError(w, endpoint, http.StatusInternalServerError, "Internal server error")
		return
	}

	resp := qualificationResponse{
		Result:   result,
		Location: locationInfo{City: "Unknown", State: "Unknown", ZipCode: in.ZipCode},
	}
	if loc != nil {
		resp.Location = locationInfo{City: loc.City, State: loc.StateCode, ZipCode: in.ZipCode}
	}

	extra := requestExtra(r)
	extra["input_data"] = in
	extra["ai_powered"] = true
	s.sink.APIRequest(endpoint, in.ZipCode, resp, extra)

	writeJSON(w, http.StatusOK, resp)
}

// handleEvaluate is the deterministic qualification path: same inputs, but
// the verdict comes from the ratio/payback decision table.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	const endpoint = "evaluate"
	defer observe(endpoint)()

	if r.Method != http.MethodPost {
		writeError(w, endpoint, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	in, errMsg := decodeQualificationInput(r)
	if errMsg != "" {
		s.sink.Error(endpoint, in.ZipCode, errMsg, nil)
		writeError(w, endpoint, http.StatusBadRequest, errMsg)
		return
	}

	verdict, err := s.qualify.Evaluate(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, qualify.ErrInvalidInput):
			s.sink.Error(endpoint, in.ZipCode, err.Error(), nil)
			writeError(w, endpoint, http.StatusBadRequest, inputErrorMessage(err))
		case qualify.IsNotFound(err):
			s.sink.Error(endpoint, in.ZipCode, "No data available", nil)
			writeError(w, endpoint, http.StatusNotFound, "No data available")
		default:
			log.Printf("api: evaluate for %s: %v", in.ZipCode, err)
			s.sink.Error(endpoint, in.ZipCode, err.Error(), map[string]any{"input_data": in})
			writeError(w, endpoint, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	extra := requestExtra(r)
	extra["input_data"] = in
	s.sink.APIRequest(endpoint, in.ZipCode, verdict, extra)

	writeJSON(w, http.StatusOK, verdict)
}

// decodeQualificationInput reports missing fields by name before handing the
// rest of validation to Input.Validate.
func decodeQualificationInput(r *http.Request) (qualify.Input, string) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return qualify.Input{}, "Invalid request body"
	}
	for _, field := range []string{"zipCode", "electricBill", "creditBand", "roofSize"} {
		if _, ok := raw[field]; !ok {
			return qualify.Input{}, "Missing required field: " + field
		}
	}
	buf, _ := json.Marshal(raw)
	var in qualify.Input
	if err := json.Unmarshal(buf, &in); err != nil {
		return in, "Invalid input data: " + err.Error()
	}
	return in, ""
}

// inputErrorMessage strips the sentinel prefix so clients see just the reason.
func inputErrorMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return strings.ToUpper(msg[i+2:i+3]) + msg[i+3:]
	}
	return msg
}

// handleSources lists the configured electricity data sources in chain order.
func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Sources []electricity.ProviderDescriptor `json:"sources"`
	}{Sources: electricity.Providers()})
}
