package demographics

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

const censusBody = `[
["NAME","B02001_001E","B02001_002E","B02001_003E","B02001_004E","B02001_005E","B02001_006E","B02001_007E","B02001_008E","B19013_001E","zip code tabulation area"],
["ZCTA5 90210","100","70","20","1","5","0","1","3","85000","90210"]
]`

func TestFetchDemographics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(censusBody))
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, "test", srv.Client())
	profile := p.Fetch(context.Background(), "90210")
	if profile == nil {
		t.Fatal("expected a profile")
	}
	if profile.TotalPopulation != 100 {
		t.Errorf("population = %d, want 100", profile.TotalPopulation)
	}
	if profile.MedianHouseholdIncome != 85000 {
		t.Errorf("income = %d, want 85000", profile.MedianHouseholdIncome)
	}
	if profile.RaceBreakdown["white"] != 70 || profile.RaceBreakdown["mixed"] != 3 {
		t.Errorf("unexpected breakdown: %+v", profile.RaceBreakdown)
	}
	if profile.RacePercentages["white"] != 70.0 {
		t.Errorf("white pct = %v, want 70.0", profile.RacePercentages["white"])
	}

	sum := 0.0
	for _, pct := range profile.RacePercentages {
		sum += pct
	}
	if math.Abs(sum-100) > 0.5 {
		t.Errorf("percentages sum to %v, want 100 within rounding", sum)
	}
}

func TestFetchZeroPopulationOmitsPercentages(t *testing.T) {
	body := `[
["NAME","B02001_001E","B02001_002E","B02001_003E","B02001_004E","B02001_005E","B02001_006E","B02001_007E","B02001_008E","B19013_001E"],
["ZCTA5 00000","0","0","0","0","0","0","0","0","0"]
]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, "test", srv.Client())
	profile := p.Fetch(context.Background(), "00000")
	if profile == nil {
		t.Fatal("expected a profile")
	}
	if profile.RacePercentages != nil {
		t.Errorf("zero population must omit percentages, got %+v", profile.RacePercentages)
	}
	if profile.DiversityScore() != 0 {
		t.Errorf("diversity without percentages = %v, want 0", profile.DiversityScore())
	}
}

func TestFetchFailsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, "test", srv.Client())
	if profile := p.Fetch(context.Background(), "90210"); profile != nil {
		t.Fatalf("got %+v, want nil on upstream failure", profile)
	}
}

func TestDiversityScore(t *testing.T) {
	profile := &Profile{
		RacePercentages: map[string]float64{
			"white": 50,
			"black": 50,
		},
	}
	if got := profile.DiversityScore(); got != 0.5 {
		t.Errorf("DiversityScore = %v, want 0.5", got)
	}

	uniform := &Profile{RacePercentages: map[string]float64{"white": 100}}
	if got := uniform.DiversityScore(); got != 0 {
		t.Errorf("single-group diversity = %v, want 0", got)
	}
}
