package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sunlend/solarqual/internal/audit"
	"github.com/sunlend/solarqual/internal/credit"
	"github.com/sunlend/solarqual/internal/demographics"
	"github.com/sunlend/solarqual/internal/electricity"
	"github.com/sunlend/solarqual/internal/location"
	"github.com/sunlend/solarqual/internal/qualify"
	"github.com/sunlend/solarqual/internal/storage"
)

type fakeResolver struct {
	loc *location.Location
	err error
}

func (f *fakeResolver) Resolve(ctx context.Context, zip string) (*location.Location, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.loc, nil
}

type fakeProfiles struct {
	profile *electricity.Profile
}

func (f *fakeProfiles) GetProfile(ctx context.Context, loc *location.Location) *electricity.Profile {
	return f.profile
}

func newTestServer(t *testing.T, resolver qualify.Resolver, profiles qualify.ProfileGetter) *Server {
	t.Helper()
	dir := t.TempDir()
	sink := audit.NewSink(dir)
	reader := audit.NewReader(dir)
	qsvc := qualify.NewService(resolver, profiles,
		qualify.WithAudit(sink),
		qualify.WithStorage(storage.NewMemory()))
	census := demographics.NewProvider("http://127.0.0.1:0", "", nil)
	vantage := credit.NewVantageStore(dir + "/missing.xlsx")
	return NewServer(qsvc, census, vantage, sink, reader, nil, storage.NewMemory())
}

func testLoc() *location.Location {
	return &location.Location{
		ZipCode:   "37167",
		County:    "rutherford",
		StateCode: "TN",
		City:      "Smyrna",
	}
}

func TestElectricityDataEndpoint(t *testing.T) {
	srv := newTestServer(t,
		&fakeResolver{loc: testLoc()},
		&fakeProfiles{profile: &electricity.Profile{
			AverageMonthlyBill:     132.5,
			AverageMonthlyUsageKWh: 1150,
			UtilityRatePerKWh:      0.115,
			Source:                 "findenergy.com",
		}})
	mux := srv.Routes()

	req := httptest.NewRequest(http.MethodGet, "/electricity-data?zip=37167", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["zip_code"] != "37167" || resp["city"] != "Smyrna" || resp["state"] != "TN" {
		t.Errorf("location fields = %v", resp)
	}
	if resp["data_source"] != "findenergy.com" {
		t.Errorf("data_source = %v", resp["data_source"])
	}
	if resp["average_monthly_bill"] != 132.5 {
		t.Errorf("bill = %v", resp["average_monthly_bill"])
	}
}

func TestElectricityDataInvalidZip(t *testing.T) {
	srv := newTestServer(t, &fakeResolver{loc: testLoc()}, &fakeProfiles{})
	mux := srv.Routes()

	for _, zip := range []string{"", "1234", "abcde"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/electricity-data?zip="+zip, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("zip %q: status = %d, want 400", zip, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Invalid ZIP code") {
			t.Errorf("zip %q: body = %s", zip, rec.Body.String())
		}
	}
}

func TestElectricityDataNoData(t *testing.T) {
	srv := newTestServer(t, &fakeResolver{loc: testLoc()}, &fakeProfiles{profile: nil})
	mux := srv.Routes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/electricity-data?zip=37167", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No data available") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestCheckQualification(t *testing.T) {
	srv := newTestServer(t, &fakeResolver{loc: testLoc()}, &fakeProfiles{})
	mux := srv.Routes()

	body := `{"zipCode":"37167","electricBill":150,"creditBand":"Good","roofSize":1500}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/check-qualification", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "approved" {
		t.Errorf("status = %v", resp["status"])
	}
	locData, ok := resp["location"].(map[string]any)
	if !ok || locData["city"] != "Smyrna" || locData["state"] != "TN" {
		t.Errorf("location = %v", resp["location"])
	}
	if resp["explanation"] == "" {
		t.Error("explanation missing")
	}
}

func TestCheckQualificationMissingField(t *testing.T) {
	srv := newTestServer(t, &fakeResolver{loc: testLoc()}, &fakeProfiles{})
	mux := srv.Routes()

	body := `{"zipCode":"37167","electricBill":150,"creditBand":"Good"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/check-qualification", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Missing required field: roofSize") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestCheckQualificationBadBill(t *testing.T) {
	srv := newTestServer(t, &fakeResolver{loc: testLoc()}, &fakeProfiles{})
	mux := srv.Routes()

	body := `{"zipCode":"37167","electricBill":20,"creditBand":"Good","roofSize":1500}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/check-qualification", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Electric bill must be between $50 and $500") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestEvaluateEndpoint(t *testing.T) {
	srv := newTestServer(t,
		&fakeResolver{loc: testLoc()},
		&fakeProfiles{profile: &electricity.Profile{
			AverageMonthlyBill: 150,
			UtilityRatePerKWh:  0.15,
			Source:             "eia.gov",
		}})
	mux := srv.Routes()

	body := `{"zipCode":"37167","electricBill":150,"creditBand":"Excellent","roofSize":2000}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/evaluate", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] == "" {
		t.Error("status missing")
	}
	if _, ok := resp["monthlyPayment"]; !ok {
		t.Error("monthlyPayment missing")
	}
	if resp["dataSource"] != "eia.gov" {
		t.Errorf("dataSource = %v", resp["dataSource"])
	}
}

func TestVantageScoreNotFound(t *testing.T) {
	srv := newTestServer(t, &fakeResolver{loc: testLoc()}, &fakeProfiles{})
	mux := srv.Routes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/vantage-score?zip=37167", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No Vantage Score data available") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestDemographicDataEndpoint(t *testing.T) {
	census := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rows := [][]string{
			{"NAME", "B02001_001E", "B02001_002E", "B02001_003E", "B02001_004E", "B02001_005E", "B02001_006E", "B02001_007E", "B02001_008E", "B19013_001E", "zip code tabulation area"},
			{"ZCTA5 37167", "50000", "35000", "8000", "200", "3000", "100", "1700", "2000", "67500", "37167"},
		}
		_ = json.NewEncoder(w).Encode(rows)
	}))
	defer census.Close()

	dir := t.TempDir()
	sink := audit.NewSink(dir)
	reader := audit.NewReader(dir)
	qsvc := qualify.NewService(&fakeResolver{loc: testLoc()}, &fakeProfiles{}, qualify.WithAudit(sink))
	srv := NewServer(qsvc, demographics.NewProvider(census.URL, "", nil),
		credit.NewVantageStore(dir+"/missing.xlsx"), sink, reader, nil, storage.NewMemory())
	mux := srv.Routes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/demographic-data?zip=37167", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["total_population"] != float64(50000) {
		t.Errorf("population = %v", resp["total_population"])
	}
	if resp["city"] != "Smyrna" {
		t.Errorf("city = %v", resp["city"])
	}
	if !strings.Contains(resp["data_source"].(string), "Census") {
		t.Errorf("data_source = %v", resp["data_source"])
	}
}

func TestLogsEndpoints(t *testing.T) {
	srv := newTestServer(t, &fakeResolver{loc: testLoc()}, &fakeProfiles{})
	mux := srv.Routes()

	// Generate one audited request first.
	rec := httptest.NewRecorder()
	body := `{"zipCode":"37167","electricBill":150,"creditBand":"Good","roofSize":1500}`
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/check-qualification", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("seed request status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs/api_requests", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("logs status = %d", rec.Code)
	}
	var logsResp struct {
		Logs         []json.RawMessage `json:"logs"`
		TotalEntries int               `json:"total_entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &logsResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if logsResp.TotalEntries != 1 || len(logsResp.Logs) != 1 {
		t.Errorf("logs = %d total %d, want 1/1", len(logsResp.Logs), logsResp.TotalEntries)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs/secrets", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid log type status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs/summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d", rec.Code)
	}
	var sum audit.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.TotalRequests != 1 || sum.UniqueZipCodes != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, &fakeResolver{loc: testLoc()}, &fakeProfiles{})
	mux := srv.Routes()

	for _, path := range []string{"/healthz", "/livez", "/readyz"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
}

func TestSourcesEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeResolver{loc: testLoc()}, &fakeProfiles{})
	mux := srv.Routes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sources", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Sources []electricity.ProviderDescriptor `json:"sources"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Sources) != 4 || resp.Sources[0].Key != "findenergy" {
		t.Errorf("sources = %+v", resp.Sources)
	}
}
