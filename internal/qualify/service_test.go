package qualify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sunlend/solarqual/internal/electricity"
	"github.com/sunlend/solarqual/internal/location"
	"github.com/sunlend/solarqual/internal/narrative"
	"github.com/sunlend/solarqual/internal/solar"
	"github.com/sunlend/solarqual/internal/storage"
)

type stubResolver struct {
	loc   *location.Location
	err   error
	calls int
}

func (r *stubResolver) Resolve(ctx context.Context, zip string) (*location.Location, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.loc, nil
}

type stubProfiles struct {
	profile *electricity.Profile
	calls   int
}

func (p *stubProfiles) GetProfile(ctx context.Context, loc *location.Location) *electricity.Profile {
	p.calls++
	return p.profile
}

type stubGenerator struct {
	result *narrative.Result
	err    error
}

func (g *stubGenerator) Generate(ctx context.Context, req narrative.Request) (*narrative.Result, error) {
	return g.result, g.err
}

func caLocation() *location.Location {
	return &location.Location{
		ZipCode:   "90210",
		County:    "los-angeles",
		StateCode: "CA",
		City:      "Beverly Hills",
	}
}

func validInput() Input {
	return Input{ZipCode: "90210", MonthlyBill: 150, CreditBand: "Good", RoofSqFt: 1500}
}

func TestEvaluateApproved(t *testing.T) {
	resolver := &stubResolver{loc: caLocation()}
	profiles := &stubProfiles{profile: &electricity.Profile{
		AverageMonthlyBill:     150,
		AverageMonthlyUsageKWh: 1000,
		UtilityRatePerKWh:      0.15,
		Source:                 "findenergy.com",
	}}
	svc := NewService(resolver, profiles)

	v, err := svc.Evaluate(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.Status != solar.StatusApproved {
		t.Errorf("status = %q, want approved", v.Status)
	}
	// 1000 kWh/month needs ~8.5 kW; the 1500 sq ft roof caps it at 6.0.
	if v.SystemSizeKW != 6.0 {
		t.Errorf("size = %v, want 6.0 (roof capped)", v.SystemSizeKW)
	}
	if v.SystemCost.GrossCost != 6.0*1000*solar.CostPerWatt {
		t.Errorf("gross cost = %v", v.SystemCost.GrossCost)
	}
	if v.LoanTerms.APRPercent != 5.99 || v.LoanTerms.TermYears != 20 {
		t.Errorf("loan terms = %+v, want Good terms", v.LoanTerms)
	}
	if v.DataSource != "findenergy.com" {
		t.Errorf("data source = %q", v.DataSource)
	}
	if v.Explanation == "" {
		t.Error("explanation is empty")
	}
	if v.Location == nil || v.Location.StateCode != "CA" {
		t.Errorf("location = %+v", v.Location)
	}
}

func TestEvaluateDefaultRateWhenChainEmpty(t *testing.T) {
	resolver := &stubResolver{loc: caLocation()}
	profiles := &stubProfiles{profile: nil}
	svc := NewService(resolver, profiles)

	v, err := svc.Evaluate(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.DataSource != "default assumptions" {
		t.Errorf("data source = %q, want default assumptions", v.DataSource)
	}
	// Same sizing as the 15c/kWh case: the default rate matches.
	if v.SystemSizeKW != 6.0 {
		t.Errorf("size = %v, want 6.0", v.SystemSizeKW)
	}
}

func TestEvaluateMinimumSize(t *testing.T) {
	resolver := &stubResolver{loc: caLocation()}
	profiles := &stubProfiles{profile: &electricity.Profile{
		AverageMonthlyBill: 55,
		UtilityRatePerKWh:  0.45, // tiny usage
		Source:             "eia.gov",
	}}
	svc := NewService(resolver, profiles)

	in := validInput()
	in.MonthlyBill = 55
	in.RoofSqFt = 400 // cap 1.6 kW, below the floor
	v, err := svc.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.SystemSizeKW != solar.MinSystemSizeKW {
		t.Errorf("size = %v, want floor %v", v.SystemSizeKW, solar.MinSystemSizeKW)
	}
}

func TestEvaluateRejectsBadInput(t *testing.T) {
	resolver := &stubResolver{loc: caLocation()}
	profiles := &stubProfiles{}
	svc := NewService(resolver, profiles)

	in := validInput()
	in.MonthlyBill = 20
	if _, err := svc.Evaluate(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if resolver.calls != 0 || profiles.calls != 0 {
		t.Errorf("I/O happened before validation: resolver %d, profiles %d", resolver.calls, profiles.calls)
	}
}

func TestEvaluatePoorNeverApproved(t *testing.T) {
	resolver := &stubResolver{loc: caLocation()}
	profiles := &stubProfiles{}
	svc := NewService(resolver, profiles)

	in := validInput()
	in.CreditBand = "Poor"
	v, err := svc.Evaluate(context.Background(), in)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.Status == solar.StatusApproved {
		t.Errorf("Poor credit was approved")
	}
}

func TestEvaluatePersistsRecord(t *testing.T) {
	resolver := &stubResolver{loc: caLocation()}
	profiles := &stubProfiles{}
	store := storage.NewMemory()
	svc := NewService(resolver, profiles, WithStorage(store))

	if _, err := svc.Evaluate(context.Background(), validInput()); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	recs, err := store.ListQualifications(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListQualifications: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].ZipCode != "90210" || recs[0].ID == "" {
		t.Errorf("record = %+v", recs[0])
	}
	if recs[0].StateCode != "CA" {
		t.Errorf("state = %q", recs[0].StateCode)
	}
}

func TestNarrateUsesGenerator(t *testing.T) {
	resolver := &stubResolver{loc: caLocation()}
	profiles := &stubProfiles{}
	gen := &stubGenerator{result: &narrative.Result{Status: "approved", Explanation: "looks great"}}
	svc := NewService(resolver, profiles, WithGenerator(gen, "test-model"))

	result, loc, err := svc.Narrate(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}
	if result.Status != "approved" || result.Explanation != "looks great" {
		t.Errorf("result = %+v", result)
	}
	if loc == nil || loc.City != "Beverly Hills" {
		t.Errorf("location = %+v", loc)
	}
}

func TestNarrateFallsBackOnGeneratorError(t *testing.T) {
	resolver := &stubResolver{loc: caLocation()}
	profiles := &stubProfiles{}
	gen := &stubGenerator{err: errors.New("model overloaded")}
	svc := NewService(resolver, profiles, WithGenerator(gen, "test-model"))

	result, _, err := svc.Narrate(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}
	// Good credit on the band-only path is always approved.
	if result.Status != "approved" {
		t.Errorf("status = %q, want approved", result.Status)
	}
	if !strings.Contains(result.Explanation, "Good credit") {
		t.Errorf("explanation = %q, want fallback template", result.Explanation)
	}
}

func TestNarrateSurvivesLocationFailure(t *testing.T) {
	resolver := &stubResolver{err: location.ErrNotFound}
	profiles := &stubProfiles{}
	svc := NewService(resolver, profiles)

	result, loc, err := svc.Narrate(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}
	if loc != nil {
		t.Errorf("location = %+v, want nil", loc)
	}
	if result.Status != "approved" {
		t.Errorf("status = %q", result.Status)
	}
	if profiles.calls != 0 {
		t.Errorf("profile chain ran without a location")
	}
}

func TestGetElectricityProfile(t *testing.T) {
	resolver := &stubResolver{loc: caLocation()}
	profiles := &stubProfiles{profile: &electricity.Profile{AverageMonthlyBill: 120, Source: "eia.gov"}}
	svc := NewService(resolver, profiles)

	p, loc, err := svc.GetElectricityProfile(context.Background(), "90210")
	if err != nil {
		t.Fatalf("GetElectricityProfile: %v", err)
	}
	if p.Source != "eia.gov" || loc.StateCode != "CA" {
		t.Errorf("profile %+v loc %+v", p, loc)
	}

	if _, _, err := svc.GetElectricityProfile(context.Background(), "bad"); !errors.Is(err, location.ErrInvalidZip) {
		t.Errorf("err = %v, want ErrInvalidZip", err)
	}

	profiles.profile = nil
	if _, _, err := svc.GetElectricityProfile(context.Background(), "90210"); !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}
