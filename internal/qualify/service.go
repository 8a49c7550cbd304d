package qualify

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/sunlend/solarqual/internal/audit"
	"github.com/sunlend/solarqual/internal/electricity"
	"github.com/sunlend/solarqual/internal/location"
	"github.com/sunlend/solarqual/internal/metrics"
	"github.com/sunlend/solarqual/internal/narrative"
	"github.com/sunlend/solarqual/internal/solar"
	"github.com/sunlend/solarqual/internal/storage"
)

// DefaultSunHours is used when no better insolation figure is configured.
const DefaultSunHours = 4.5

// Resolver turns ZIPs into locations.
type Resolver interface {
	Resolve(ctx context.Context, zip string) (*location.Location, error)
}

// ProfileGetter supplies electricity economics for a location.
type ProfileGetter interface {
	GetProfile(ctx context.Context, loc *location.Location) *electricity.Profile
}

// Verdict is the full table-path qualification result. Field names match the
// wire format callers consume.
type Verdict struct {
	Status         solar.Status        `json:"status"`
	MonthlyPayment float64             `json:"monthlyPayment"`
	PaybackYears   float64             `json:"paybackYears"`
	SystemSizeKW   float64             `json:"systemSizeKW"`
	TotalSavings   float64             `json:"totalSavings"`
	SystemCost     solar.CostBreakdown `json:"systemCost"`
	CurrentBill    float64             `json:"currentBill"`
	CreditBand     solar.CreditBand    `json:"creditBand"`
	LoanTerms      solar.LoanTerms     `json:"loanTerms"`
	Explanation    string              `json:"explanation"`
	DataSource     string              `json:"dataSource,omitempty"`
	Location       *location.Location  `json:"location,omitempty"`
}

// Service orchestrates the qualification pipeline: location, electricity
// chain, sizing, costing, and the decision table. The narrated path runs the
// same acquisition steps but decides on credit band alone.
type Service struct {
	resolver  Resolver
	profiles  ProfileGetter
	generator narrative.Generator // optional
	store     storage.Storage     // optional, fire-and-forget writes
	sink      *audit.Sink         // optional, fire-and-forget writes
	sunHours  float64
	model     string
}

// Option tweaks a Service.
type Option func(*Service)

// WithGenerator enables AI narration on the narrated path.
func WithGenerator(g narrative.Generator, model string) Option {
	return func(s *Service) { s.generator, s.model = g, model }
}

// WithStorage persists qualification records.
func WithStorage(st storage.Storage) Option {
	return func(s *Service) { s.store = st }
}

// WithAudit wires the JSONL audit sink.
func WithAudit(sink *audit.Sink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithSunHours overrides the default daily sun hours.
func WithSunHours(h float64) Option {
	return func(s *Service) {
		if h > 0 {
			s.sunHours = h
		}
	}
}

func NewService(resolver Resolver, profiles ProfileGetter, opts ...Option) *Service {
	s := &Service{
		resolver: resolver,
		profiles: profiles,
		sunHours: DefaultSunHours,
		model:    "fallback",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveLocation resolves a ZIP without touching the provider chain.
func (s *Service) ResolveLocation(ctx context.Context, zip string) (*location.Location, error) {
	if !location.ValidZip(zip) {
		return nil, location.ErrInvalidZip
	}
	return s.resolver.Resolve(ctx, zip)
}

// GetElectricityProfile resolves a ZIP and runs the provider chain.
// ErrNoData means the chain was exhausted with nothing cached.
func (s *Service) GetElectricityProfile(ctx context.Context, zip string) (*electricity.Profile, *location.Location, error) {
	if !location.ValidZip(zip) {
		return nil, nil, location.ErrInvalidZip
	}
	loc, err := s.resolver.Resolve(ctx, zip)
	if err != nil {
		return nil, nil, err
	}
	p := s.profiles.GetProfile(ctx, loc)
	if p == nil {
		return nil, loc, ErrNoData
	}
	return p, loc, nil
}

// Evaluate runs the deterministic ratio/payback path end to end.
func (s *Service) Evaluate(ctx context.Context, in Input) (*Verdict, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	loc, err := s.resolver.Resolve(ctx, in.ZipCode)
	if err != nil {
		return nil, err
	}

	profile := s.profiles.GetProfile(ctx, loc)
	rateCents := 15.0
	source := "default assumptions"
	if profile != nil && profile.UtilityRatePerKWh > 0 {
		rateCents = profile.RateCents()
		source = profile.Source
	}

	size := solar.SystemSize(in.MonthlyBill, rateCents, s.sunHours)
	if roofCap := in.RoofSqFt / solar.RoofSqFtPerKW; size > roofCap {
		size = roofCap
	}
	size = math.Max(solar.MinSystemSizeKW, size)

	costs := solar.SystemCost(size, loc.StateCode)
	terms := solar.TermsFor(solar.CreditBand(in.CreditBand))
	payment := solar.MonthlyPayment(costs.NetCost, terms.APRPercent, terms.TermYears)
	payback := solar.PaybackYears(costs.NetCost, in.MonthlyBill, payment)
	savings := solar.LifetimeSavings(size, rateCents, s.sunHours, 25)
	status := solar.Decide(solar.CreditBand(in.CreditBand), in.MonthlyBill, payment, payback)

	v := &Verdict{
		Status:         status,
		MonthlyPayment: payment,
		PaybackYears:   payback,
		SystemSizeKW:   size,
		TotalSavings:   savings,
		SystemCost:     costs,
		CurrentBill:    in.MonthlyBill,
		CreditBand:     solar.CreditBand(in.CreditBand),
		LoanTerms:      terms,
		Explanation: narrative.Explain(narrative.VerdictSummary{
			Status:         status,
			MonthlyPayment: payment,
			CurrentBill:    in.MonthlyBill,
			PaybackYears:   payback,
			SystemSizeKW:   size,
			CreditBand:     solar.CreditBand(in.CreditBand),
		}),
		DataSource: source,
		Location:   loc,
	}

	metrics.QualificationsTotal.WithLabelValues(string(status)).Inc()
	s.persist(ctx, in, loc, string(status), v)
	return v, nil
}

// Narrate runs the credit-band-only path: same data acquisition, but the
// verdict comes from the generator (or its deterministic fallback), never
// from the ratio/payback table.
func (s *Service) Narrate(ctx context.Context, in Input) (*narrative.Result, *location.Location, error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}

	req := narrative.Request{
		ZipCode:     in.ZipCode,
		MonthlyBill: in.MonthlyBill,
		CreditBand:  solar.CreditBand(in.CreditBand),
		RoofSqFt:    in.RoofSqFt,
	}

	// Location and electricity context are best-effort here.
	loc, err := s.resolver.Resolve(ctx, in.ZipCode)
	if err != nil {
		log.Printf("qualify: location lookup for %s failed: %v", in.ZipCode, err)
		loc = nil
	} else {
		req.Location = loc
		req.Electricity = s.profiles.GetProfile(ctx, loc)
	}

	result := s.generate(ctx, req)

	metrics.QualificationsTotal.WithLabelValues(result.Status).Inc()
	s.persist(ctx, in, loc, result.Status, result)
	return result, loc, nil
}

func (s *Service) generate(ctx context.Context, req narrative.Request) *narrative.Result {
	if s.generator != nil {
		result, err := s.generator.Generate(ctx, req)
		if err == nil {
			if s.sink != nil {
				s.sink.Narrative(req.ZipCode, s.model, req, result)
			}
			return result
		}
		log.Printf("qualify: narrative generation failed, using fallback: %v", err)
	}
	result := narrative.Fallback(req)
	if s.sink != nil {
		s.sink.Narrative(req.ZipCode, "fallback", req, result)
	}
	return result
}

// persist writes the qualification record best-effort.
func (s *Service) persist(ctx context.Context, in Input, loc *location.Location, status string, payload any) {
	if s.store == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		data = nil
	}
	stateCode := ""
	if loc != nil {
		stateCode = loc.StateCode
	}
	rec := storage.QualificationRecord{
		ID:          uuid.NewString(),
		ZipCode:     in.ZipCode,
		StateCode:   stateCode,
		CreditBand:  in.CreditBand,
		MonthlyBill: in.MonthlyBill,
		RoofSqFt:    in.RoofSqFt,
		Status:      status,
		Payload:     data,
		CreatedAt:   time.Now(),
	}
	if err := s.store.SaveQualification(ctx, rec); err != nil {
		log.Printf("qualify: save qualification record: %v", err)
	}
}

// IsNotFound reports whether err should surface as a 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoData) || errors.Is(err, location.ErrNotFound)
}
