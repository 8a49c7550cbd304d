package electricity

import (
	"context"
	"testing"
	"time"

	"github.com/sunlend/solarqual/internal/storage"
)

func TestServiceCachesChainResults(t *testing.T) {
	ctx := context.Background()
	hit := &stubSource{key: "a", profile: &Profile{Source: "a", UtilityRatePerKWh: 0.2, AverageMonthlyBill: 150}}
	chain := NewChainWithSources([]Source{hit}, time.Second, time.Second)
	st := storage.NewMemory()
	svc := NewServiceWithStorage(chain, st, time.Hour)

	loc := testLocation()
	p := svc.GetProfile(ctx, loc)
	if p == nil || p.Source != "a" {
		t.Fatalf("first call: got %+v", p)
	}
	if hit.calls != 1 {
		t.Fatalf("chain should have run once, ran %d times", hit.calls)
	}

	p = svc.GetProfile(ctx, loc)
	if p == nil || p.Source != "a" {
		t.Fatalf("second call: got %+v", p)
	}
	if hit.calls != 1 {
		t.Errorf("fresh snapshot should be served from cache, chain ran %d times", hit.calls)
	}
}

func TestServiceServesStaleOnExhaustion(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory()
	loc := testLocation()

	if err := st.SaveSnapshot(ctx, storage.ElectricitySnapshot{
		StateCode: loc.StateCode,
		County:    loc.County,
		Source:    "findenergy.com",
		Payload:   []byte(`{"average_monthly_bill":140,"utility_rate_per_kwh":0.18,"data_source":"findenergy.com"}`),
		FetchedAt: time.Now().Add(-48 * time.Hour),
	}); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	empty := &stubSource{key: "a"}
	chain := NewChainWithSources([]Source{empty}, time.Second, time.Second)
	svc := NewServiceWithStorage(chain, st, time.Hour)

	p := svc.GetProfile(ctx, loc)
	if p == nil {
		t.Fatal("stale snapshot should be served when the chain is exhausted")
	}
	if p.AverageMonthlyBill != 140 {
		t.Errorf("bill = %v, want 140 from the stale snapshot", p.AverageMonthlyBill)
	}
	if empty.calls != 1 {
		t.Errorf("stale snapshot must still trigger a chain run, ran %d times", empty.calls)
	}
}

func TestServiceNoDataNoSnapshot(t *testing.T) {
	chain := NewChainWithSources([]Source{&stubSource{key: "a"}}, time.Second, time.Second)
	svc := NewServiceWithStorage(chain, storage.NewMemory(), time.Hour)

	if p := svc.GetProfile(context.Background(), testLocation()); p != nil {
		t.Fatalf("got %+v, want nil", p)
	}
}
