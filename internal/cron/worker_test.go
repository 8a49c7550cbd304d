package cron

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sunlend/solarqual/internal/electricity"
	"github.com/sunlend/solarqual/internal/location"
	"github.com/sunlend/solarqual/internal/storage"
)

func TestNextRunTimeSeconds(t *testing.T) {
	last := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	got := nextRunTime("300", last)
	if want := last.Add(5 * time.Minute); !got.Equal(want) {
		t.Errorf("nextRunTime = %v, want %v", got, want)
	}
}

func TestNextRunTimeCronExpression(t *testing.T) {
	last := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	got := nextRunTime("0 * * * *", last)
	if want := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("nextRunTime = %v, want %v", got, want)
	}
}

func TestNextRunTimeFallback(t *testing.T) {
	last := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	got := nextRunTime("not-a-schedule", last)
	if want := last.Add(5 * time.Minute); !got.Equal(want) {
		t.Errorf("nextRunTime = %v, want %v", got, want)
	}
}

type fixedSource struct {
	profile *electricity.Profile
}

func (s *fixedSource) Key() string { return "fixed" }

func (s *fixedSource) Fetch(ctx context.Context, loc *location.Location) (*electricity.Profile, error) {
	return s.profile, nil
}

func TestRefreshAll(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory()

	stale := electricity.Profile{AverageMonthlyBill: 100, UtilityRatePerKWh: 0.10, Source: "old"}
	payload, _ := json.Marshal(stale)
	for _, pair := range [][2]string{{"TN", "rutherford"}, {"CA", "los-angeles"}} {
		err := st.SaveSnapshot(ctx, storage.ElectricitySnapshot{
			StateCode: pair[0],
			County:    pair[1],
			Source:    "old",
			Payload:   payload,
			FetchedAt: time.Now().Add(-48 * time.Hour),
		})
		if err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
	}

	fresh := &electricity.Profile{AverageMonthlyBill: 120, UtilityRatePerKWh: 0.12, Source: "findenergy.com"}
	chain := electricity.NewChainWithSources([]electricity.Source{&fixedSource{profile: fresh}}, time.Second, time.Second)
	svc := electricity.NewServiceWithStorage(chain, st, 24*time.Hour)

	total, failures := refreshAll(ctx, st, svc)
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if len(failures) != 0 {
		t.Errorf("failures = %v", failures)
	}

	snap, err := st.GetSnapshot(ctx, "TN", "rutherford")
	if err != nil || snap == nil {
		t.Fatalf("GetSnapshot: %v, %v", snap, err)
	}
	if snap.Source != "findenergy.com" {
		t.Errorf("snapshot source = %q, want refreshed", snap.Source)
	}
}

func TestRefreshAllReportsExhaustion(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory()

	payload, _ := json.Marshal(electricity.Profile{Source: "old"})
	err := st.SaveSnapshot(ctx, storage.ElectricitySnapshot{
		StateCode: "TX",
		County:    "travis",
		Source:    "old",
		Payload:   payload,
		FetchedAt: time.Now().Add(-48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	chain := electricity.NewChainWithSources([]electricity.Source{&fixedSource{profile: nil}}, time.Second, time.Second)
	svc := electricity.NewServiceWithStorage(chain, st, 24*time.Hour)

	total, failures := refreshAll(ctx, st, svc)
	if total != 1 || len(failures) != 1 {
		t.Fatalf("total %d failures %v", total, failures)
	}
	if failures[0].Target != "TX/travis" {
		t.Errorf("target = %q", failures[0].Target)
	}
}
