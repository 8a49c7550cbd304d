package location

import (
	"context"
	"net/http"
	"net/http/httptest"
	"errors"
	"testing"
)

func TestValidZip(t *testing.T) {
	valid := []string{"90210", "00501", "12345"}
	for _, z := range valid {
		if !ValidZip(z) {
			t.Errorf("ValidZip(%q) = false, want true", z)
		}
	}
	invalid := []string{"", "1234", "123456", "9021a", "90 10", "ABCDE"}
	for _, z := range invalid {
		if ValidZip(z) {
			t.Errorf("ValidZip(%q) = true, want false", z)
		}
	}
}

func TestCountySlug(t *testing.T) {
	cases := map[string]string{
		"Los Angeles County": "los-angeles",
		"Cook County":        "cook",
		"Travis":             "travis",
		"De Kalb County":     "de-kalb",
	}
	for in, want := range cases {
		if got := CountySlug(in); got != want {
			t.Errorf("CountySlug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolve(t *testing.T) {
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"places":[{"place name":"Beverly Hills","state abbreviation":"CA","latitude":"34.0901","longitude":"-118.4065"}]}`))
	}))
	defer geo.Close()

	county := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("missing format=json query param")
		}
		w.Write([]byte(`{"County":{"name":"Los Angeles County"}}`))
	}))
	defer county.Close()

	r := NewResolver(geo.URL+"/%s", county.URL, nil)
	loc, err := r.Resolve(context.Background(), "90210")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if loc.City != "Beverly Hills" || loc.StateCode != "CA" {
		t.Errorf("unexpected place: %+v", loc)
	}
	if loc.County != "los-angeles" {
		t.Errorf("county = %q, want los-angeles", loc.County)
	}
	if loc.Latitude != 34.0901 || loc.Longitude != -118.4065 {
		t.Errorf("unexpected coordinates: %+v", loc)
	}
	if loc.StateSlug() != "ca" {
		t.Errorf("StateSlug = %q, want ca", loc.StateSlug())
	}
}

func TestResolveInvalidZipSkipsNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	r := NewResolver(srv.URL+"/%s", srv.URL, nil)
	for _, zip := range []string{"123", "abcde", "1234567"} {
		if _, err := r.Resolve(context.Background(), zip); !errors.Is(err, ErrInvalidZip) {
			t.Errorf("Resolve(%q) err = %v, want ErrInvalidZip", zip, err)
		}
	}
	if calls != 0 {
		t.Errorf("made %d network calls for invalid zips, want 0", calls)
	}
}

func TestResolveUnknownZip(t *testing.T) {
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer geo.Close()

	r := NewResolver(geo.URL+"/%s", geo.URL, nil)
	if _, err := r.Resolve(context.Background(), "99999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
