package credit

import (
	"path/filepath"
	"testing"

	"github.com/tealeg/xlsx/v2"
)

func writeWorkbook(t *testing.T, headers []string, rows [][]string) string {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	if err != nil {
		t.Fatalf("AddSheet: %v", err)
	}
	hr := sheet.AddRow()
	for _, h := range headers {
		hr.AddCell().SetString(h)
	}
	for _, row := range rows {
		r := sheet.AddRow()
		for _, v := range row {
			r.AddCell().SetString(v)
		}
	}

	path := filepath.Join(t.TempDir(), "vantage.xlsx")
	if err := f.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return path
}

func TestVantageLookup(t *testing.T) {
	path := writeWorkbook(t,
		[]string{"Zip", "Avg Vantage Score", "City", "State"},
		[][]string{
			{"90210", "720.5", "Beverly Hills", "CA"},
			{"501", "655", "Holtsville", "NY"},
			{"10001", "bad-score", "New York", "NY"},
		})

	store := NewVantageStore(path)

	rec := store.Lookup("90210")
	if rec == nil {
		t.Fatal("expected a record for 90210")
	}
	if rec.VantageScore != 720.5 || rec.City != "Beverly Hills" || rec.State != "CA" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.Source != "Local Excel File" {
		t.Errorf("source = %q", rec.Source)
	}

	// Short ZIPs get zero-padded.
	if rec := store.Lookup("00501"); rec == nil || rec.City != "Holtsville" {
		t.Errorf("zero-padded lookup failed: %+v", rec)
	}

	// Unparseable scores are skipped, absent ZIPs return nil.
	if rec := store.Lookup("10001"); rec != nil {
		t.Errorf("row with bad score should be skipped, got %+v", rec)
	}
	if rec := store.Lookup("99999"); rec != nil {
		t.Errorf("absent ZIP should be nil, got %+v", rec)
	}

	if store.Len() != 2 {
		t.Errorf("Len = %d, want 2", store.Len())
	}
}

func TestVantageHeaderSniffing(t *testing.T) {
	path := writeWorkbook(t,
		[]string{"State", "zip_code", "city", "score"},
		[][]string{{"TX", "75001", "Addison", "690"}})

	store := NewVantageStore(path)
	rec := store.Lookup("75001")
	if rec == nil {
		t.Fatal("expected a record despite shuffled columns")
	}
	if rec.VantageScore != 690 || rec.State != "TX" {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestVantageMissingFile(t *testing.T) {
	store := NewVantageStore(filepath.Join(t.TempDir(), "missing.xlsx"))
	if rec := store.Lookup("90210"); rec != nil {
		t.Fatalf("missing workbook must yield nil, got %+v", rec)
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0", store.Len())
	}
}

func TestVantageConcurrentFirstLoad(t *testing.T) {
	path := writeWorkbook(t,
		[]string{"zip", "vantage"},
		[][]string{{"30301", "701"}})

	store := NewVantageStore(path)

	done := make(chan *Record, 8)
	for i := 0; i < 8; i++ {
		go func() { done <- store.Lookup("30301") }()
	}
	for i := 0; i < 8; i++ {
		rec := <-done
		if rec == nil || rec.VantageScore != 701 {
			t.Fatalf("concurrent lookup %d got %+v", i, rec)
		}
	}
}
