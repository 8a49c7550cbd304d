package credit

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/tealeg/xlsx/v2"
)

// Record is the Vantage score entry for one ZIP code.
type Record struct {
	ZipCode      string  `json:"zip_code"`
	VantageScore float64 `json:"vantage_score"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Source       string  `json:"source"`
}

// VantageStore serves ZIP-to-score lookups from a spreadsheet. The workbook
// is read exactly once on first use and the resulting map is frozen; readers
// never see a partially loaded table.
type VantageStore struct {
	path string

	once    sync.Once
	byZip   map[string]Record
	loadErr error
}

// NewVantageStore returns a store over the workbook at path. The file is not
// touched until the first Lookup.
func NewVantageStore(path string) *VantageStore {
	return &VantageStore{path: path}
}

// Lookup returns the record for a ZIP, or nil when absent or when the
// workbook could not be loaded.
func (s *VantageStore) Lookup(zip string) *Record {
	s.once.Do(s.load)
	if s.loadErr != nil {
		log.Printf("credit: vantage workbook unavailable: %v", s.loadErr)
		return nil
	}
	rec, ok := s.byZip[zip]
	if !ok {
		return nil
	}
	return &rec
}

// Len reports the number of loaded records (0 before first lookup or on
// load failure).
func (s *VantageStore) Len() int {
	s.once.Do(s.load)
	return len(s.byZip)
}

func (s *VantageStore) load() {
	s.byZip, s.loadErr = loadWorkbook(s.path)
	if s.loadErr == nil {
		log.Printf("credit: loaded %d vantage score records from %s", len(s.byZip), s.path)
	}
}

func loadWorkbook(path string) (map[string]Record, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if len(f.Sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) < 2 {
		return nil, fmt.Errorf("workbook %s has no data rows", path)
	}

	// Sniff column positions from the header row.
	zipCol, scoreCol, cityCol, stateCol := -1, -1, -1, -1
	for i, cell := range sheet.Rows[0].Cells {
		header := strings.ToLower(strings.TrimSpace(cell.String()))
		switch {
		case header == "zip" || header == "zip_code" || header == "zipcode":
			zipCol = i
		case strings.Contains(header, "vantage") || strings.Contains(header, "score"):
			scoreCol = i
		case header == "city":
			cityCol = i
		case header == "state":
			stateCol = i
		}
	}
	if zipCol < 0 || scoreCol < 0 {
		return nil, fmt.Errorf("workbook %s is missing zip or score columns", path)
	}

	out := make(map[string]Record)
	for _, row := range sheet.Rows[1:] {
		zip := cellAt(row, zipCol)
		rawScore := cellAt(row, scoreCol)
		if zip == "" || rawScore == "" {
			continue
		}
		// ZIPs in the northeast lose their leading zeros in spreadsheets.
		for len(zip) < 5 {
			zip = "0" + zip
		}

		score, err := strconv.ParseFloat(rawScore, 64)
		if err != nil {
			continue
		}

		rec := Record{
			ZipCode:      zip,
			VantageScore: score,
			City:         "Unknown",
			State:        "Unknown",
			Source:       "Local Excel File",
		}
		if city := cellAt(row, cityCol); city != "" {
			rec.City = city
		}
		if state := cellAt(row, stateCol); state != "" {
			rec.State = state
		}
		out[zip] = rec
	}
	return out, nil
}

func cellAt(row *xlsx.Row, col int) string {
	if col < 0 || col >= len(row.Cells) {
		return ""
	}
	return strings.TrimSpace(row.Cells[col].String())
}
