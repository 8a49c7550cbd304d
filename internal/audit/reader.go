package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// validLogTypes lists the files /logs/{type} and the CLI may read.
var validLogTypes = map[string]bool{
	"api_requests":                true,
	"electricity_data_data":       true,
	"demographic_data_data":       true,
	"electricity_data_extra_data": true,
	"demographic_data_extra_data": true,
	"data_sources":                true,
	"errors":                      true,
	"narrative_calculations":      true,
}

// ValidLogType reports whether name maps to a readable log file.
func ValidLogType(name string) bool { return validLogTypes[name] }

// Reader reads back the JSONL files a Sink produced.
type Reader struct {
	dir string
}

func NewReader(dir string) *Reader { return &Reader{dir: dir} }

// Read returns the most recent `limit` entries of a log plus the total line
// count. A missing file is not an error, just zero entries. Unparseable
// lines are skipped.
func (r *Reader) Read(logType string, limit int) ([]json.RawMessage, int, error) {
	if !ValidLogType(logType) {
		return nil, 0, fmt.Errorf("invalid log type %q", logType)
	}
	if limit <= 0 {
		limit = 100
	}

	f, err := os.Open(filepath.Join(r.dir, logType+".jsonl"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	defer f.Close()

	var entries []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if !json.Valid(line) {
			continue
		}
		entries = append(entries, json.RawMessage(append([]byte(nil), line...)))
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}

	total := len(entries)
	if total > limit {
		entries = entries[total-limit:]
	}
	return entries, total, nil
}

// Summary aggregates the request log and error log.
type Summary struct {
	TotalRequests   int              `json:"total_requests"`
	UniqueZipCodes  int              `json:"unique_zip_codes"`
	EndpointsUsed   map[string]int   `json:"endpoints_used"`
	DataSourcesUsed map[string]int   `json:"data_sources_used"`
	ErrorsCount     int              `json:"errors_count"`
	RecentRequests  []RecentRequest  `json:"recent_requests"`
}

// RecentRequest is one line of the summary's recent activity.
type RecentRequest struct {
	Timestamp string `json:"timestamp"`
	Endpoint  string `json:"endpoint"`
	ZipCode   string `json:"zip_code"`
}

// Summarize walks the full request and error logs.
func (r *Reader) Summarize() (*Summary, error) {
	sum := &Summary{
		EndpointsUsed:   make(map[string]int),
		DataSourcesUsed: make(map[string]int),
	}
	zips := make(map[string]bool)

	requests, _, err := r.Read("api_requests", 1<<30)
	if err != nil {
		return nil, err
	}
	for _, raw := range requests {
		var entry struct {
			Timestamp    string `json:"timestamp"`
			Endpoint     string `json:"endpoint"`
			ZipCode      string `json:"zip_code"`
			ResponseData struct {
				DataSource string `json:"data_source"`
			} `json:"response_data"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		sum.TotalRequests++
		zips[entry.ZipCode] = true
		sum.EndpointsUsed[entry.Endpoint]++
		if entry.ResponseData.DataSource != "" {
			sum.DataSourcesUsed[entry.ResponseData.DataSource]++
		}
		if len(sum.RecentRequests) < 10 {
			sum.RecentRequests = append(sum.RecentRequests, RecentRequest{
				Timestamp: entry.Timestamp,
				Endpoint:  entry.Endpoint,
				ZipCode:   entry.ZipCode,
			})
		}
	}
	sum.UniqueZipCodes = len(zips)

	_, errCount, err := r.Read("errors", 1)
	if err != nil {
		return nil, err
	}
	sum.ErrorsCount = errCount

	return sum, nil
}
