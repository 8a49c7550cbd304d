package audit

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Sink appends structured events to per-concern JSONL files. Every write is
// fire-and-forget: failures are logged and swallowed so auditing can never
// affect a qualification result.
type Sink struct {
	dir string
	mu  sync.Mutex
}

// NewSink creates the log directory if needed and returns a sink over it.
func NewSink(dir string) *Sink {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("audit: create log dir %s: %v", dir, err)
	}
	return &Sink{dir: dir}
}

// Dir returns the directory the sink writes to.
func (s *Sink) Dir() string { return s.dir }

type requestEntry struct {
	Timestamp    string         `json:"timestamp"`
	Endpoint     string         `json:"endpoint"`
	ZipCode      string         `json:"zip_code"`
	ResponseData any            `json:"response_data"`
	ExtraData    map[string]any `json:"extra_data"`
}

// APIRequest records a served request in the main request log, the
// per-endpoint log, and (when extra data is present) the endpoint's extra
// data log.
func (s *Sink) APIRequest(endpoint, zipCode string, response any, extra map[string]any) {
	ts := time.Now().Format(time.RFC3339Nano)
	if extra == nil {
		extra = map[string]any{}
	}
	entry := requestEntry{
		Timestamp:    ts,
		Endpoint:     endpoint,
		ZipCode:      zipCode,
		ResponseData: response,
		ExtraData:    extra,
	}

	s.appendLine("api_requests.jsonl", entry)

	name := endpointName(endpoint)
	s.appendLine(name+"_data.jsonl", entry)

	if len(extra) > 0 {
		s.appendLine(name+"_extra_data.jsonl", struct {
			Timestamp string         `json:"timestamp"`
			ZipCode   string         `json:"zip_code"`
			ExtraData map[string]any `json:"extra_data"`
		}{ts, zipCode, extra})
	}
}

// DataSource records which provider supplied data and what it looked like
// before and after processing.
func (s *Sink) DataSource(zipCode, source string, raw, processed any) {
	s.appendLine("data_sources.jsonl", struct {
		Timestamp     string `json:"timestamp"`
		ZipCode       string `json:"zip_code"`
		DataSource    string `json:"data_source"`
		RawData       any    `json:"raw_data"`
		ProcessedData any    `json:"processed_data"`
	}{time.Now().Format(time.RFC3339Nano), zipCode, source, raw, processed})
}

// Error records a user-visible failure.
func (s *Sink) Error(endpoint, zipCode, errMsg string, details map[string]any) {
	if details == nil {
		details = map[string]any{}
	}
	s.appendLine("errors.jsonl", struct {
		Timestamp    string         `json:"timestamp"`
		Endpoint     string         `json:"endpoint"`
		ZipCode      string         `json:"zip_code"`
		Error        string         `json:"error"`
		ErrorDetails map[string]any `json:"error_details"`
	}{time.Now().Format(time.RFC3339Nano), endpoint, zipCode, errMsg, details})
}

// Narrative records an AI-narrated calculation for later analysis.
func (s *Sink) Narrative(zipCode, model string, input, result any) {
	s.appendLine("narrative_calculations.jsonl", struct {
		Timestamp string `json:"timestamp"`
		ZipCode   string `json:"zip_code"`
		AIModel   string `json:"ai_model"`
		InputData any    `json:"input_data"`
		AIResult  any    `json:"ai_result"`
	}{time.Now().Format(time.RFC3339Nano), zipCode, model, input, result})
}

func (s *Sink) appendLine(file string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("audit: marshal %s entry: %v", file, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(s.dir, file), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("audit: open %s: %v", file, err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("audit: write %s: %v", file, err)
	}
}

func endpointName(endpoint string) string {
	name := strings.ReplaceAll(endpoint, "/", "_")
	return strings.ReplaceAll(name, "-", "_")
}
