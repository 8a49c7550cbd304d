package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/sunlend/solarqual/internal/audit"
)

const logTailLimit = 100

func (s *Server) handleLogsSummary(w http.ResponseWriter, r *http.Request) {
	const endpoint = "logs-summary"
	defer observe(endpoint)()

	sum, err := s.reader.Summarize()
	if err != nil {
		log.Printf("api: summarize logs: %v", err)
		writeError(w, endpoint, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	const endpoint = "logs"
	defer observe(endpoint)()

	logType := strings.TrimPrefix(r.URL.Path, "/logs/")
	if !audit.ValidLogType(logType) {
		writeError(w, endpoint, http.StatusBadRequest, "Invalid log type")
		return
	}

	entries, total, err := s.reader.Read(logType, logTailLimit)
	if err != nil {
		log.Printf("api: read %s log: %v", logType, err)
		writeError(w, endpoint, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, struct {
		Logs         []json.RawMessage `json:"logs"`
		TotalEntries int               `json:"total_entries"`
	}{Logs: entries, TotalEntries: total})
}
