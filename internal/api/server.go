package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sunlend/solarqual/internal/audit"
	"github.com/sunlend/solarqual/internal/credit"
	"github.com/sunlend/solarqual/internal/demographics"
	"github.com/sunlend/solarqual/internal/metrics"
	"github.com/sunlend/solarqual/internal/notification"
	"github.com/sunlend/solarqual/internal/qualify"
	"github.com/sunlend/solarqual/internal/storage"
)

// Server holds the handler dependencies and builds the mux.
type Server struct {
	qualify      *qualify.Service
	demographics *demographics.Provider
	vantage      *credit.VantageStore
	sink         *audit.Sink
	reader       *audit.Reader
	notifier     *notification.Service
	store        storage.Storage
}

func NewServer(q *qualify.Service, d *demographics.Provider, v *credit.VantageStore,
	sink *audit.Sink, reader *audit.Reader, notifier *notification.Service, st storage.Storage) *Server {
	return &Server{
		qualify:      q,
		demographics: d,
		vantage:      v,
		sink:         sink,
		reader:       reader,
		notifier:     notifier,
		store:        st,
	}
}

// Routes wires every endpoint onto a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("live"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if s.store != nil {
			if err := s.store.Ping(r.Context()); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/electricity-data", s.handleElectricityData)
	mux.HandleFunc("/demographic-data", s.handleDemographicData)
	mux.HandleFunc("/vantage-score", s.handleVantageScore)
	mux.HandleFunc("/api/check-qualification", s.handleCheckQualification)
	mux.HandleFunc("/api/evaluate", s.handleEvaluate)
	mux.HandleFunc("/sources", s.handleSources)

	mux.HandleFunc("/logs/summary", s.handleLogsSummary)
	mux.HandleFunc("/logs/", s.handleLogs)

	s.registerEmailRoutes(mux)

	return mux
}

// observe records the per-endpoint request metrics and returns the function
// to defer for duration observation.
func observe(endpoint string) func() {
	start := time.Now()
	metrics.RequestsTotal.WithLabelValues(endpoint).Inc()
	return func() {
		metrics.RequestDurationSeconds.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}

func countError(endpoint string, code int) {
	metrics.RequestErrorsTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, endpoint string, code int, msg string) {
	countError(endpoint, code)
	writeJSON(w, code, map[string]string{"error": msg})
}

func requestExtra(r *http.Request) map[string]any {
	ua := r.Header.Get("User-Agent")
	if ua == "" {
		ua = "Unknown"
	}
	return map[string]any{
		"request_ip": r.RemoteAddr,
		"user_agent": ua,
	}
}
