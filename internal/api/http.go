package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sunlend/solarqual/internal/audit"
	"github.com/sunlend/solarqual/internal/config"
	"github.com/sunlend/solarqual/internal/credit"
	"github.com/sunlend/solarqual/internal/demographics"
	"github.com/sunlend/solarqual/internal/electricity"
	"github.com/sunlend/solarqual/internal/location"
	migrate "github.com/sunlend/solarqual/internal/migrate"
	"github.com/sunlend/solarqual/internal/narrative"
	"github.com/sunlend/solarqual/internal/notification"
	"github.com/sunlend/solarqual/internal/qualify"
	"github.com/sunlend/solarqual/internal/storage"
)

// NewMux builds the production mux: opens storage, wires the qualification
// service and all its data sources from the environment.
func NewMux(cfg config.Config) *http.ServeMux {
	driver := os.Getenv("SOLARQUAL_DB_DRIVER")
	dsn := os.Getenv("SOLARQUAL_DB_DSN")
	if driver == "" {
		driver = "sqlite"
	}
	if dsn == "" {
		dsn = "solarqual.db"
	}

	// Optional auto-migration: run `goose up` on startup when enabled.
	autoMig := strings.ToLower(os.Getenv("SOLARQUAL_AUTO_MIGRATE"))
	if autoMig == "1" || autoMig == "true" || autoMig == "yes" {
		if driver == "memory" {
			log.Printf("api: auto-migration skipped for memory driver")
		} else if err := migrate.Up(context.Background(), driver, dsn); err != nil {
			log.Printf("api: auto-migration failed: %v", err)
		}
	}

	st, err := storage.Open(context.Background(), storage.Config{Driver: driver, DSN: dsn})
	if err != nil {
		log.Printf("api: storage.Open failed (driver=%s): %v; continuing without persistence", driver, err)
		st = nil
	} else {
		log.Printf("api: using storage backend driver=%s", driver)
	}

	client := &http.Client{Timeout: 30 * time.Second}

	resolver := location.NewResolver(cfg.GeoLookupURL, cfg.CountyLookupURL, client)
	chain := electricity.NewChain(electricity.Deps{Client: client, EIAAPIKey: cfg.EIAAPIKey}, cfg.ScrapeTimeout, cfg.StatTimeout)
	var profiles *electricity.Service
	if st != nil {
		profiles = electricity.NewServiceWithStorage(chain, st, cfg.SnapshotTTL)
	} else {
		profiles = electricity.NewService(chain)
	}

	sink := audit.NewSink(cfg.LogsDir)
	reader := audit.NewReader(cfg.LogsDir)

	opts := []qualify.Option{qualify.WithAudit(sink)}
	if st != nil {
		opts = append(opts, qualify.WithStorage(st))
	}
	if cfg.AnthropicAPIKey != "" {
		gen := narrative.NewAnthropicGenerator(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		opts = append(opts, qualify.WithGenerator(gen, gen.Model()))
	} else {
		log.Printf("api: no narration API key configured, using deterministic fallback")
	}
	qsvc := qualify.NewService(resolver, profiles, opts...)

	census := demographics.NewProvider(cfg.CensusURL, cfg.CensusAPIKey, client)
	vantage := credit.NewVantageStore(cfg.VantageXLSXPath)

	var notifier *notification.Service
	if st != nil {
		notifier = notification.NewService(st)
	}

	return NewServer(qsvc, census, vantage, sink, reader, notifier, st).Routes()
}
