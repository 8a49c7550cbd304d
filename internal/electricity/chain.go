package electricity

import (
	"context"
	"log"
	"time"

	"github.com/sunlend/solarqual/internal/location"
	"github.com/sunlend/solarqual/internal/metrics"
)

// Chain queries its sources in fixed priority order and short-circuits at the
// first populated profile. Source failures are logged and swallowed; the
// caller only ever sees a profile or nil.
type Chain struct {
	sources       []Source
	scrapeTimeout time.Duration
	statTimeout   time.Duration
}

// NewChain builds the chain from the ordered provider descriptors, skipping
// keys with no registered factory.
func NewChain(deps Deps, scrapeTimeout, statTimeout time.Duration) *Chain {
	if scrapeTimeout <= 0 {
		scrapeTimeout = 10 * time.Second
	}
	if statTimeout <= 0 {
		statTimeout = 15 * time.Second
	}

	var sources []Source
	for _, d := range Providers() {
		f, ok := GetSourceFactory(d.Key)
		if !ok {
			log.Printf("electricity: no source registered for key %q, skipping", d.Key)
			continue
		}
		sources = append(sources, f(d, deps))
	}
	return &Chain{sources: sources, scrapeTimeout: scrapeTimeout, statTimeout: statTimeout}
}

// NewChainWithSources builds a chain over an explicit source list (tests).
func NewChainWithSources(sources []Source, scrapeTimeout, statTimeout time.Duration) *Chain {
	return &Chain{sources: sources, scrapeTimeout: scrapeTimeout, statTimeout: statTimeout}
}

// Resolve walks the chain. A nil result means every source came up empty.
func (c *Chain) Resolve(ctx context.Context, loc *location.Location) *Profile {
	for _, src := range c.sources {
		metrics.SourceAttemptsTotal.WithLabelValues(src.Key()).Inc()

		timeout := c.scrapeTimeout
		if src.Key() == "eia" {
			timeout = c.statTimeout
		}
		srcCtx, cancel := context.WithTimeout(ctx, timeout)
		p, err := src.Fetch(srcCtx, loc)
		cancel()

		if err != nil {
			log.Printf("electricity: source %s failed: %v", src.Key(), err)
			continue
		}
		if p == nil {
			log.Printf("electricity: source %s had no data for %s/%s", src.Key(), loc.StateCode, loc.County)
			continue
		}

		metrics.SourceHitsTotal.WithLabelValues(src.Key()).Inc()
		log.Printf("electricity: %s supplied data for %s/%s", p.Source, loc.StateCode, loc.County)
		return p
	}

	metrics.ChainExhaustedTotal.Inc()
	log.Printf("electricity: all sources exhausted for %s/%s", loc.StateCode, loc.County)
	return nil
}
