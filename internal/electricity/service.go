package electricity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sunlend/solarqual/internal/location"
	"github.com/sunlend/solarqual/internal/storage"
)

// Service fronts the chain with a storage-backed snapshot cache. Fresh
// snapshots are served directly; on a miss the chain runs and the result is
// written back best-effort. A stale snapshot is still served when the chain
// comes up empty.
type Service struct {
	chain *Chain
	store storage.Storage // may be nil for chain-only mode
	ttl   time.Duration
}

// NewService returns a chain-only service with no caching.
func NewService(chain *Chain) *Service {
	return &Service{chain: chain}
}

// NewServiceWithStorage returns a Service that caches chain results.
func NewServiceWithStorage(chain *Chain, st storage.Storage, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{chain: chain, store: st, ttl: ttl}
}

// GetProfile returns the electricity profile for a location, or nil when no
// source has data and no snapshot exists.
func (s *Service) GetProfile(ctx context.Context, loc *location.Location) *Profile {
	var stale *Profile

	if s.store != nil {
		snap, err := s.store.GetSnapshot(ctx, loc.StateCode, loc.County)
		if err == nil && snap != nil && len(snap.Payload) > 0 {
			var p Profile
			if err := json.Unmarshal(snap.Payload, &p); err == nil {
				if time.Since(snap.FetchedAt) < s.ttl {
					return &p
				}
				stale = &p
			}
		}
	}

	p := s.chain.Resolve(ctx, loc)
	if p == nil {
		// Exhausted chain: a stale snapshot beats nothing.
		return stale
	}

	if s.store != nil {
		if payload, err := json.Marshal(p); err == nil {
			_ = s.store.SaveSnapshot(ctx, storage.ElectricitySnapshot{
				StateCode: loc.StateCode,
				County:    loc.County,
				Source:    p.Source,
				Payload:   payload,
				FetchedAt: time.Now(),
			})
		}
	}
	return p
}

// Refresh forces a chain run for a location and stores the result, bypassing
// the TTL check. Used by the background refresh job.
func (s *Service) Refresh(ctx context.Context, loc *location.Location) (*Profile, error) {
	p := s.chain.Resolve(ctx, loc)
	if p == nil {
		return nil, nil
	}
	if s.store != nil {
		payload, err := json.Marshal(p)
		if err != nil {
			return p, err
		}
		if err := s.store.SaveSnapshot(ctx, storage.ElectricitySnapshot{
			StateCode: loc.StateCode,
			County:    loc.County,
			Source:    p.Source,
			Payload:   payload,
			FetchedAt: time.Now(),
		}); err != nil {
			return p, err
		}
	}
	return p, nil
}
