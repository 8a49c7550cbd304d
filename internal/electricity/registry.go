package electricity

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/sunlend/solarqual/internal/location"
)

// Source is one provider of electricity economics. Fetch returns (nil, nil)
// when the provider simply has no data for the location; errors cover
// transport and parse failures and are swallowed by the chain.
type Source interface {
	Key() string
	Fetch(ctx context.Context, loc *location.Location) (*Profile, error)
}

// Deps carries the shared collaborators source constructors need.
type Deps struct {
	Client    *http.Client
	EIAAPIKey string
}

// SourceFactory builds a Source from its descriptor and shared deps.
type SourceFactory func(d ProviderDescriptor, deps Deps) Source

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]SourceFactory)
)

// RegisterSource registers a factory for a provider key. Called from init()
// in each source file.
func RegisterSource(key string, f SourceFactory) {
	if key == "" {
		panic("electricity: RegisterSource called with empty key")
	}
	if f == nil {
		panic(fmt.Sprintf("electricity: RegisterSource(%q) called with nil factory", key))
	}

	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	if _, exists := factories[key]; exists {
		panic(fmt.Sprintf("electricity: RegisterSource called twice for key %q", key))
	}
	factories[key] = f
}

// GetSourceFactory returns the factory registered for a provider key.
func GetSourceFactory(key string) (SourceFactory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	f, ok := factories[key]
	return f, ok
}

// ListSources returns all registered provider keys.
func ListSources() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	keys := make([]string, 0, len(factories))
	for k := range factories {
		keys = append(keys, k)
	}
	return keys
}
