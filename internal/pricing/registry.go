package pricing

import (
	"sort"
	"sync"

	"collectibles-vault/internal/catalog"
)

const (
	SourceEbay          = "ebay"
	SourceJustTCG       = "justtcg"
	SourcePokemonTCG    = "pokemontcg"
	SourcePriceCharting = "pricecharting"
	SourceStockX        = "stockx"
	SourceDiscogs       = "discogs"
)

// UniversalFallback is appended to every route when not already present.
const UniversalFallback = SourceEbay

var defaultRoutes = map[string][]string{
	"trading card":  {SourceJustTCG, SourcePokemonTCG},
	"videogames":    {SourcePriceCharting, SourceEbay},
	"console":       {SourcePriceCharting, SourceEbay},
	"cd":            {SourcePriceCharting, SourceEbay},
	"vinyl":         {SourcePriceCharting, SourceEbay},
	"music":         {SourcePriceCharting, SourceEbay},
	"other":         {SourcePriceCharting, SourceEbay},
	"action figure": {SourcePriceCharting, SourceEbay},
	"sneakers":      {SourceStockX},
}

// impliedSources lists the source that owns each identifier namespace.
var impliedSources = []struct {
	kind   catalog.Kind
	source string
}{
	{catalog.KindTradingCardID, SourceJustTCG},
	{catalog.KindCatalogProviderID, SourceDiscogs},
	{catalog.KindResalePlatformSlug, SourceStockX},
	{catalog.KindPricingProviderID, SourcePriceCharting},
}

// Registry holds the configured adapters and the category routing table.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	routes   map[string][]string
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter), routes: make(map[string][]string)}
	for cat, sources := range defaultRoutes {
		r.routes[cat] = append([]string(nil), sources...)
	}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds or replaces the adapter for its source name.
func (r *Registry) Register(a Adapter) {
	if a == nil {
		return
	}
	r.mu.Lock()
	r.adapters[a.Source()] = a
	r.mu.Unlock()
}

// Route sets the ordered source list for a category.
func (r *Registry) Route(category string, sources ...string) {
	r.mu.Lock()
	r.routes[catalog.NormalizeCategory(category)] = append([]string(nil), sources...)
	r.mu.Unlock()
}

func (r *Registry) Get(source string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[source]
	return a, ok
}

// Sources returns the registered source names, sorted.
func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.adapters))
	for s := range r.adapters {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// RouteFor returns the ordered source names for a category, ending with the
// universal fallback.
func (r *Registry) RouteFor(category string) []string {
	r.mu.RLock()
	route := r.routes[catalog.NormalizeCategory(category)]
	r.mu.RUnlock()
	return withFallback(route)
}

// ForCategory resolves RouteFor to registered adapters, skipping unknown sources.
func (r *Registry) ForCategory(category string) []Adapter {
	return r.resolve(r.RouteFor(category))
}

// SourcesForEntry extends the category route with the sources implied by
// the identifiers an entry carries. Used for catalog-level aggregation.
func (r *Registry) SourcesForEntry(category string, ids catalog.Identifiers) []Adapter {
	r.mu.RLock()
	route := append([]string(nil), r.routes[catalog.NormalizeCategory(category)]...)
	r.mu.RUnlock()
	for _, imp := range impliedSources {
		if ids.Get(imp.kind) != "" {
			route = append(route, imp.source)
		}
	}
	return r.resolve(withFallback(route))
}

func (r *Registry) resolve(sources []string) []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Adapter, 0, len(sources))
	for _, s := range sources {
		if a, ok := r.adapters[s]; ok {
			out = append(out, a)
		}
	}
	return out
}

// withFallback dedups the route keeping first occurrences and moves the
// universal fallback to the end.
func withFallback(route []string) []string {
	out := make([]string, 0, len(route)+1)
	seen := map[string]bool{UniversalFallback: true}
	for _, s := range route {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return append(out, UniversalFallback)
}
