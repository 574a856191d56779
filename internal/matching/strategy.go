package matching

import (
	"github.com/supplysync/catalog_api/internal/models"
)

// Strategy scores a supplier item against a set of candidate products.
// Implementations must be safe for concurrent use; the batch matcher calls
// FindMatches from multiple workers.
//
// The decision policy (auto/potential/new-product thresholds) lives in the
// match service, not here, so alternative matchers (e.g. embedding-based)
// can be swapped in without touching it.
type Strategy interface {
	// FindMatches returns candidates ranked by descending score (0-100).
	// Candidates scoring zero are omitted.
	FindMatches(item *models.SupplierItem, candidates []models.Product) []models.MatchCandidate

	// Name identifies the strategy in config and logs.
	Name() string
}

// Registry resolves strategies by name at task-construction time.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register adds a strategy under its own name.
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Get returns the strategy registered under name, or nil if not found.
func (r *Registry) Get(name string) Strategy {
	return r.strategies[name]
}
