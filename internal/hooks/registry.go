package hooks

import (
	"strings"

	"github.com/kamishop/backend/pkg/db/models"
)

// Registry maps routing tags to strategies. Tags are matched
// case-insensitively; orders without a recognized tag fall back to the
// product-hook strategy when the product carries a hook URL.
type Registry struct {
	strategies map[string]Strategy
	fallback   Strategy
}

// NewRegistry builds a registry with the given fallback strategy.
func NewRegistry(fallback Strategy) *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
		fallback:   fallback,
	}
}

// Register adds a named strategy. Later registrations with the same name win.
func (r *Registry) Register(strategy Strategy) {
	if strategy == nil {
		return
	}
	r.strategies[normalizeTag(strategy.Name())] = strategy
}

// Resolve picks the strategy for an order's routing tag. Returns nil when no
// strategy applies, in which case the dispatch is a no-op.
func (r *Registry) Resolve(tag string, product *models.Product) Strategy {
	if normalized := normalizeTag(tag); normalized != "" {
		if strategy, ok := r.strategies[normalized]; ok {
			return strategy
		}
	}
	if r.fallback != nil && product != nil && product.HookURL != nil && strings.TrimSpace(*product.HookURL) != "" {
		return r.fallback
	}
	return nil
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
