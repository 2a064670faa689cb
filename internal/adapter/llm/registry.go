package llm

import (
	"sort"
	"sync"

	"ensemble/internal/domain"
)

// Compile-time interface assertion.
var _ domain.ProviderRegistry = (*Registry)(nil)

// Registry maps vendor prefixes to providers. Registration happens once at
// startup; afterwards the registry is only read, so lookups share a RLock.
type Registry struct {
	mu        sync.RWMutex
	providers map[domain.Vendor]domain.LLMProvider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[domain.Vendor]domain.LLMProvider),
	}
}

// Register adds a provider under the given vendor key. Returns an error
// wrapping domain.ErrDuplicateVendor if the key is already taken.
func (r *Registry) Register(vendor domain.Vendor, provider domain.LLMProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[vendor]; exists {
		return domain.NewOrchestrationError("registry.register", domain.ErrDuplicateVendor, string(vendor))
	}
	r.providers[vendor] = provider
	return nil
}

// Provider implements domain.ProviderRegistry.
func (r *Registry) Provider(vendor domain.Vendor) (domain.LLMProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[vendor]
	if !ok {
		return nil, domain.NewOrchestrationError("registry.provider", domain.ErrProviderUnavailable, string(vendor))
	}
	return p, nil
}

// Vendors implements domain.ProviderRegistry. Keys are sorted so listings
// are deterministic.
func (r *Registry) Vendors() []domain.Vendor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	vendors := make([]domain.Vendor, 0, len(r.providers))
	for v := range r.providers {
		vendors = append(vendors, v)
	}
	sort.Slice(vendors, func(i, j int) bool { return vendors[i] < vendors[j] })
	return vendors
}
