package domain

import "context"

// LLMProvider is the interface all model backends implement. One provider
// serves every model its vendor exposes; the wire model name travels in
// ChatRequest.Model.
type LLMProvider interface {
	// Chat sends a conversation and returns the completion.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	// Name returns the provider's registered name.
	Name() string
}

// ProviderRegistry resolves vendors to providers. Implementations are built
// once at startup and are read-only afterwards, so lookups need no locking
// on the engine's hot path.
type ProviderRegistry interface {
	// Provider returns the provider registered for the vendor, or an error
	// wrapping ErrProviderUnavailable.
	Provider(vendor Vendor) (LLMProvider, error)
	// Vendors lists the registered vendor keys.
	Vendors() []Vendor
}
