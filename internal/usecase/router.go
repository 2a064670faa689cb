package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ensemble/internal/domain"
)

// ModelRouter resolves vendor-prefixed model identifiers to providers and
// applies the fallback policy when a call fails.
//
// Fallbacks are a static one-hop map: a model either has exactly one
// substitute or none, and a substitute is never consulted for its own
// fallback. A single call therefore touches at most two providers.
type ModelRouter struct {
	registry  domain.ProviderRegistry
	fallbacks map[domain.ModelID]domain.ModelID
	logger    *slog.Logger
}

// NewModelRouter builds a router over the given registry. The fallback map
// may be nil when no substitutes are configured.
func NewModelRouter(registry domain.ProviderRegistry, fallbacks map[domain.ModelID]domain.ModelID, logger *slog.Logger) *ModelRouter {
	if fallbacks == nil {
		fallbacks = map[domain.ModelID]domain.ModelID{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelRouter{
		registry:  registry,
		fallbacks: fallbacks,
		logger:    logger,
	}
}

// Resolve maps a model identifier to the provider registered for its vendor
// prefix. It fails with domain.ErrProviderUnavailable when no provider is
// configured for the vendor.
func (r *ModelRouter) Resolve(model domain.ModelID) (domain.LLMProvider, error) {
	vendor, _, err := domain.ParseModelID(model)
	if err != nil {
		return nil, err
	}
	return r.registry.Provider(vendor)
}

// FallbackFor returns the configured substitute for a model, if any.
func (r *ModelRouter) FallbackFor(model domain.ModelID) (domain.ModelID, bool) {
	fb, ok := r.fallbacks[model]
	return fb, ok
}

// Call executes a chat request against the named model, applying the
// fallback policy on failure:
//
//   - rate-limited and fatal errors propagate immediately, never retried;
//   - model-not-found and transient errors earn one attempt against the
//     configured fallback, when there is one;
//   - at most two attempts total, ever.
//
// The returned response records the identifier of the model that actually
// produced it, which is the fallback identifier when the fallback answered.
func (r *ModelRouter) Call(ctx context.Context, model domain.ModelID, req domain.ChatRequest) (*domain.ProviderResponse, error) {
	resp, err := r.attempt(ctx, model, req)
	if err == nil {
		return resp, nil
	}

	switch domain.KindOf(err) {
	case domain.KindRateLimited, domain.KindFatal:
		return nil, err
	}

	fb, ok := r.FallbackFor(model)
	if !ok {
		return nil, err
	}

	r.logger.Warn("model call failed, attempting fallback",
		"model", model,
		"fallback", fb,
		"error", err)

	resp, fbErr := r.attempt(ctx, fb, req)
	if fbErr != nil {
		return nil, fmt.Errorf("fallback %s: %w", fb, fbErr)
	}
	return resp, nil
}

// attempt performs a single provider call and stamps the response with the
// identifier it was addressed to.
func (r *ModelRouter) attempt(ctx context.Context, model domain.ModelID, req domain.ChatRequest) (*domain.ProviderResponse, error) {
	vendor, name, err := domain.ParseModelID(model)
	if err != nil {
		return nil, err
	}
	provider, err := r.registry.Provider(vendor)
	if err != nil {
		return nil, err
	}

	req.Model = name
	start := time.Now()
	resp, err := provider.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Content == "" {
		return nil, domain.NewOrchestrationError("chat", domain.ErrEmptyCompletion, string(model))
	}

	return &domain.ProviderResponse{
		Model:      model,
		Response:   resp.Content,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}
