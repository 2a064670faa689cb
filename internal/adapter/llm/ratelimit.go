package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"ensemble/internal/domain"
	"ensemble/internal/infra/config"
)

// Compile-time interface assertion.
var _ domain.LLMProvider = (*RateLimitedProvider)(nil)

// RateLimitedProvider wraps an LLMProvider with a client-side token bucket
// so parallel fan-out bursts do not trip vendor rate limits. Calls block
// until the limiter grants a slot or the context is canceled.
type RateLimitedProvider struct {
	inner   domain.LLMProvider
	limiter *rate.Limiter
}

// NewRateLimitedProvider wraps inner with a token bucket of cfg.RPS
// requests per second and cfg.Burst capacity. A zero or negative RPS
// disables throttling.
func NewRateLimitedProvider(inner domain.LLMProvider, cfg config.RateLimitConfig) *RateLimitedProvider {
	limit := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &RateLimitedProvider{
		inner:   inner,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Chat implements domain.LLMProvider.
func (p *RateLimitedProvider) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return p.inner.Chat(ctx, req)
}

// Name implements domain.LLMProvider.
func (p *RateLimitedProvider) Name() string { return p.inner.Name() }
