package main

import (
	"fmt"
	"log/slog"
	"strings"

	"ensemble/internal/adapter/llm"
	"ensemble/internal/domain"
	"ensemble/internal/infra/config"
)

// deepseekBaseURL is the OpenAI-compatible endpoint DeepSeek documents.
const deepseekBaseURL = "https://api.deepseek.com/v1"

// initLLM builds one provider per configured vendor and registers it. When
// enabled, each provider is wrapped with the client-side rate limiter and
// then the circuit breaker, so an open circuit fails fast without consuming
// limiter slots.
func initLLM(cfg *config.Config, log *slog.Logger) (*llm.Registry, error) {
	registry := llm.NewRegistry()

	rlCfg := cfg.LLM.RateLimit
	cbCfg := cfg.LLM.CircuitBreaker
	for _, pc := range cfg.LLM.Providers {
		provider, err := createLLMProvider(pc, log)
		if err != nil {
			return nil, fmt.Errorf("llm provider %s: %w", pc.Vendor, err)
		}

		if rlCfg.Enabled {
			provider = llm.NewRateLimitedProvider(provider, rlCfg)
		}
		if cbCfg.Enabled {
			provider = llm.NewCircuitBreakerProvider(provider, cbCfg, log)
		}

		if err := registry.Register(domain.Vendor(pc.Vendor), provider); err != nil {
			return nil, fmt.Errorf("llm provider %s: %w", pc.Vendor, err)
		}
	}

	if rlCfg.Enabled {
		log.Info("llm rate limiter enabled", "rps", rlCfg.RPS, "burst", rlCfg.Burst)
	}
	if cbCfg.Enabled {
		log.Info("llm circuit breaker enabled",
			"max_failures", cbCfg.MaxFailures,
			"timeout", cbCfg.Timeout,
			"interval", cbCfg.Interval)
	}

	return registry, nil
}

// createLLMProvider constructs the adapter for one vendor. Unknown vendors
// with a base URL are treated as OpenAI-compatible endpoints.
func createLLMProvider(pc config.ProviderConfig, log *slog.Logger) (domain.LLMProvider, error) {
	switch domain.Vendor(pc.Vendor) {
	case domain.VendorOpenAI:
		return llm.NewOpenAIProvider(pc, log), nil
	case domain.VendorAnthropic:
		return llm.NewAnthropicProvider(pc, log), nil
	case domain.VendorGoogle:
		return llm.NewGeminiProvider(pc, log), nil
	case domain.VendorDeepSeek:
		if pc.BaseURL == "" {
			pc.BaseURL = deepseekBaseURL
		}
		return llm.NewOpenAIProvider(pc, log), nil
	case domain.VendorOllama:
		return llm.NewOllamaProvider(pc, log), nil
	case domain.VendorOpenRouter:
		return llm.NewOpenRouterProvider(pc, log), nil
	case domain.VendorBedrock:
		return llm.NewBedrockProvider(pc, log)
	default:
		if pc.BaseURL == "" {
			return nil, fmt.Errorf("vendor %q needs base_url for an OpenAI-compatible endpoint", pc.Vendor)
		}
		return llm.NewOpenAIProvider(pc, log), nil
	}
}

// buildFallbacks converts the config fallback map to model identifiers.
func buildFallbacks(raw map[string]string) map[domain.ModelID]domain.ModelID {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[domain.ModelID]domain.ModelID, len(raw))
	for from, to := range raw {
		out[domain.ModelID(from)] = domain.ModelID(to)
	}
	return out
}

// parseModelIDs validates "<vendor>/<model>" identifiers from config or
// flags.
func parseModelIDs(raw []string) ([]domain.ModelID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]domain.ModelID, 0, len(raw))
	for _, s := range raw {
		id := domain.ModelID(strings.TrimSpace(s))
		if id == "" {
			continue
		}
		if _, _, err := domain.ParseModelID(id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
