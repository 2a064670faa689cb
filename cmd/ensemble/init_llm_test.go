package main

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"ensemble/internal/adapter/llm"
	"ensemble/internal/domain"
	"ensemble/internal/infra/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateLLMProviderKnownVendors(t *testing.T) {
	vendors := []string{"openai", "anthropic", "google", "deepseek", "ollama", "openrouter"}

	for _, vendor := range vendors {
		t.Run(vendor, func(t *testing.T) {
			provider, err := createLLMProvider(config.ProviderConfig{
				Vendor: vendor,
				APIKey: "sk-test",
			}, testLogger())
			if err != nil {
				t.Fatalf("createLLMProvider(%s): %v", vendor, err)
			}
			if provider.Name() != vendor {
				t.Errorf("Name() = %q, want %q", provider.Name(), vendor)
			}
		})
	}
}

func TestCreateLLMProviderUnknownVendor(t *testing.T) {
	_, err := createLLMProvider(config.ProviderConfig{Vendor: "acme"}, testLogger())
	if err == nil {
		t.Fatal("expected error for unknown vendor without base_url")
	}

	provider, err := createLLMProvider(config.ProviderConfig{
		Vendor:  "acme",
		BaseURL: "https://llm.acme.example/v1",
		APIKey:  "sk-acme",
	}, testLogger())
	if err != nil {
		t.Fatalf("createLLMProvider with base_url: %v", err)
	}
	if provider.Name() != "acme" {
		t.Errorf("Name() = %q, want acme", provider.Name())
	}
	if _, ok := provider.(*llm.OpenAIProvider); !ok {
		t.Errorf("unknown vendor should use the OpenAI-compatible adapter, got %T", provider)
	}
}

func TestInitLLMWrapping(t *testing.T) {
	base := config.ProviderConfig{Vendor: "openai", APIKey: "sk-test"}

	tests := []struct {
		name      string
		rateLimit config.RateLimitConfig
		breaker   config.CircuitBreakerConfig
		wantType  string
	}{
		{
			name:     "bare provider",
			wantType: "*llm.OpenAIProvider",
		},
		{
			name:      "rate limited",
			rateLimit: config.RateLimitConfig{Enabled: true, RPS: 5, Burst: 2},
			wantType:  "*llm.RateLimitedProvider",
		},
		{
			name:     "circuit breaker outermost",
			breaker:  config.CircuitBreakerConfig{Enabled: true},
			wantType: "*llm.CircuitBreakerProvider",
		},
		{
			name:      "both wraps",
			rateLimit: config.RateLimitConfig{Enabled: true, RPS: 5, Burst: 2},
			breaker:   config.CircuitBreakerConfig{Enabled: true},
			wantType:  "*llm.CircuitBreakerProvider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			cfg.LLM.Providers = []config.ProviderConfig{base}
			cfg.LLM.RateLimit = tt.rateLimit
			cfg.LLM.CircuitBreaker = tt.breaker

			registry, err := initLLM(cfg, testLogger())
			if err != nil {
				t.Fatalf("initLLM: %v", err)
			}

			provider, err := registry.Provider(domain.VendorOpenAI)
			if err != nil {
				t.Fatalf("Provider: %v", err)
			}

			var gotType string
			switch provider.(type) {
			case *llm.CircuitBreakerProvider:
				gotType = "*llm.CircuitBreakerProvider"
			case *llm.RateLimitedProvider:
				gotType = "*llm.RateLimitedProvider"
			case *llm.OpenAIProvider:
				gotType = "*llm.OpenAIProvider"
			default:
				t.Fatalf("unexpected provider type %T", provider)
			}
			if gotType != tt.wantType {
				t.Errorf("outermost wrap = %s, want %s", gotType, tt.wantType)
			}
		})
	}
}

func TestInitLLMDuplicateVendor(t *testing.T) {
	cfg := config.Defaults()
	cfg.LLM.Providers = []config.ProviderConfig{
		{Vendor: "openai", APIKey: "sk-1"},
		{Vendor: "openai", APIKey: "sk-2"},
	}

	_, err := initLLM(cfg, testLogger())
	if !errors.Is(err, domain.ErrDuplicateVendor) {
		t.Errorf("expected ErrDuplicateVendor, got %v", err)
	}
}

func TestBuildFallbacks(t *testing.T) {
	if got := buildFallbacks(nil); got != nil {
		t.Errorf("buildFallbacks(nil) = %v, want nil", got)
	}

	got := buildFallbacks(map[string]string{
		"openai/gpt-4o": "anthropic/claude-sonnet-4-5",
	})
	if got[domain.ModelID("openai/gpt-4o")] != "anthropic/claude-sonnet-4-5" {
		t.Errorf("fallbacks = %v", got)
	}
}

func TestParseModelIDs(t *testing.T) {
	ids, err := parseModelIDs([]string{"openai/gpt-4o", " anthropic/claude-sonnet-4-5 "})
	if err != nil {
		t.Fatalf("parseModelIDs: %v", err)
	}
	if len(ids) != 2 || ids[1] != "anthropic/claude-sonnet-4-5" {
		t.Errorf("ids = %v", ids)
	}

	if _, err := parseModelIDs([]string{"gpt-4o"}); err == nil {
		t.Error("expected error for identifier without vendor prefix")
	}

	ids, err = parseModelIDs(nil)
	if err != nil || ids != nil {
		t.Errorf("parseModelIDs(nil) = %v, %v", ids, err)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList("openai/gpt-4o, anthropic/claude-sonnet-4-5,,")
	if len(got) != 2 || got[0] != "openai/gpt-4o" || got[1] != "anthropic/claude-sonnet-4-5" {
		t.Errorf("splitList = %v", got)
	}
	if got := splitList(""); got != nil {
		t.Errorf("splitList(\"\") = %v, want nil", got)
	}
}
