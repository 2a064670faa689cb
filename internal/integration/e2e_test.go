//go:build integration

package integration

import (
	"testing"

	"ensemble/internal/adapter/llm"
	"ensemble/internal/domain"
	"ensemble/internal/infra/config"
)

// Live tests call real vendor endpoints and cost money. Run them with
//
//	go test -tags integration ./internal/integration/
//
// Each test skips itself unless the vendor's conventional API key variable
// is set.

func TestLiveParallelSingleModel(t *testing.T) {
	SkipIfShort(t)
	keys := LoadKeys()
	SkipWithoutKey(t, keys.OpenAI, "OPENAI_API_KEY")

	ctx := NewTestContext(t, keys.Timeout)
	log := discardLogger()
	engine := buildEngine(t, map[domain.Vendor]domain.LLMProvider{
		domain.VendorOpenAI: llm.NewOpenAIProvider(config.ProviderConfig{
			Vendor: "openai", APIKey: keys.OpenAI,
		}, log),
	}, nil)

	result, err := engine.Orchestrate(ctx, domain.OrchestrationRequest{
		Prompt:   "Reply with the single word: pong",
		Strategy: domain.StrategyParallel,
		Models:   []domain.ModelID{"openai/gpt-4o-mini"},
	})
	if err != nil {
		t.Fatalf("orchestrate: %v", err)
	}

	if len(result.Responses) != 1 {
		t.Fatalf("responses = %d, want 1", len(result.Responses))
	}
	if result.Responses[0].Response == "" {
		t.Error("empty response from live model")
	}
	if result.Metadata.RunID == "" {
		t.Error("run id missing")
	}
	t.Logf("live answer: %s", result.Responses[0].Response)
}

func TestLiveSequentialRefinement(t *testing.T) {
	SkipIfShort(t)
	keys := LoadKeys()
	SkipWithoutKey(t, keys.OpenAI, "OPENAI_API_KEY")

	ctx := NewTestContext(t, keys.Timeout)
	log := discardLogger()
	engine := buildEngine(t, map[domain.Vendor]domain.LLMProvider{
		domain.VendorOpenAI: llm.NewOpenAIProvider(config.ProviderConfig{
			Vendor: "openai", APIKey: keys.OpenAI,
		}, log),
	}, nil)

	result, err := engine.Orchestrate(ctx, domain.OrchestrationRequest{
		Prompt:   "In one sentence, what makes channels useful in Go?",
		Strategy: domain.StrategySequential,
		Models:   []domain.ModelID{"openai/gpt-4o-mini", "openai/gpt-4o-mini"},
	})
	if err != nil {
		t.Fatalf("orchestrate: %v", err)
	}

	if len(result.Responses) != 2 {
		t.Fatalf("responses = %d, want 2", len(result.Responses))
	}
	for i, resp := range result.Responses {
		if resp.Response == "" {
			t.Errorf("step %d returned empty response", i)
		}
	}
}

func TestLiveCrossVendorConsensus(t *testing.T) {
	SkipIfShort(t)
	keys := LoadKeys()
	SkipWithoutKey(t, keys.OpenAI, "OPENAI_API_KEY")
	SkipWithoutKey(t, keys.Anthropic, "ANTHROPIC_API_KEY")

	ctx := NewTestContext(t, keys.Timeout)
	log := discardLogger()
	engine := buildEngine(t, map[domain.Vendor]domain.LLMProvider{
		domain.VendorOpenAI: llm.NewOpenAIProvider(config.ProviderConfig{
			Vendor: "openai", APIKey: keys.OpenAI,
		}, log),
		domain.VendorAnthropic: llm.NewAnthropicProvider(config.ProviderConfig{
			Vendor: "anthropic", APIKey: keys.Anthropic,
		}, log),
	}, nil)

	result, err := engine.Orchestrate(ctx, domain.OrchestrationRequest{
		Prompt:   "Is it better to return errors or panic in a Go library? Answer briefly.",
		Strategy: domain.StrategyConsensus,
		Models:   []domain.ModelID{"openai/gpt-4o-mini", "anthropic/claude-3-5-haiku-latest"},
	})
	if err != nil {
		t.Fatalf("orchestrate: %v", err)
	}

	if len(result.Responses) != 2 {
		t.Fatalf("responses = %d, want 2", len(result.Responses))
	}
	if result.Consensus == "" {
		t.Error("consensus missing")
	}
	t.Logf("live consensus: %s", result.Consensus)
}

func TestLiveFallbackOnUnknownModel(t *testing.T) {
	SkipIfShort(t)
	keys := LoadKeys()
	SkipWithoutKey(t, keys.OpenAI, "OPENAI_API_KEY")

	ctx := NewTestContext(t, keys.Timeout)
	log := discardLogger()
	engine := buildEngine(t, map[domain.Vendor]domain.LLMProvider{
		domain.VendorOpenAI: llm.NewOpenAIProvider(config.ProviderConfig{
			Vendor: "openai", APIKey: keys.OpenAI,
		}, log),
	}, map[domain.ModelID]domain.ModelID{
		"openai/gpt-definitely-not-a-model": "openai/gpt-4o-mini",
	})

	result, err := engine.Orchestrate(ctx, domain.OrchestrationRequest{
		Prompt:   "Reply with the single word: pong",
		Strategy: domain.StrategySequential,
		Models:   []domain.ModelID{"openai/gpt-definitely-not-a-model"},
	})
	if err != nil {
		t.Fatalf("orchestrate: %v", err)
	}

	if result.Responses[0].Model != "openai/gpt-4o-mini" {
		t.Errorf("response model = %s, want the fallback identity", result.Responses[0].Model)
	}
}
