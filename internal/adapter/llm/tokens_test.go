package llm

import (
	"testing"

	"ensemble/internal/domain"
)

func TestEstimateUsage(t *testing.T) {
	req := domain.ChatRequest{
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: "You are a terse assistant."},
			{Role: domain.RoleUser, Content: "Summarize the design in one sentence."},
		},
	}

	usage := estimateUsage(req, "It routes one prompt through several models and merges the answers.")

	if usage.PromptTokens <= 0 {
		t.Errorf("PromptTokens = %d, want > 0", usage.PromptTokens)
	}
	if usage.CompletionTokens <= 0 {
		t.Errorf("CompletionTokens = %d, want > 0", usage.CompletionTokens)
	}
	if usage.TotalTokens != usage.PromptTokens+usage.CompletionTokens {
		t.Errorf("TotalTokens = %d, want prompt+completion = %d",
			usage.TotalTokens, usage.PromptTokens+usage.CompletionTokens)
	}
}

func TestEstimateUsageEmptyCompletion(t *testing.T) {
	req := domain.ChatRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	}

	usage := estimateUsage(req, "")
	if usage.CompletionTokens != 0 {
		t.Errorf("CompletionTokens = %d, want 0 for empty completion", usage.CompletionTokens)
	}
	if usage.PromptTokens <= 0 {
		t.Errorf("PromptTokens = %d, want per-message overhead counted", usage.PromptTokens)
	}
}

func TestEstimateUsageGrowsWithInput(t *testing.T) {
	short := estimateUsage(domain.ChatRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	}, "")
	long := estimateUsage(domain.ChatRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "a considerably longer prompt that should tokenize to more tokens than a two letter greeting"}},
	}, "")

	if long.PromptTokens <= short.PromptTokens {
		t.Errorf("longer prompt counted %d tokens, short counted %d", long.PromptTokens, short.PromptTokens)
	}
}

func TestEnsureUsage(t *testing.T) {
	req := domain.ChatRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "count me"}},
	}

	resp := &domain.ChatResponse{Content: "counted"}
	ensureUsage(resp, req)
	if resp.Usage.TotalTokens <= 0 {
		t.Errorf("TotalTokens = %d, want backfilled estimate", resp.Usage.TotalTokens)
	}

	// Reported usage is never overwritten.
	reported := domain.Usage{PromptTokens: 11, CompletionTokens: 7, TotalTokens: 18}
	resp = &domain.ChatResponse{Content: "counted", Usage: reported}
	ensureUsage(resp, req)
	if resp.Usage != reported {
		t.Errorf("Usage = %+v, want untouched %+v", resp.Usage, reported)
	}
}
